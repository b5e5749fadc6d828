package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"focusboard/backend/internal/model"
)

// SessionRepository holds finalized sessions. Rows are append-only.
type SessionRepository struct {
	db *sql.DB
}

func NewSessionRepository(db *sql.DB) *SessionRepository {
	return &SessionRepository{db: db}
}

func (r *SessionRepository) Insert(ctx context.Context, userID string, session model.Session) error {
	_, err := r.db.ExecContext(
		ctx,
		`INSERT INTO sessions (
			id, user_id, task_id, type, duration_minutes, started_at, ended_at, completed, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		session.ID,
		userID,
		session.TaskID,
		session.Type,
		session.Duration,
		formatTime(session.Started),
		nullableTime(session.Ended),
		session.Completed,
		formatTime(time.Now()),
	)
	if err != nil {
		return fmt.Errorf("insert session: %w", err)
	}
	return nil
}

// CountCompletedWork counts completed work sessions of a task.
func (r *SessionRepository) CountCompletedWork(ctx context.Context, userID, taskID string) (int, error) {
	var count int
	err := r.db.QueryRowContext(
		ctx,
		`SELECT COUNT(1) FROM sessions
		 WHERE user_id = ? AND task_id = ? AND type = ? AND completed = 1`,
		userID,
		taskID,
		model.SessionWork,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count completed sessions: %w", err)
	}
	return count, nil
}

func (r *SessionRepository) ListSessions(ctx context.Context, userID string, limit int) ([]model.Session, error) {
	rows, err := r.db.QueryContext(
		ctx,
		`SELECT id, task_id, type, duration_minutes, started_at, ended_at, completed
		 FROM sessions
		 WHERE user_id = ?
		 ORDER BY started_at DESC
		 LIMIT ?`,
		userID,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	defer rows.Close()

	sessions := make([]model.Session, 0, limit)
	for rows.Next() {
		session, scanErr := scanSession(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		sessions = append(sessions, *session)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate sessions: %w", err)
	}

	return sessions, nil
}

func scanSession(s scanner) (*model.Session, error) {
	session := model.Session{}
	var startedAt string
	var endedAt sql.NullString
	err := s.Scan(
		&session.ID,
		&session.TaskID,
		&session.Type,
		&session.Duration,
		&startedAt,
		&endedAt,
		&session.Completed,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("scan session: %w", err)
	}

	parsedStartedAt, err := parseTime(startedAt)
	if err != nil {
		return nil, fmt.Errorf("parse session started_at: %w", err)
	}
	session.Started = parsedStartedAt

	session.Ended, err = parseNullableTime(endedAt)
	if err != nil {
		return nil, fmt.Errorf("parse session ended_at: %w", err)
	}
	return &session, nil
}
