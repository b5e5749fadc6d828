package repository

import (
	"context"
	"database/sql"
	"fmt"

	"focusboard/backend/internal/model"
)

// NotificationRepository is the per-user feed clients poll for notices and
// sound cues.
type NotificationRepository struct {
	db *sql.DB
}

func NewNotificationRepository(db *sql.DB) *NotificationRepository {
	return &NotificationRepository{db: db}
}

func (r *NotificationRepository) Insert(ctx context.Context, n *model.Notification) error {
	var sound interface{}
	if n.Sound != "" {
		sound = n.Sound
	}
	result, err := r.db.ExecContext(
		ctx,
		`INSERT INTO notifications (user_id, kind, title, body, sound, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		n.UserID,
		n.Kind,
		n.Title,
		n.Body,
		sound,
		formatTime(n.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("insert notification: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("notification id: %w", err)
	}
	n.ID = id
	return nil
}

// ListAfter returns notifications with an id greater than after, oldest first.
func (r *NotificationRepository) ListAfter(ctx context.Context, userID string, after int64, limit int) ([]model.Notification, error) {
	rows, err := r.db.QueryContext(
		ctx,
		`SELECT id, user_id, kind, title, body, sound, created_at
		 FROM notifications
		 WHERE user_id = ? AND id > ?
		 ORDER BY id ASC
		 LIMIT ?`,
		userID,
		after,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}
	defer rows.Close()

	items := make([]model.Notification, 0)
	for rows.Next() {
		var n model.Notification
		var sound sql.NullString
		var createdAt string
		if err := rows.Scan(&n.ID, &n.UserID, &n.Kind, &n.Title, &n.Body, &sound, &createdAt); err != nil {
			return nil, fmt.Errorf("scan notification: %w", err)
		}
		n.Sound = sound.String
		parsedCreatedAt, err := parseTime(createdAt)
		if err != nil {
			return nil, fmt.Errorf("parse notification created_at: %w", err)
		}
		n.CreatedAt = parsedCreatedAt
		items = append(items, n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate notifications: %w", err)
	}
	return items, nil
}
