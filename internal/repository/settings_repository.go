package repository

import (
	"context"
	"database/sql"
	"fmt"

	"focusboard/backend/internal/model"
)

type SettingsRepository struct {
	db *sql.DB
}

func NewSettingsRepository(db *sql.DB) *SettingsRepository {
	return &SettingsRepository{db: db}
}

func (r *SettingsRepository) Get(ctx context.Context, userID string) (*model.Settings, error) {
	row := r.db.QueryRowContext(
		ctx,
		`SELECT user_id, work_minutes, short_break_minutes, long_break_minutes,
		        sessions_until_long_break, sound_enabled, updated_at
		 FROM settings WHERE user_id = ?`,
		userID,
	)

	settings := model.Settings{}
	var updatedAt string
	err := row.Scan(
		&settings.UserID,
		&settings.WorkMinutes,
		&settings.ShortBreakMinutes,
		&settings.LongBreakMinutes,
		&settings.SessionsUntilLongBreak,
		&settings.SoundEnabled,
		&updatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get settings: %w", err)
	}

	parsedUpdatedAt, err := parseTime(updatedAt)
	if err != nil {
		return nil, fmt.Errorf("parse settings updated_at: %w", err)
	}
	settings.UpdatedAt = parsedUpdatedAt
	return &settings, nil
}

func (r *SettingsRepository) Upsert(ctx context.Context, settings *model.Settings) error {
	_, err := r.db.ExecContext(
		ctx,
		`INSERT INTO settings (
			user_id, work_minutes, short_break_minutes, long_break_minutes,
			sessions_until_long_break, sound_enabled, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(user_id) DO UPDATE SET
			work_minutes = excluded.work_minutes,
			short_break_minutes = excluded.short_break_minutes,
			long_break_minutes = excluded.long_break_minutes,
			sessions_until_long_break = excluded.sessions_until_long_break,
			sound_enabled = excluded.sound_enabled,
			updated_at = excluded.updated_at`,
		settings.UserID,
		settings.WorkMinutes,
		settings.ShortBreakMinutes,
		settings.LongBreakMinutes,
		settings.SessionsUntilLongBreak,
		settings.SoundEnabled,
		formatTime(settings.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("upsert settings: %w", err)
	}
	return nil
}
