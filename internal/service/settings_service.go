package service

import (
	"context"
	"time"

	apperrors "focusboard/backend/internal/errors"
	"focusboard/backend/internal/model"
	"focusboard/backend/internal/repository"
)

type SettingsService struct {
	repo *repository.SettingsRepository
}

type UpdateSettingsInput struct {
	WorkMinutes            int
	ShortBreakMinutes      int
	LongBreakMinutes       int
	SessionsUntilLongBreak int
	SoundEnabled           *bool
}

func NewSettingsService(repo *repository.SettingsRepository) *SettingsService {
	return &SettingsService{repo: repo}
}

func (s *SettingsService) Get(ctx context.Context, userID string) (*model.Settings, *apperrors.APIError) {
	settings, err := userSettings{userID: userID, repo: s.repo}.Settings(ctx)
	if err != nil {
		return nil, apperrors.Internal("failed to get settings").WithCause(err)
	}
	return &settings, nil
}

// Update applies new durations. They take effect from the next session; the
// running session keeps the duration it started with.
func (s *SettingsService) Update(ctx context.Context, userID string, input UpdateSettingsInput) (*model.Settings, *apperrors.APIError) {
	invalid := map[string]string{}
	checkRange(invalid, "workDurationMinutes", input.WorkMinutes, 1, 180)
	checkRange(invalid, "shortBreakDurationMinutes", input.ShortBreakMinutes, 1, 60)
	checkRange(invalid, "longBreakDurationMinutes", input.LongBreakMinutes, 1, 120)
	checkRange(invalid, "sessionsUntilLongBreak", input.SessionsUntilLongBreak, 1, 12)
	if len(invalid) > 0 {
		return nil, apperrors.Invalid("invalid_settings", "settings are out of range", invalid)
	}

	current, apiErr := s.Get(ctx, userID)
	if apiErr != nil {
		return nil, apiErr
	}
	current.UserID = userID
	current.WorkMinutes = input.WorkMinutes
	current.ShortBreakMinutes = input.ShortBreakMinutes
	current.LongBreakMinutes = input.LongBreakMinutes
	current.SessionsUntilLongBreak = input.SessionsUntilLongBreak
	if input.SoundEnabled != nil {
		current.SoundEnabled = *input.SoundEnabled
	}
	current.UpdatedAt = time.Now().UTC()

	if err := s.repo.Upsert(ctx, current); err != nil {
		return nil, apperrors.Internal("failed to update settings").WithCause(err)
	}
	return current, nil
}

func checkRange(invalid map[string]string, field string, value, min, max int) {
	if value < min || value > max {
		invalid[field] = "must be between " + itoa(min) + " and " + itoa(max)
	}
}
