package service

import (
	"context"

	apperrors "focusboard/backend/internal/errors"
	"focusboard/backend/internal/model"
	"focusboard/backend/internal/repository"
)

type NotificationService struct {
	repo *repository.NotificationRepository
}

func NewNotificationService(repo *repository.NotificationRepository) *NotificationService {
	return &NotificationService{repo: repo}
}

// List returns the feed entries newer than after.
func (s *NotificationService) List(ctx context.Context, userID string, after int64, limit int) ([]model.Notification, *apperrors.APIError) {
	if after < 0 {
		after = 0
	}
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	items, err := s.repo.ListAfter(ctx, userID, after, limit)
	if err != nil {
		return nil, apperrors.Internal("failed to list notifications").WithCause(err)
	}
	return items, nil
}
