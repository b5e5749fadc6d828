package service

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	apperrors "focusboard/backend/internal/errors"
	"focusboard/backend/internal/model"
	"focusboard/backend/internal/repository"
)

const maxTaskTitle = 200

// timerStopper stops a user's timer when it belongs to the given task.
type timerStopper interface {
	StopIfTask(ctx context.Context, userID, taskID string) *apperrors.APIError
}

type TaskService struct {
	repo   *repository.TaskRepository
	timers timerStopper
}

func NewTaskService(repo *repository.TaskRepository, timers timerStopper) *TaskService {
	return &TaskService{repo: repo, timers: timers}
}

func (s *TaskService) Create(ctx context.Context, userID, title string, estimatedSessions int) (*model.Task, *apperrors.APIError) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, apperrors.BadRequest("invalid_title", "title is required")
	}
	if len(title) > maxTaskTitle {
		return nil, apperrors.BadRequest("invalid_title", "title must be at most "+itoa(maxTaskTitle)+" characters")
	}
	if estimatedSessions == 0 {
		estimatedSessions = model.DefaultEstimatedSessions
	}
	if estimatedSessions < 1 || estimatedSessions > 20 {
		return nil, apperrors.BadRequest("invalid_estimate", "estimatedSessions must be between 1 and 20")
	}

	now := time.Now().UTC()
	task := model.Task{
		ID:                uuid.NewString(),
		UserID:            userID,
		Title:             title,
		EstimatedSessions: estimatedSessions,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	if err := s.repo.Create(ctx, &task); err != nil {
		return nil, apperrors.Internal("failed to create task").WithCause(err)
	}
	return &task, nil
}

func (s *TaskService) List(ctx context.Context, userID string) ([]model.Task, *apperrors.APIError) {
	tasks, err := s.repo.List(ctx, userID)
	if err != nil {
		return nil, apperrors.Internal("failed to list tasks").WithCause(err)
	}
	return tasks, nil
}

// Complete marks a task done. A timer running for it is stopped so the
// session cannot outlive its task.
func (s *TaskService) Complete(ctx context.Context, userID, taskID string) (*model.Task, *apperrors.APIError) {
	if apiErr := s.ensureExists(ctx, userID, taskID); apiErr != nil {
		return nil, apiErr
	}
	if apiErr := s.timers.StopIfTask(ctx, userID, taskID); apiErr != nil {
		return nil, apiErr
	}
	err := s.repo.MarkCompleted(ctx, userID, taskID, time.Now().UTC())
	if err == repository.ErrNotFound {
		return nil, apperrors.NotFound("task_not_found", "task not found")
	}
	if err != nil {
		return nil, apperrors.Internal("failed to complete task").WithCause(err)
	}
	task, err := s.repo.GetByID(ctx, userID, taskID)
	if err != nil {
		return nil, apperrors.Internal("failed to get task").WithCause(err)
	}
	return task, nil
}

func (s *TaskService) Delete(ctx context.Context, userID, taskID string) *apperrors.APIError {
	if apiErr := s.ensureExists(ctx, userID, taskID); apiErr != nil {
		return apiErr
	}
	if apiErr := s.timers.StopIfTask(ctx, userID, taskID); apiErr != nil {
		return apiErr
	}
	err := s.repo.Delete(ctx, userID, taskID)
	if err == repository.ErrNotFound {
		return apperrors.NotFound("task_not_found", "task not found")
	}
	if err != nil {
		return apperrors.Internal("failed to delete task").WithCause(err)
	}
	return nil
}

// ensureExists keeps a running timer untouched when the task cannot be found.
func (s *TaskService) ensureExists(ctx context.Context, userID, taskID string) *apperrors.APIError {
	_, err := s.repo.GetByID(ctx, userID, taskID)
	if err == repository.ErrNotFound {
		return apperrors.NotFound("task_not_found", "task not found")
	}
	if err != nil {
		return apperrors.Internal("failed to get task").WithCause(err)
	}
	return nil
}

func itoa(v int) string { return strconv.Itoa(v) }
