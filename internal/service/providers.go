package service

import (
	"context"

	"focusboard/backend/internal/model"
	"focusboard/backend/internal/repository"
)

// userTasks is the task store of one user as the timer engine sees it.
type userTasks struct {
	userID   string
	tasks    *repository.TaskRepository
	sessions *repository.SessionRepository
}

func (p userTasks) FindTask(ctx context.Context, taskID string) (*model.Task, error) {
	task, err := p.tasks.GetByID(ctx, p.userID, taskID)
	if err == repository.ErrNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return task, nil
}

func (p userTasks) CompletedWorkSessions(ctx context.Context, taskID string) (int, error) {
	return p.sessions.CountCompletedWork(ctx, p.userID, taskID)
}

func (p userTasks) AppendSession(ctx context.Context, session model.Session) error {
	return p.sessions.Insert(ctx, p.userID, session)
}

type userSettings struct {
	userID string
	repo   *repository.SettingsRepository
}

func (p userSettings) Settings(ctx context.Context) (model.Settings, error) {
	settings, err := p.repo.Get(ctx, p.userID)
	if err == repository.ErrNotFound {
		return model.DefaultSettings(p.userID), nil
	}
	if err != nil {
		return model.Settings{}, err
	}
	return *settings, nil
}
