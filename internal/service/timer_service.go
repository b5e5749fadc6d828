package service

import (
	"context"
	"errors"
	"log/slog"
	"sort"
	"sync"
	"time"

	apperrors "focusboard/backend/internal/errors"
	"focusboard/backend/internal/model"
	"focusboard/backend/internal/persistence"
	"focusboard/backend/internal/repository"
	"focusboard/backend/internal/timer"
)

// NotifierFactory hands out the notifier of one user.
type NotifierFactory interface {
	For(userID string) timer.Notifier
}

// Observer is told about every update of every engine.
type Observer func(ctx context.Context, userID string, update timer.Update)

// TimerService owns one engine per user. Engines are created on first use,
// restored from their persisted slot, and ticked by Run.
type TimerService struct {
	tasks     *repository.TaskRepository
	sessions  *repository.SessionRepository
	settings  *repository.SettingsRepository
	persist   *persistence.Manager
	notifiers NotifierFactory
	clock     timer.Clock
	logger    *slog.Logger
	debug     bool

	mu        sync.Mutex
	engines   map[string]*timer.Machine
	loading   map[string]*engineLoad
	observers []Observer
}

type TimerServiceOptions struct {
	Tasks     *repository.TaskRepository
	Sessions  *repository.SessionRepository
	Settings  *repository.SettingsRepository
	Persist   *persistence.Manager
	Notifiers NotifierFactory
	Clock     timer.Clock
	Logger    *slog.Logger
	Debug     bool
}

// TimerView is the snapshot returned to clients.
type TimerView struct {
	timer.Snapshot
	ServerTime time.Time `json:"serverTime"`
}

func NewTimerService(opts TimerServiceOptions) *TimerService {
	s := &TimerService{
		tasks:     opts.Tasks,
		sessions:  opts.Sessions,
		settings:  opts.Settings,
		persist:   opts.Persist,
		notifiers: opts.Notifiers,
		clock:     opts.Clock,
		logger:    opts.Logger,
		debug:     opts.Debug,
		engines:   make(map[string]*timer.Machine),
		loading:   make(map[string]*engineLoad),
	}
	if s.clock == nil {
		s.clock = timer.SystemClock
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	return s
}

// Observe registers fn for engines created afterwards. Call it before
// RecoverAll.
func (s *TimerService) Observe(fn Observer) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.observers = append(s.observers, fn)
}

func (s *TimerService) notifierFor(userID string) timer.Notifier {
	if s.notifiers == nil {
		return nil
	}
	return s.notifiers.For(userID)
}

// engineLoad is an engine being built for one user. Callers that arrive
// during the load wait on done and share its result.
type engineLoad struct {
	done chan struct{}
	m    *timer.Machine
	err  error
}

// engine returns the user's engine, building it on first use. Loading the
// persisted slot runs outside s.mu so other users are not blocked by it.
func (s *TimerService) engine(ctx context.Context, userID string) (*timer.Machine, error) {
	s.mu.Lock()
	if m, ok := s.engines[userID]; ok {
		s.mu.Unlock()
		return m, nil
	}
	if load, ok := s.loading[userID]; ok {
		s.mu.Unlock()
		select {
		case <-load.done:
			return load.m, load.err
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	load := &engineLoad{done: make(chan struct{})}
	s.loading[userID] = load
	observers := append([]Observer(nil), s.observers...)
	s.mu.Unlock()

	load.m, load.err = s.build(ctx, userID, observers)

	s.mu.Lock()
	delete(s.loading, userID)
	if load.err == nil {
		s.engines[userID] = load.m
	}
	s.mu.Unlock()
	close(load.done)
	return load.m, load.err
}

func (s *TimerService) build(ctx context.Context, userID string, observers []Observer) (*timer.Machine, error) {
	tasks := userTasks{userID: userID, tasks: s.tasks, sessions: s.sessions}
	notifier := s.notifierFor(userID)
	m := timer.NewMachine(timer.Options{
		Clock:    s.clock,
		Tasks:    tasks,
		Settings: userSettings{userID: userID, repo: s.settings},
		Notifier: notifier,
		Logger:   s.logger.With("user", userID),
	})

	if s.persist != nil {
		st, outcome, err := s.persist.Load(ctx, userID, tasks, notifier)
		if err != nil {
			return nil, err
		}
		if outcome == persistence.OutcomeRestored {
			m.Restore(ctx, st)
		}
		m.Subscribe(s.persist.Listener(userID))
	}
	for _, observe := range observers {
		observe := observe
		m.Subscribe(func(ctx context.Context, update timer.Update) {
			observe(ctx, userID, update)
		})
	}
	return m, nil
}

func (s *TimerService) snapshotEngines() map[string]*timer.Machine {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]*timer.Machine, len(s.engines))
	for id, m := range s.engines {
		out[id] = m
	}
	return out
}

// RecoverAll restores every persisted timer so overtime rules keep running
// for users who have not reconnected yet.
func (s *TimerService) RecoverAll(ctx context.Context) (int, error) {
	if s.persist == nil {
		return 0, nil
	}
	return s.persist.RecoverAll(ctx, func(ctx context.Context, userID string) error {
		_, err := s.engine(ctx, userID)
		return err
	})
}

// Run ticks every engine until ctx is cancelled.
func (s *TimerService) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.TickAll(ctx)
		}
	}
}

func (s *TimerService) TickAll(ctx context.Context) {
	now := s.clock.Now()
	for userID, m := range s.snapshotEngines() {
		if err := m.Tick(ctx, now); err != nil {
			s.logger.Warn("timer tick failed", "user", userID, "error", err)
		}
	}
}

// Shutdown flushes every engine's state.
func (s *TimerService) Shutdown(ctx context.Context) error {
	if s.persist == nil {
		return nil
	}
	engines := s.snapshotEngines()
	ids := make([]string, 0, len(engines))
	for id := range engines {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	var errs []error
	for _, userID := range ids {
		if err := s.persist.Flush(ctx, userID, engines[userID].State()); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (s *TimerService) view(m *timer.Machine) *TimerView {
	now := s.clock.Now()
	return &TimerView{Snapshot: m.Snapshot(now), ServerTime: now}
}

func (s *TimerService) apply(ctx context.Context, userID string, op func(m *timer.Machine) error) (*TimerView, *apperrors.APIError) {
	m, err := s.engine(ctx, userID)
	if err != nil {
		s.logger.Error("load timer failed", "user", userID, "error", err)
		return nil, apperrors.Internal("failed to load timer").WithCause(err)
	}
	if err := op(m); err != nil {
		if errors.Is(err, timer.ErrTaskCompleted) {
			return nil, apperrors.Conflict("task_completed", "task is already completed", nil)
		}
		s.logger.Error("timer operation failed", "user", userID, "error", err)
		return nil, apperrors.Internal("failed to update timer").WithCause(err)
	}
	return s.view(m), nil
}

// State refreshes the remaining time before reporting it, so a client
// returning from sleep sees the corrected value.
func (s *TimerService) State(ctx context.Context, userID string) (*TimerView, *apperrors.APIError) {
	return s.apply(ctx, userID, func(m *timer.Machine) error {
		return m.Refresh(ctx, s.clock.Now())
	})
}

func (s *TimerService) Refresh(ctx context.Context, userID string) (*TimerView, *apperrors.APIError) {
	return s.State(ctx, userID)
}

func (s *TimerService) Start(ctx context.Context, userID, taskID string) (*TimerView, *apperrors.APIError) {
	if taskID == "" {
		return nil, apperrors.BadRequest("invalid_task", "taskId is required")
	}
	task, err := s.tasks.GetByID(ctx, userID, taskID)
	if err == repository.ErrNotFound {
		return nil, apperrors.NotFound("task_not_found", "task not found")
	}
	if err != nil {
		return nil, apperrors.Internal("failed to get task").WithCause(err)
	}
	return s.apply(ctx, userID, func(m *timer.Machine) error {
		return m.Start(ctx, task)
	})
}

func (s *TimerService) Pause(ctx context.Context, userID string) (*TimerView, *apperrors.APIError) {
	return s.apply(ctx, userID, func(m *timer.Machine) error { return m.Pause(ctx) })
}

func (s *TimerService) Resume(ctx context.Context, userID string) (*TimerView, *apperrors.APIError) {
	return s.apply(ctx, userID, func(m *timer.Machine) error { return m.Resume(ctx) })
}

func (s *TimerService) Stop(ctx context.Context, userID string) (*TimerView, *apperrors.APIError) {
	return s.apply(ctx, userID, func(m *timer.Machine) error { return m.Stop(ctx) })
}

func (s *TimerService) CompleteWork(ctx context.Context, userID string) (*TimerView, *apperrors.APIError) {
	return s.apply(ctx, userID, func(m *timer.Machine) error { return m.CompleteWorkSession(ctx) })
}

func (s *TimerService) Next(ctx context.Context, userID string) (*TimerView, *apperrors.APIError) {
	return s.apply(ctx, userID, func(m *timer.Machine) error { return m.StartNextSession(ctx) })
}

func (s *TimerService) SkipBreak(ctx context.Context, userID string) (*TimerView, *apperrors.APIError) {
	return s.apply(ctx, userID, func(m *timer.Machine) error { return m.SkipBreak(ctx) })
}

// Rewind is the manual-testing hook. It is hidden unless debug endpoints are
// enabled.
func (s *TimerService) Rewind(ctx context.Context, userID string, remainingSeconds int) (*TimerView, *apperrors.APIError) {
	if !s.debug {
		return nil, apperrors.NotFound("not_found", "not found")
	}
	return s.apply(ctx, userID, func(m *timer.Machine) error { return m.RewindTo(ctx, remainingSeconds) })
}

func (s *TimerService) StopIfTask(ctx context.Context, userID, taskID string) *apperrors.APIError {
	_, apiErr := s.apply(ctx, userID, func(m *timer.Machine) error { return m.StopIfTask(ctx, taskID) })
	return apiErr
}

func (s *TimerService) History(ctx context.Context, userID string, limit int) ([]model.Session, *apperrors.APIError) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	sessions, err := s.sessions.ListSessions(ctx, userID, limit)
	if err != nil {
		return nil, apperrors.Internal("failed to get history").WithCause(err)
	}
	return sessions, nil
}
