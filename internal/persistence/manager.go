// Package persistence saves timer states to a key-value slot per user and
// recovers them on startup, rejecting orphaned and runaway sessions.
package persistence

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"focusboard/backend/internal/model"
	"focusboard/backend/internal/timer"
)

const KeyPrefix = "timer_state:"

func Key(userID string) string { return KeyPrefix + userID }

// UserFromKey returns the user id of a slot key.
func UserFromKey(key string) (string, bool) {
	if !strings.HasPrefix(key, KeyPrefix) {
		return "", false
	}
	userID := strings.TrimPrefix(key, KeyPrefix)
	return userID, userID != ""
}

// Store is a durable key-value store. Get reports ok=false for a missing key.
type Store interface {
	Get(ctx context.Context, key string) (value []byte, ok bool, err error)
	Put(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
	Keys(ctx context.Context, prefix string) ([]string, error)
}

// TaskLookup resolves a task of one user. A missing task is nil, nil.
type TaskLookup interface {
	FindTask(ctx context.Context, taskID string) (*model.Task, error)
}

type Outcome string

const (
	OutcomeNone     Outcome = "none"
	OutcomeRestored Outcome = "restored"
	OutcomeOrphaned Outcome = "orphaned"
	OutcomeRunaway  Outcome = "runaway"
	OutcomeCorrupt  Outcome = "corrupt"
	OutcomeExpired  Outcome = "expired"
)

// RunawayFactor bounds plausible overtime as a multiple of the duration.
const RunawayFactor = 2

type Manager struct {
	store  Store
	clock  timer.Clock
	logger *slog.Logger
}

func NewManager(store Store, clock timer.Clock, logger *slog.Logger) *Manager {
	if clock == nil {
		clock = timer.SystemClock
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{store: store, clock: clock, logger: logger}
}

// Save writes st, or deletes the slot when st is idle.
func (m *Manager) Save(ctx context.Context, userID string, st timer.State) error {
	if st.IsIdle() {
		if err := m.store.Delete(ctx, Key(userID)); err != nil {
			return fmt.Errorf("delete timer state: %w", err)
		}
		return nil
	}
	data, err := Encode(st)
	if err != nil {
		return err
	}
	if err := m.store.Put(ctx, Key(userID), data); err != nil {
		return fmt.Errorf("save timer state: %w", err)
	}
	return nil
}

// Listener persists every transition of one user's machine. Display-only
// updates are skipped since the stored countdown is never trusted.
func (m *Manager) Listener(userID string) timer.Listener {
	return func(ctx context.Context, update timer.Update) {
		if !update.Transition {
			return
		}
		if err := m.Save(ctx, userID, update.State); err != nil {
			m.logger.Warn("persist timer state failed", "user", userID, "cause", update.Cause, "error", err)
		}
	}
}

// Flush is the teardown write. A paused state keeps its pause instant; one
// that lost it is anchored at now.
func (m *Manager) Flush(ctx context.Context, userID string, st timer.State) error {
	if st.CurrentSession != nil && !st.IsRunning && st.PausedAt == nil {
		now := m.clock.Now()
		st.PausedAt = &now
	}
	if st.CurrentSession != nil {
		st.TimeLeft = st.Remaining(m.clock.Now())
	}
	return m.Save(ctx, userID, st)
}

// Inspect decodes a slot without side effects and reports what Load would do.
func (m *Manager) Inspect(ctx context.Context, raw []byte, tasks TaskLookup) (timer.State, Outcome, error) {
	rec, err := Decode(raw)
	if err != nil {
		return timer.State{}, OutcomeCorrupt, err
	}
	return m.verdict(ctx, rec, tasks)
}

// Load recovers a user's state. Discarded records are deleted. notifier
// receives the runaway and overdue notices and may be nil.
func (m *Manager) Load(ctx context.Context, userID string, tasks TaskLookup, notifier timer.Notifier) (timer.State, Outcome, error) {
	key := Key(userID)
	raw, ok, err := m.store.Get(ctx, key)
	if err != nil {
		return timer.State{}, OutcomeNone, fmt.Errorf("load timer state: %w", err)
	}
	if !ok {
		return timer.State{}, OutcomeNone, nil
	}

	st, outcome, err := m.Inspect(ctx, raw, tasks)
	if err != nil && outcome != OutcomeCorrupt {
		return timer.State{}, OutcomeNone, err
	}
	if outcome != OutcomeRestored {
		m.logger.Info("discarding timer state", "user", userID, "outcome", outcome, "error", err)
		if delErr := m.store.Delete(ctx, key); delErr != nil {
			m.logger.Warn("delete discarded timer state failed", "user", userID, "error", delErr)
		}
		if outcome == OutcomeRunaway && notifier != nil {
			notifier.Notify(timer.KindSessionAutoStopped, "Session Auto-Stopped",
				"Your last session ran far past its duration while the app was closed and was stopped.")
		}
		return timer.State{}, outcome, nil
	}

	if st.CurrentSession != nil && st.SessionType == model.SessionWork && st.TimeLeft < 0 && notifier != nil {
		notifier.Notify(timer.KindSessionOverdue, "Session Overdue",
			fmt.Sprintf("Your focus session is %d minutes past its scheduled end.", timer.OvertimeSeconds(st.TimeLeft)/60))
	}
	m.logger.Info("restored timer state", "user", userID, "phase", st.Phase(), "remaining", st.TimeLeft)
	return st, OutcomeRestored, nil
}

func (m *Manager) verdict(ctx context.Context, rec Record, tasks TaskLookup) (timer.State, Outcome, error) {
	st := rec.State()
	if st.IsIdle() {
		return timer.State{}, OutcomeNone, nil
	}
	now := m.clock.Now()

	if taskID := rec.TaskID(); taskID != "" && tasks != nil {
		task, err := tasks.FindTask(ctx, taskID)
		if err != nil {
			return timer.State{}, OutcomeNone, fmt.Errorf("resolve task %s: %w", taskID, err)
		}
		// A finished task keeps its completion screen only.
		if task == nil || (task.Completed && !st.TaskComplete) {
			return timer.State{}, OutcomeOrphaned, nil
		}
	}

	if st.TaskComplete {
		if st.CompletedAt == nil || now.Sub(*st.CompletedAt) >= timer.TaskCompleteWindow {
			return timer.State{}, OutcomeExpired, nil
		}
		return st, OutcomeRestored, nil
	}

	if st.CurrentSession == nil {
		return st, OutcomeRestored, nil
	}

	remaining := st.Remaining(now)
	if remaining < -(RunawayFactor * st.CurrentSession.Duration * 60) {
		return timer.State{}, OutcomeRunaway, nil
	}
	st.TimeLeft = remaining
	return st, OutcomeRestored, nil
}

// RecoverAll lists every persisted slot and hands each user id to load.
// Failures for one user do not stop the others.
func (m *Manager) RecoverAll(ctx context.Context, load func(ctx context.Context, userID string) error) (int, error) {
	keys, err := m.store.Keys(ctx, KeyPrefix)
	if err != nil {
		return 0, fmt.Errorf("list timer states: %w", err)
	}
	recovered := 0
	for _, key := range keys {
		userID, ok := UserFromKey(key)
		if !ok {
			continue
		}
		if err := load(ctx, userID); err != nil {
			m.logger.Warn("recover timer state failed", "user", userID, "error", err)
			continue
		}
		recovered++
	}
	return recovered, nil
}

// Age is how long ago the record's session started.
func Age(st timer.State, now time.Time) time.Duration {
	if st.CurrentSession == nil {
		return 0
	}
	return now.Sub(st.CurrentSession.Started)
}
