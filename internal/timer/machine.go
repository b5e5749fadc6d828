package timer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"focusboard/backend/internal/model"
)

// TaskCompleteWindow is how long the task-complete display survives before
// the machine falls back to idle.
const TaskCompleteWindow = 5 * time.Second

var ErrTaskCompleted = errors.New("task already completed")

type Options struct {
	Clock    Clock
	Tasks    TaskProvider
	Settings SettingsProvider
	Notifier Notifier
	Logger   *slog.Logger
}

// Machine owns one TimerState and funnels every mutation through its
// transitions. Mutators on a machine with no session are no-ops.
//
// Listeners run in mutation order. They must not call mutators on the same
// machine.
type Machine struct {
	mu     sync.Mutex
	emitMu sync.Mutex

	state          State
	reminderMinute int

	clock    Clock
	tasks    TaskProvider
	settings SettingsProvider
	notifier Notifier
	logger   *slog.Logger

	listeners    map[int]Listener
	nextListener int
}

func NewMachine(opts Options) *Machine {
	m := &Machine{
		clock:     opts.Clock,
		tasks:     opts.Tasks,
		settings:  opts.Settings,
		notifier:  opts.Notifier,
		logger:    opts.Logger,
		listeners: make(map[int]Listener),
	}
	if m.clock == nil {
		m.clock = SystemClock
	}
	if m.notifier == nil {
		m.notifier = nopNotifier{}
	}
	if m.logger == nil {
		m.logger = slog.Default()
	}
	return m
}

// txn collects what a transition produced while the lock is held.
type txn struct {
	now        time.Time
	cause      string
	changed    bool
	transition bool
	effects    []func(ctx context.Context)
	err        error
}

func (t *txn) mark(transition bool) {
	t.changed = true
	if transition {
		t.transition = true
	}
}

func (t *txn) fail(err error) {
	if err != nil && t.err == nil {
		t.err = err
	}
}

func (m *Machine) run(ctx context.Context, cause string, now time.Time, fn func(t *txn)) error {
	m.mu.Lock()
	t := &txn{now: now, cause: cause}
	prevPhase := m.state.Phase()
	fn(t)

	var update Update
	var listeners []Listener
	if t.changed {
		update = Update{State: m.state.Clone(), Cause: cause, Transition: t.transition, At: now}
		listeners = m.listenerList()
		if next := m.state.Phase(); next != prevPhase {
			m.logger.Debug("timer transition", "cause", cause, "from", prevPhase, "to", next)
		}
	}

	// Hand over to emitMu before releasing mu so updates reach listeners
	// in the order the mutations happened.
	m.emitMu.Lock()
	m.mu.Unlock()
	defer m.emitMu.Unlock()

	for _, l := range listeners {
		l(ctx, update)
	}
	for _, effect := range t.effects {
		effect(ctx)
	}
	return t.err
}

func (m *Machine) listenerList() []Listener {
	ids := make([]int, 0, len(m.listeners))
	for id := range m.listeners {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	out := make([]Listener, 0, len(ids))
	for _, id := range ids {
		out = append(out, m.listeners[id])
	}
	return out
}

// Subscribe registers a listener and returns its cancel function.
func (m *Machine) Subscribe(l Listener) func() {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := m.nextListener
	m.nextListener++
	m.listeners[id] = l
	return func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		delete(m.listeners, id)
	}
}

func (m *Machine) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state.Clone()
}

func (m *Machine) Snapshot(now time.Time) Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	return SnapshotOf(m.state, now)
}

// Restore installs a recovered state without re-persisting it.
func (m *Machine) Restore(ctx context.Context, st State) {
	_ = m.run(ctx, "restore", m.clock.Now(), func(t *txn) {
		m.state = st.Clone()
		m.state.TotalPausedSeconds = sanitizeSeconds(m.state.TotalPausedSeconds)
		overtimeMinutes := OvertimeSeconds(m.state.TimeLeft) / 60
		m.reminderMinute = overtimeMinutes - overtimeMinutes%OvertimeReminderMinutes
		t.mark(false)
	})
}

// Start begins a work session for task. A session already in progress is
// finalized as stopped first.
func (m *Machine) Start(ctx context.Context, task *model.Task) error {
	if task == nil {
		return nil
	}
	if task.Completed {
		return ErrTaskCompleted
	}
	return m.run(ctx, "start", m.clock.Now(), func(t *txn) {
		if m.state.CurrentSession != nil {
			t.fail(m.finalize(ctx, t, false))
		}
		settings := m.loadSettings(ctx)
		m.begin(t, task.ID, model.SessionWork, settings)
	})
}

func (m *Machine) Pause(ctx context.Context) error {
	return m.run(ctx, "pause", m.clock.Now(), func(t *txn) {
		if m.state.CurrentSession == nil || !m.state.IsRunning {
			return
		}
		now := t.now
		m.state.IsRunning = false
		m.state.PausedAt = &now
		m.state.TimeLeft = m.state.Remaining(now)
		t.mark(true)
	})
}

func (m *Machine) Resume(ctx context.Context) error {
	return m.run(ctx, "resume", m.clock.Now(), func(t *txn) {
		if m.state.CurrentSession == nil || m.state.IsRunning || m.state.JustCompleted {
			return
		}
		if m.state.PausedAt != nil {
			m.state.TotalPausedSeconds = AccumulatePause(m.state.TotalPausedSeconds, *m.state.PausedAt, t.now)
		} else {
			m.state.TotalPausedSeconds = sanitizeSeconds(m.state.TotalPausedSeconds)
		}
		if m.state.OvertimeAutoPaused != nil {
			m.state.OvertimeAcknowledged = true
		}
		m.state.PausedAt = nil
		m.state.OvertimeAutoPaused = nil
		m.state.IsRunning = true
		m.state.TimeLeft = m.state.Remaining(t.now)
		t.mark(true)
	})
}

// Stop finalizes the current session as not completed and returns to idle.
func (m *Machine) Stop(ctx context.Context) error {
	return m.run(ctx, "stop", m.clock.Now(), func(t *txn) {
		m.stop(ctx, t)
	})
}

// StopIfTask stops the timer when taskID owns it.
func (m *Machine) StopIfTask(ctx context.Context, taskID string) error {
	return m.run(ctx, "task_removed", m.clock.Now(), func(t *txn) {
		if m.state.TaskID != taskID {
			return
		}
		m.stop(ctx, t)
	})
}

func (m *Machine) stop(ctx context.Context, t *txn) {
	if m.state.IsIdle() {
		return
	}
	if m.state.CurrentSession != nil {
		t.fail(m.finalize(ctx, t, false))
	}
	m.reset()
	t.mark(true)
}

// CompleteWorkSession finalizes a work session and moves on to a break, or
// to task completion when the estimate is reached.
func (m *Machine) CompleteWorkSession(ctx context.Context) error {
	return m.run(ctx, "complete_work", m.clock.Now(), func(t *txn) {
		if m.state.CurrentSession == nil || m.state.SessionType != model.SessionWork {
			return
		}
		m.completeWork(ctx, t)
	})
}

// SkipBreak ends a break early. The break still counts as completed.
func (m *Machine) SkipBreak(ctx context.Context) error {
	return m.run(ctx, "skip_break", m.clock.Now(), func(t *txn) {
		if !m.state.SessionType.IsBreak() || m.state.TaskComplete {
			return
		}
		switch {
		case m.state.CurrentSession != nil:
			t.fail(m.finalize(ctx, t, true))
			m.afterBreak(ctx, t)
		case m.state.JustCompleted:
			m.afterBreak(ctx, t)
		}
	})
}

// StartNextSession is the user's "continue" action from any session or from
// the just-completed screen.
func (m *Machine) StartNextSession(ctx context.Context) error {
	return m.run(ctx, "next", m.clock.Now(), func(t *txn) {
		if m.state.TaskComplete {
			return
		}
		switch {
		case m.state.CurrentSession != nil && m.state.SessionType == model.SessionWork:
			m.completeWork(ctx, t)
		case m.state.CurrentSession != nil:
			t.fail(m.finalize(ctx, t, true))
			m.afterBreak(ctx, t)
		case m.state.JustCompleted && m.state.SessionType.IsBreak():
			m.afterBreak(ctx, t)
		case m.state.JustCompleted:
			m.startBreak(ctx, t)
		}
	})
}

// Tick is the periodic driver. It recomputes the remaining time and lets the
// overtime guard act.
func (m *Machine) Tick(ctx context.Context, now time.Time) error {
	return m.run(ctx, "tick", now, func(t *txn) {
		m.evaluate(ctx, t)
	})
}

// Refresh corrects the displayed value after ticks were suspended. It shares
// the tick evaluation, so notifications already sent are not repeated.
func (m *Machine) Refresh(ctx context.Context, now time.Time) error {
	return m.run(ctx, "refresh", now, func(t *txn) {
		m.evaluate(ctx, t)
	})
}

func (m *Machine) evaluate(ctx context.Context, t *txn) {
	now := t.now
	if m.state.TaskComplete {
		if m.state.CompletedAt == nil || now.Sub(*m.state.CompletedAt) >= TaskCompleteWindow {
			m.reset()
			t.mark(true)
		}
		return
	}
	if m.state.CurrentSession == nil {
		return
	}

	remaining := m.state.Remaining(now)
	if !m.state.IsRunning {
		if remaining != m.state.TimeLeft {
			m.state.TimeLeft = remaining
			t.mark(false)
		}
		return
	}

	if m.state.SessionType.IsBreak() && remaining <= 0 {
		t.fail(m.finalize(ctx, t, true))
		sessionType := m.state.SessionType
		taskID := m.state.TaskID
		m.reset()
		m.state.SessionType = sessionType
		m.state.TaskID = taskID
		m.state.JustCompleted = true
		m.notice(t, KindBreakComplete, "Break Complete!", "Break time is over. Ready to get back to work?", SoundBreakComplete)
		t.mark(true)
		return
	}

	if remaining <= 0 && m.state.TimeLeft > 0 {
		m.notice(t, KindWorkComplete, "Pomodoro Complete!",
			"Great job! You completed a focus session. You can continue working or take a break!",
			SoundPomodoroComplete)
	}

	if m.guard(t, remaining) {
		return
	}

	if remaining != m.state.TimeLeft {
		m.state.TimeLeft = remaining
		t.mark(false)
	}
}

func (m *Machine) completeWork(ctx context.Context, t *txn) {
	t.fail(m.finalize(ctx, t, true))
	taskID := m.state.TaskID

	task, completed, ok := m.taskProgress(ctx, t, taskID)
	if !ok {
		return
	}
	if completed >= task.SessionEstimate() {
		m.enterTaskComplete(t, task)
		return
	}

	settings := m.loadSettings(ctx)
	m.begin(t, taskID, breakTypeFor(completed, settings), settings)
}

func (m *Machine) startBreak(ctx context.Context, t *txn) {
	taskID := m.state.TaskID
	_, completed, ok := m.taskProgress(ctx, t, taskID)
	if !ok {
		return
	}
	settings := m.loadSettings(ctx)
	m.begin(t, taskID, breakTypeFor(completed, settings), settings)
}

func (m *Machine) afterBreak(ctx context.Context, t *txn) {
	taskID := m.state.TaskID
	task, completed, ok := m.taskProgress(ctx, t, taskID)
	if !ok {
		return
	}
	if completed >= task.SessionEstimate() {
		m.enterTaskComplete(t, task)
		return
	}
	m.begin(t, taskID, model.SessionWork, m.loadSettings(ctx))
}

// taskProgress resolves the task and its completed work count. A task that
// is gone or completed sends the machine back to idle.
func (m *Machine) taskProgress(ctx context.Context, t *txn, taskID string) (*model.Task, int, bool) {
	if m.tasks == nil {
		m.reset()
		t.mark(true)
		return nil, 0, false
	}
	task, err := m.tasks.FindTask(ctx, taskID)
	if err != nil {
		t.fail(fmt.Errorf("find task: %w", err))
	}
	if task == nil || task.Completed {
		m.reset()
		t.mark(true)
		return nil, 0, false
	}
	completed, err := m.tasks.CompletedWorkSessions(ctx, taskID)
	if err != nil {
		m.logger.Warn("count completed sessions failed", "task", taskID, "error", err)
		completed = 0
	}
	return task, completed, true
}

func (m *Machine) enterTaskComplete(t *txn, task *model.Task) {
	now := t.now
	m.reset()
	m.state.JustCompleted = true
	m.state.TaskComplete = true
	m.state.CompletedAt = &now
	m.state.SessionType = model.SessionWork
	m.state.TaskID = task.ID
	m.notice(t, KindTaskComplete, "Task Complete!",
		fmt.Sprintf("Congratulations! You completed all pomodoros for %q", task.Title),
		SoundTaskComplete)
	t.mark(true)
}

func breakTypeFor(completedWork int, settings model.Settings) model.SessionType {
	if settings.SessionsUntilLongBreak > 0 && completedWork > 0 && completedWork%settings.SessionsUntilLongBreak == 0 {
		return model.SessionLongBreak
	}
	return model.SessionShortBreak
}

func (m *Machine) begin(t *txn, taskID string, sessionType model.SessionType, settings model.Settings) {
	duration := settings.DurationFor(sessionType)
	m.state = State{
		IsRunning: true,
		CurrentSession: &model.Session{
			ID:       uuid.NewString(),
			TaskID:   taskID,
			Started:  t.now,
			Duration: duration,
			Type:     sessionType,
		},
		SessionType: sessionType,
		TaskID:      taskID,
		TimeLeft:    duration * 60,
	}
	m.reminderMinute = 0
	t.mark(true)
}

func (m *Machine) reset() {
	m.state = State{}
	m.reminderMinute = 0
}

// finalize closes the current session and appends it to the task history.
// The in-memory transition proceeds even when the append fails.
func (m *Machine) finalize(ctx context.Context, t *txn, completed bool) error {
	if m.state.CurrentSession == nil {
		return nil
	}
	session := *m.state.CurrentSession
	ended := t.now
	session.Ended = &ended
	session.Completed = completed
	m.state.CurrentSession = nil
	t.mark(true)

	if m.tasks == nil {
		return nil
	}
	if err := m.tasks.AppendSession(ctx, session); err != nil {
		m.logger.Warn("append session failed", "session", session.ID, "task", session.TaskID, "error", err)
		return fmt.Errorf("append session: %w", err)
	}
	return nil
}

func (m *Machine) loadSettings(ctx context.Context) model.Settings {
	if m.settings == nil {
		return model.DefaultSettings("")
	}
	settings, err := m.settings.Settings(ctx)
	if err != nil {
		m.logger.Warn("load settings failed, using defaults", "error", err)
		return model.DefaultSettings("")
	}
	return settings
}

// notice queues a notification and, when sound is enabled, its sound cue.
// Both are dispatched after the lock is released.
func (m *Machine) notice(t *txn, kind, title, body, sound string) {
	t.effects = append(t.effects, func(ctx context.Context) {
		m.notifier.Notify(kind, title, body)
		if sound == "" {
			return
		}
		if settings := m.loadSettings(ctx); settings.SoundEnabled {
			m.notifier.PlaySound(sound)
		}
	})
}
