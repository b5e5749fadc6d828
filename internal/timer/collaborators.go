package timer

import (
	"context"
	"time"

	"focusboard/backend/internal/model"
)

type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now().UTC() }

// SystemClock is the wall clock in UTC.
var SystemClock Clock = systemClock{}

// TaskProvider is the task store as seen by the engine. FindTask returns a
// nil task and nil error when the task does not exist.
type TaskProvider interface {
	FindTask(ctx context.Context, taskID string) (*model.Task, error)
	CompletedWorkSessions(ctx context.Context, taskID string) (int, error)
	AppendSession(ctx context.Context, session model.Session) error
}

type SettingsProvider interface {
	Settings(ctx context.Context) (model.Settings, error)
}

// Notifier is best-effort; implementations swallow their own failures.
type Notifier interface {
	Notify(kind, title, body string)
	PlaySound(key string)
}

// Update is delivered to listeners after every state change. Transition is
// false when only the displayed remaining value moved.
type Update struct {
	State      State
	Cause      string
	Transition bool
	At         time.Time
}

type Listener func(ctx context.Context, update Update)

const (
	KindWorkComplete       = "work_complete"
	KindBreakComplete      = "break_complete"
	KindTaskComplete       = "task_complete"
	KindOvertimeReminder   = "overtime_reminder"
	KindOvertimeAutoPaused = "overtime_auto_paused"
	KindSessionOverdue     = "session_overdue"
	KindSessionAutoStopped = "session_auto_stopped"
	KindDebug              = "debug"
)

const (
	SoundPomodoroComplete      = "pomodoro_complete"
	SoundBreakComplete         = "break_complete"
	SoundTaskComplete          = "task_complete"
	SoundOvertimeReminder      = "overtime_reminder"
	SoundBreakOvertimeReminder = "break_overtime_reminder"
)

type nopNotifier struct{}

func (nopNotifier) Notify(string, string, string) {}
func (nopNotifier) PlaySound(string)              {}
