package timer

import (
	"time"

	"focusboard/backend/internal/model"
)

type Phase string

const (
	PhaseIdle               Phase = "idle"
	PhaseRunning            Phase = "running"
	PhasePaused             Phase = "paused"
	PhaseJustCompleted      Phase = "justCompleted"
	PhaseOvertimeAutoPaused Phase = "overtimeAutoPaused"
	PhaseTaskComplete       Phase = "taskComplete"
)

// OvertimeRecord is set when the overtime guard force-pauses a session.
type OvertimeRecord struct {
	SessionType     model.SessionType `json:"sessionType"`
	TriggeredAt     time.Time         `json:"triggeredAt"`
	OvertimeSeconds int               `json:"overtimeSeconds"`
}

// State is the canonical timer state of one user.
type State struct {
	IsRunning          bool
	CurrentSession     *model.Session
	SessionType        model.SessionType
	JustCompleted      bool
	TaskComplete       bool
	CompletedAt        *time.Time
	TaskID             string
	PausedAt           *time.Time
	TotalPausedSeconds float64
	OvertimeAutoPaused *OvertimeRecord
	// OvertimeAcknowledged is set once the user resumes after an auto-pause;
	// the guard does not fire twice for the same session.
	OvertimeAcknowledged bool
	// TimeLeft is the last reported remaining value. It is display state
	// used to detect the zero crossing, never a source of truth.
	TimeLeft int
}

// IsIdle reports whether there is nothing worth keeping for this state.
func (s State) IsIdle() bool {
	return s.CurrentSession == nil && !s.JustCompleted
}

func (s State) Phase() Phase {
	switch {
	case s.IsIdle():
		return PhaseIdle
	case s.TaskComplete:
		return PhaseTaskComplete
	case s.JustCompleted:
		return PhaseJustCompleted
	case s.IsRunning:
		return PhaseRunning
	case s.OvertimeAutoPaused != nil:
		return PhaseOvertimeAutoPaused
	default:
		return PhasePaused
	}
}

// Remaining recomputes the remaining seconds at now from the anchors.
func (s State) Remaining(now time.Time) int {
	if s.CurrentSession == nil {
		return 0
	}
	return ComputeRemainingSeconds(
		s.CurrentSession.Started,
		s.CurrentSession.Duration,
		s.TotalPausedSeconds,
		s.IsRunning,
		s.PausedAt,
		now,
	)
}

// Clone returns a deep copy safe to hand to other goroutines.
func (s State) Clone() State {
	out := s
	if s.CurrentSession != nil {
		session := *s.CurrentSession
		if s.CurrentSession.Ended != nil {
			ended := *s.CurrentSession.Ended
			session.Ended = &ended
		}
		out.CurrentSession = &session
	}
	if s.CompletedAt != nil {
		completedAt := *s.CompletedAt
		out.CompletedAt = &completedAt
	}
	if s.PausedAt != nil {
		pausedAt := *s.PausedAt
		out.PausedAt = &pausedAt
	}
	if s.OvertimeAutoPaused != nil {
		record := *s.OvertimeAutoPaused
		out.OvertimeAutoPaused = &record
	}
	return out
}

type OvertimeInfo struct {
	Seconds     int        `json:"seconds"`
	AutoPaused  bool       `json:"autoPaused"`
	TriggeredAt *time.Time `json:"triggeredAt,omitempty"`
}

// Snapshot is the read-only view handed to renderers.
type Snapshot struct {
	Phase            Phase             `json:"phase"`
	IsRunning        bool              `json:"isRunning"`
	RemainingSeconds int               `json:"remainingSeconds"`
	SessionType      model.SessionType `json:"sessionType"`
	JustCompleted    bool              `json:"justCompleted"`
	TaskComplete     bool              `json:"taskComplete"`
	TaskID           string            `json:"taskId,omitempty"`
	SessionID        string            `json:"sessionId,omitempty"`
	DurationMinutes  int               `json:"durationMinutes,omitempty"`
	StartedAt        *time.Time        `json:"startedAt,omitempty"`
	OvertimeInfo     *OvertimeInfo     `json:"overtimeInfo,omitempty"`
}

// SnapshotOf derives the rendering view of a state at now.
func SnapshotOf(s State, now time.Time) Snapshot {
	snap := Snapshot{
		Phase:         s.Phase(),
		IsRunning:     s.IsRunning,
		SessionType:   s.SessionType,
		JustCompleted: s.JustCompleted,
		TaskComplete:  s.TaskComplete,
		TaskID:        s.TaskID,
	}
	if snap.SessionType == "" {
		snap.SessionType = model.SessionWork
	}
	if s.CurrentSession == nil {
		return snap
	}

	started := s.CurrentSession.Started
	snap.SessionID = s.CurrentSession.ID
	snap.DurationMinutes = s.CurrentSession.Duration
	snap.StartedAt = &started
	snap.RemainingSeconds = s.Remaining(now)

	if s.OvertimeAutoPaused != nil {
		triggeredAt := s.OvertimeAutoPaused.TriggeredAt
		snap.OvertimeInfo = &OvertimeInfo{
			Seconds:     OvertimeSeconds(snap.RemainingSeconds),
			AutoPaused:  true,
			TriggeredAt: &triggeredAt,
		}
	} else if snap.RemainingSeconds < 0 {
		snap.OvertimeInfo = &OvertimeInfo{Seconds: OvertimeSeconds(snap.RemainingSeconds)}
	}
	return snap
}
