package model

import "time"

type SessionType string

const (
	SessionWork       SessionType = "work"
	SessionShortBreak SessionType = "shortBreak"
	SessionLongBreak  SessionType = "longBreak"
)

func (t SessionType) IsBreak() bool {
	return t == SessionShortBreak || t == SessionLongBreak
}

func (t SessionType) Valid() bool {
	return t == SessionWork || t.IsBreak()
}

const (
	DefaultWorkMinutes            = 30
	DefaultShortBreakMinutes      = 5
	DefaultLongBreakMinutes       = 10
	DefaultSessionsUntilLongBreak = 4
	DefaultEstimatedSessions      = 3
)

// Session is one work or break interval. Once Ended is set the session is a
// historical record and is never mutated again.
type Session struct {
	ID        string      `json:"id"`
	TaskID    string      `json:"taskId"`
	Started   time.Time   `json:"started"`
	Ended     *time.Time  `json:"ended,omitempty"`
	Duration  int         `json:"duration"`
	Type      SessionType `json:"type"`
	Completed bool        `json:"completed"`
}

type Settings struct {
	UserID                 string    `json:"-"`
	WorkMinutes            int       `json:"workDurationMinutes"`
	ShortBreakMinutes      int       `json:"shortBreakDurationMinutes"`
	LongBreakMinutes       int       `json:"longBreakDurationMinutes"`
	SessionsUntilLongBreak int       `json:"sessionsUntilLongBreak"`
	SoundEnabled           bool      `json:"soundEnabled"`
	UpdatedAt              time.Time `json:"updatedAt"`
}

func DefaultSettings(userID string) Settings {
	return Settings{
		UserID:                 userID,
		WorkMinutes:            DefaultWorkMinutes,
		ShortBreakMinutes:      DefaultShortBreakMinutes,
		LongBreakMinutes:       DefaultLongBreakMinutes,
		SessionsUntilLongBreak: DefaultSessionsUntilLongBreak,
		SoundEnabled:           true,
	}
}

// DurationFor returns the configured length in minutes for a session type.
func (s Settings) DurationFor(t SessionType) int {
	switch t {
	case SessionShortBreak:
		return s.ShortBreakMinutes
	case SessionLongBreak:
		return s.LongBreakMinutes
	default:
		return s.WorkMinutes
	}
}
