package persistence

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"time"

	"focusboard/backend/internal/model"
	"focusboard/backend/internal/timer"
)

// maxDuration bounds the session length accepted from storage, in minutes.
const maxDuration = 1440

const maxDisplayedSeconds = float64(RunawayFactor+1) * maxDuration * 60

// Record is the flat, durable layout of a timer state. Instants are epoch
// milliseconds.
type Record struct {
	IsRunning            bool            `json:"isRunning"`
	TimeLeft             any             `json:"timeLeft"`
	CurrentSession       *SessionRecord  `json:"currentSession"`
	SessionType          string          `json:"sessionType"`
	JustCompleted        bool            `json:"justCompleted"`
	CurrentTaskID        string          `json:"currentTaskId,omitempty"`
	StartedAt            *int64          `json:"startedAt"`
	PausedAt             *int64          `json:"pausedAt"`
	TotalPausedSeconds   any             `json:"totalPausedSeconds"`
	OvertimeAutoPaused   *OvertimeRecord `json:"overtimeAutoPaused"`
	TaskComplete         bool            `json:"taskComplete,omitempty"`
	CompletedAt          *int64          `json:"completedAt,omitempty"`
	OvertimeAcknowledged bool            `json:"overtimeAcknowledged,omitempty"`
}

type SessionRecord struct {
	ID        string `json:"id"`
	TaskID    string `json:"taskId"`
	Started   int64  `json:"started"`
	Ended     *int64 `json:"ended,omitempty"`
	Duration  int    `json:"duration"`
	Type      string `json:"type"`
	Completed bool   `json:"completed"`
}

type OvertimeRecord struct {
	SessionType     string `json:"sessionType"`
	TriggeredAt     int64  `json:"triggeredAt"`
	OvertimeSeconds int    `json:"overtimeSeconds"`
}

func millis(t time.Time) int64 { return t.UnixMilli() }

func millisPtr(t *time.Time) *int64 {
	if t == nil {
		return nil
	}
	v := t.UnixMilli()
	return &v
}

func fromMillis(v int64) time.Time { return time.UnixMilli(v).UTC() }

func fromMillisPtr(v *int64) *time.Time {
	if v == nil {
		return nil
	}
	t := fromMillis(*v)
	return &t
}

// NewRecord flattens a state.
func NewRecord(st timer.State) Record {
	rec := Record{
		IsRunning:            st.IsRunning,
		TimeLeft:             st.TimeLeft,
		SessionType:          string(st.SessionType),
		JustCompleted:        st.JustCompleted,
		CurrentTaskID:        st.TaskID,
		PausedAt:             millisPtr(st.PausedAt),
		TotalPausedSeconds:   st.TotalPausedSeconds,
		TaskComplete:         st.TaskComplete,
		CompletedAt:          millisPtr(st.CompletedAt),
		OvertimeAcknowledged: st.OvertimeAcknowledged,
	}
	if s := st.CurrentSession; s != nil {
		started := millis(s.Started)
		rec.StartedAt = &started
		rec.CurrentSession = &SessionRecord{
			ID:        s.ID,
			TaskID:    s.TaskID,
			Started:   started,
			Ended:     millisPtr(s.Ended),
			Duration:  s.Duration,
			Type:      string(s.Type),
			Completed: s.Completed,
		}
	}
	if o := st.OvertimeAutoPaused; o != nil {
		rec.OvertimeAutoPaused = &OvertimeRecord{
			SessionType:     string(o.SessionType),
			TriggeredAt:     millis(o.TriggeredAt),
			OvertimeSeconds: o.OvertimeSeconds,
		}
	}
	return rec
}

// State rebuilds the timer state. The paused total is sanitized; the stored
// countdown is carried only as the last displayed value.
func (r Record) State() timer.State {
	st := timer.State{
		IsRunning:            r.IsRunning,
		SessionType:          model.SessionType(r.SessionType),
		JustCompleted:        r.JustCompleted,
		TaskID:               r.CurrentTaskID,
		PausedAt:             fromMillisPtr(r.PausedAt),
		TotalPausedSeconds:   timer.SanitizePausedSeconds(r.TotalPausedSeconds),
		TaskComplete:         r.TaskComplete,
		CompletedAt:          fromMillisPtr(r.CompletedAt),
		OvertimeAcknowledged: r.OvertimeAcknowledged,
		TimeLeft:             lastDisplayed(r.TimeLeft),
	}
	if s := r.CurrentSession; s != nil {
		started := s.Started
		if started == 0 && r.StartedAt != nil {
			started = *r.StartedAt
		}
		st.CurrentSession = &model.Session{
			ID:        s.ID,
			TaskID:    s.TaskID,
			Started:   fromMillis(started),
			Ended:     fromMillisPtr(s.Ended),
			Duration:  s.Duration,
			Type:      model.SessionType(s.Type),
			Completed: s.Completed,
		}
		if st.TaskID == "" {
			st.TaskID = s.TaskID
		}
		if st.SessionType == "" {
			st.SessionType = st.CurrentSession.Type
		}
	}
	if o := r.OvertimeAutoPaused; o != nil {
		st.OvertimeAutoPaused = &timer.OvertimeRecord{
			SessionType:     model.SessionType(o.SessionType),
			TriggeredAt:     fromMillis(o.TriggeredAt),
			OvertimeSeconds: o.OvertimeSeconds,
		}
	}
	return st
}

// lastDisplayed reads the stored countdown. It is never trusted, so any
// numeric form is accepted and anything else reads as zero.
func lastDisplayed(value any) int {
	var f float64
	switch v := value.(type) {
	case int:
		return v
	case int64:
		f = float64(v)
	case float64:
		f = v
	case json.Number:
		parsed, err := v.Float64()
		if err != nil {
			return 0
		}
		f = parsed
	default:
		return 0
	}
	if math.IsNaN(f) || math.IsInf(f, 0) || math.Abs(f) > maxDisplayedSeconds {
		return 0
	}
	return int(math.Round(f))
}

// TaskID is the task the record belongs to, if any.
func (r Record) TaskID() string {
	if r.CurrentSession != nil && r.CurrentSession.TaskID != "" {
		return r.CurrentSession.TaskID
	}
	return r.CurrentTaskID
}

func Encode(st timer.State) ([]byte, error) {
	data, err := json.Marshal(NewRecord(st))
	if err != nil {
		return nil, fmt.Errorf("encode timer record: %w", err)
	}
	return data, nil
}

// Decode validates raw against the record schema before decoding it.
func Decode(raw []byte) (Record, error) {
	if err := validate(raw); err != nil {
		return Record{}, err
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var rec Record
	if err := dec.Decode(&rec); err != nil {
		return Record{}, fmt.Errorf("decode timer record: %w", err)
	}
	return rec, nil
}
