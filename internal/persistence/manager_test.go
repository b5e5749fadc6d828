package persistence

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"focusboard/backend/internal/model"
	"focusboard/backend/internal/timer"
)

type memoryStore struct {
	mu   sync.Mutex
	data map[string][]byte
}

func newMemoryStore() *memoryStore {
	return &memoryStore{data: make(map[string][]byte)}
}

func (s *memoryStore) Get(_ context.Context, key string) ([]byte, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.data[key]
	return v, ok, nil
}

func (s *memoryStore) Put(_ context.Context, key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[key] = append([]byte(nil), value...)
	return nil
}

func (s *memoryStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, key)
	return nil
}

func (s *memoryStore) Keys(_ context.Context, prefix string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var keys []string
	for k := range s.data {
		if strings.HasPrefix(k, prefix) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys, nil
}

type fixedClock struct{ now time.Time }

func (c *fixedClock) Now() time.Time { return c.now }

type taskMap map[string]*model.Task

func (m taskMap) FindTask(_ context.Context, id string) (*model.Task, error) {
	task, ok := m[id]
	if !ok {
		return nil, nil
	}
	return task, nil
}

type recordingNotifier struct {
	kinds []string
}

func (n *recordingNotifier) Notify(kind, _, _ string) { n.kinds = append(n.kinds, kind) }
func (n *recordingNotifier) PlaySound(string)         {}

var baseTime = time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)

func workState(taskID string, started time.Time, duration int) timer.State {
	return timer.State{
		IsRunning: true,
		CurrentSession: &model.Session{
			ID:       "s1",
			TaskID:   taskID,
			Started:  started,
			Duration: duration,
			Type:     model.SessionWork,
		},
		SessionType: model.SessionWork,
		TaskID:      taskID,
		TimeLeft:    duration * 60,
	}
}

func TestLoadRestoresAndRecomputes(t *testing.T) {
	store := newMemoryStore()
	clock := &fixedClock{now: baseTime}
	manager := NewManager(store, clock, nil)
	ctx := context.Background()
	tasks := taskMap{"t1": {ID: "t1"}}

	st := workState("t1", baseTime, 25)
	st.TotalPausedSeconds = 60
	if err := manager.Save(ctx, "u1", st); err != nil {
		t.Fatalf("save: %v", err)
	}

	clock.now = baseTime.Add(10 * time.Minute)
	restored, outcome, err := manager.Load(ctx, "u1", tasks, nil)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if outcome != OutcomeRestored {
		t.Fatalf("expected restored, got %s", outcome)
	}
	// 25m - (10m - 60s) = 16m
	if restored.TimeLeft != 960 {
		t.Fatalf("expected recomputed 960, got %d", restored.TimeLeft)
	}
	if !restored.CurrentSession.Started.Equal(baseTime) {
		t.Fatalf("expected start instant kept, got %v", restored.CurrentSession.Started)
	}
}

func TestLoadKeepsPausedValueFrozen(t *testing.T) {
	store := newMemoryStore()
	clock := &fixedClock{now: baseTime}
	manager := NewManager(store, clock, nil)
	ctx := context.Background()

	st := workState("t1", baseTime, 25)
	pausedAt := baseTime.Add(5 * time.Minute)
	st.IsRunning = false
	st.PausedAt = &pausedAt
	_ = manager.Save(ctx, "u1", st)

	clock.now = baseTime.Add(3 * time.Hour)
	restored, outcome, err := manager.Load(ctx, "u1", taskMap{"t1": {ID: "t1"}}, nil)
	if err != nil || outcome != OutcomeRestored {
		t.Fatalf("expected restore, got %s %v", outcome, err)
	}
	if restored.TimeLeft != 1200 {
		t.Fatalf("expected frozen 1200, got %d", restored.TimeLeft)
	}
}

func TestLoadRejectsOrphans(t *testing.T) {
	ctx := context.Background()
	for name, tasks := range map[string]taskMap{
		"deleted":   {},
		"completed": {"t1": {ID: "t1", Completed: true}},
	} {
		t.Run(name, func(t *testing.T) {
			store := newMemoryStore()
			manager := NewManager(store, &fixedClock{now: baseTime.Add(time.Minute)}, nil)
			_ = manager.Save(ctx, "u1", workState("t1", baseTime, 25))

			st, outcome, err := manager.Load(ctx, "u1", tasks, nil)
			if err != nil {
				t.Fatalf("load: %v", err)
			}
			if outcome != OutcomeOrphaned || !st.IsIdle() {
				t.Fatalf("expected orphan discard, got %s", outcome)
			}
			if _, ok, _ := store.Get(ctx, Key("u1")); ok {
				t.Fatal("expected slot deleted")
			}
		})
	}
}

func TestLoadDiscardsRunaway(t *testing.T) {
	store := newMemoryStore()
	clock := &fixedClock{now: baseTime.Add(80 * time.Minute)}
	manager := NewManager(store, clock, nil)
	ctx := context.Background()
	notifier := &recordingNotifier{}

	_ = manager.Save(ctx, "u1", workState("t1", baseTime, 25))
	st, outcome, err := manager.Load(ctx, "u1", taskMap{"t1": {ID: "t1"}}, notifier)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if outcome != OutcomeRunaway || !st.IsIdle() {
		t.Fatalf("expected runaway discard, got %s", outcome)
	}
	if len(notifier.kinds) != 1 || notifier.kinds[0] != timer.KindSessionAutoStopped {
		t.Fatalf("expected one auto-stop notice, got %v", notifier.kinds)
	}
}

func TestLoadWarnsOverdueWork(t *testing.T) {
	store := newMemoryStore()
	clock := &fixedClock{now: baseTime.Add(30 * time.Minute)}
	manager := NewManager(store, clock, nil)
	ctx := context.Background()
	notifier := &recordingNotifier{}

	_ = manager.Save(ctx, "u1", workState("t1", baseTime, 25))
	st, outcome, _ := manager.Load(ctx, "u1", taskMap{"t1": {ID: "t1"}}, notifier)
	if outcome != OutcomeRestored || st.TimeLeft != -300 {
		t.Fatalf("expected restored overdue session, got %s %d", outcome, st.TimeLeft)
	}
	if len(notifier.kinds) != 1 || notifier.kinds[0] != timer.KindSessionOverdue {
		t.Fatalf("expected overdue notice, got %v", notifier.kinds)
	}
}

func TestLoadCorruptRecord(t *testing.T) {
	ctx := context.Background()
	cases := map[string]string{
		"not json":      `{"isRunning": tru`,
		"wrong type":    `{"isRunning": "yes", "sessionType": "work", "justCompleted": false}`,
		"bad session":   `{"isRunning": true, "sessionType": "work", "justCompleted": false, "currentSession": {"id": "s1"}}`,
		"unknown phase": `{"isRunning": true, "sessionType": "nap", "justCompleted": false}`,
		"huge duration": `{"isRunning": true, "sessionType": "work", "justCompleted": false,
			"currentSession": {"id": "s1", "taskId": "t1", "started": 1740819600000, "duration": 9007199254740991, "type": "work"}}`,
	}
	for name, raw := range cases {
		t.Run(name, func(t *testing.T) {
			store := newMemoryStore()
			_ = store.Put(ctx, Key("u1"), []byte(raw))
			manager := NewManager(store, &fixedClock{now: baseTime}, nil)

			st, outcome, err := manager.Load(ctx, "u1", taskMap{}, nil)
			if err != nil {
				t.Fatalf("expected corrupt records to be swallowed, got %v", err)
			}
			if outcome != OutcomeCorrupt || !st.IsIdle() {
				t.Fatalf("expected corrupt, got %s", outcome)
			}
			if _, ok, _ := store.Get(ctx, Key("u1")); ok {
				t.Fatal("expected slot deleted")
			}
		})
	}
}

func TestLoadIgnoresFractionalCountdown(t *testing.T) {
	ctx := context.Background()
	raw := `{"isRunning": true, "sessionType": "work", "justCompleted": false, "timeLeft": 1499.5,
		"currentTaskId": "t1",
		"currentSession": {"id": "s1", "taskId": "t1", "started": 1740819600000, "duration": 25, "type": "work"}}`
	store := newMemoryStore()
	_ = store.Put(ctx, Key("u1"), []byte(raw))
	manager := NewManager(store, &fixedClock{now: baseTime.Add(time.Minute)}, nil)

	st, outcome, err := manager.Load(ctx, "u1", taskMap{"t1": {ID: "t1"}}, nil)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if outcome != OutcomeRestored {
		t.Fatalf("expected restored, got %s", outcome)
	}
	if st.TimeLeft != 1440 {
		t.Fatalf("expected countdown recomputed to 1440, got %d", st.TimeLeft)
	}
	if _, ok, _ := store.Get(ctx, Key("u1")); !ok {
		t.Fatal("expected slot kept")
	}
}

func TestRecordCountdownForms(t *testing.T) {
	cases := []struct {
		raw  string
		want int
	}{
		{`1499.5`, 1500},
		{`-75`, -75},
		{`1e300`, 0},
	}
	for _, tc := range cases {
		raw := `{"isRunning": false, "sessionType": "work", "justCompleted": true, "timeLeft": ` + tc.raw + `}`
		rec, err := Decode([]byte(raw))
		if err != nil {
			t.Fatalf("decode %s: %v", tc.raw, err)
		}
		if got := rec.State().TimeLeft; got != tc.want {
			t.Fatalf("timeLeft %s: expected %d, got %d", tc.raw, tc.want, got)
		}
	}
}

func TestDecodeSanitizesPausedTotal(t *testing.T) {
	raw := `{"isRunning": true, "sessionType": "work", "justCompleted": false, "totalPausedSeconds": "lots",
		"currentSession": {"id": "s1", "taskId": "t1", "started": 1740819600000, "duration": 25, "type": "work"}}`
	rec, err := Decode([]byte(raw))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	st := rec.State()
	if st.TotalPausedSeconds != 0 {
		t.Fatalf("expected paused total reset, got %v", st.TotalPausedSeconds)
	}
	if st.TaskID != "t1" || st.SessionType != model.SessionWork {
		t.Fatalf("unexpected state %+v", st)
	}
}

func TestSaveDeletesIdleState(t *testing.T) {
	store := newMemoryStore()
	manager := NewManager(store, &fixedClock{now: baseTime}, nil)
	ctx := context.Background()

	_ = manager.Save(ctx, "u1", workState("t1", baseTime, 25))
	if _, ok, _ := store.Get(ctx, Key("u1")); !ok {
		t.Fatal("expected slot written")
	}
	_ = manager.Save(ctx, "u1", timer.State{})
	if _, ok, _ := store.Get(ctx, Key("u1")); ok {
		t.Fatal("expected idle state to delete the slot")
	}
}

func TestTaskCompleteWindowExpires(t *testing.T) {
	store := newMemoryStore()
	clock := &fixedClock{now: baseTime}
	manager := NewManager(store, clock, nil)
	ctx := context.Background()

	completedAt := baseTime
	_ = manager.Save(ctx, "u1", timer.State{
		JustCompleted: true,
		TaskComplete:  true,
		CompletedAt:   &completedAt,
		SessionType:   model.SessionWork,
		TaskID:        "t1",
	})

	clock.now = baseTime.Add(time.Minute)
	_, outcome, err := manager.Load(ctx, "u1", taskMap{"t1": {ID: "t1"}}, nil)
	if err != nil || outcome != OutcomeExpired {
		t.Fatalf("expected expired, got %s %v", outcome, err)
	}
}

func TestFlushPreservesPauseInstant(t *testing.T) {
	store := newMemoryStore()
	clock := &fixedClock{now: baseTime.Add(20 * time.Minute)}
	manager := NewManager(store, clock, nil)
	ctx := context.Background()

	st := workState("t1", baseTime, 25)
	pausedAt := baseTime.Add(5 * time.Minute)
	st.IsRunning = false
	st.PausedAt = &pausedAt
	if err := manager.Flush(ctx, "u1", st); err != nil {
		t.Fatalf("flush: %v", err)
	}

	raw, _, _ := store.Get(ctx, Key("u1"))
	rec, err := Decode(raw)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if rec.PausedAt == nil || *rec.PausedAt != pausedAt.UnixMilli() {
		t.Fatalf("expected pause instant kept, got %v", rec.PausedAt)
	}
	if rec.TimeLeft != 1200 {
		t.Fatalf("expected 1200, got %d", rec.TimeLeft)
	}

	st.PausedAt = nil
	_ = manager.Flush(ctx, "u1", st)
	raw, _, _ = store.Get(ctx, Key("u1"))
	rec, _ = Decode(raw)
	if rec.PausedAt == nil || *rec.PausedAt != clock.now.UnixMilli() {
		t.Fatalf("expected missing pause instant anchored at now, got %v", rec.PausedAt)
	}
}

func TestListenerSavesTransitionsOnly(t *testing.T) {
	store := newMemoryStore()
	manager := NewManager(store, &fixedClock{now: baseTime}, nil)
	ctx := context.Background()
	listen := manager.Listener("u1")

	listen(ctx, timer.Update{State: workState("t1", baseTime, 25), Transition: false})
	if _, ok, _ := store.Get(ctx, Key("u1")); ok {
		t.Fatal("expected display update to be skipped")
	}
	listen(ctx, timer.Update{State: workState("t1", baseTime, 25), Transition: true})
	if _, ok, _ := store.Get(ctx, Key("u1")); !ok {
		t.Fatal("expected transition to be saved")
	}
}

func TestRecoverAllVisitsEverySlot(t *testing.T) {
	store := newMemoryStore()
	manager := NewManager(store, &fixedClock{now: baseTime}, nil)
	ctx := context.Background()

	_ = manager.Save(ctx, "u1", workState("t1", baseTime, 25))
	_ = manager.Save(ctx, "u2", workState("t2", baseTime, 25))
	_ = store.Put(ctx, "other", []byte("{}"))

	var seen []string
	count, err := manager.RecoverAll(ctx, func(_ context.Context, userID string) error {
		seen = append(seen, userID)
		if userID == "u2" {
			return errors.New("boom")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("recover all: %v", err)
	}
	if count != 1 || len(seen) != 2 {
		t.Fatalf("expected both users visited and one recovered, got %d %v", count, seen)
	}
}
