package timer

import (
	"context"
	"sync"
	"time"

	"focusboard/backend/internal/model"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
	return c.now
}

type fakeTasks struct {
	mu       sync.Mutex
	tasks    map[string]*model.Task
	sessions []model.Session
}

func newFakeTasks(tasks ...*model.Task) *fakeTasks {
	f := &fakeTasks{tasks: make(map[string]*model.Task)}
	for _, task := range tasks {
		f.tasks[task.ID] = task
	}
	return f
}

func (f *fakeTasks) FindTask(_ context.Context, id string) (*model.Task, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	task, ok := f.tasks[id]
	if !ok {
		return nil, nil
	}
	copied := *task
	return &copied, nil
}

func (f *fakeTasks) CompletedWorkSessions(_ context.Context, id string) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	count := 0
	for _, s := range f.sessions {
		if s.TaskID == id && s.Type == model.SessionWork && s.Completed {
			count++
		}
	}
	return count, nil
}

func (f *fakeTasks) AppendSession(_ context.Context, session model.Session) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sessions = append(f.sessions, session)
	return nil
}

func (f *fakeTasks) remove(id string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.tasks, id)
}

func (f *fakeTasks) history() []model.Session {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]model.Session(nil), f.sessions...)
}

type fakeSettings struct {
	settings model.Settings
}

func (f fakeSettings) Settings(context.Context) (model.Settings, error) {
	return f.settings, nil
}

type notice struct {
	Kind  string
	Title string
}

type fakeNotifier struct {
	mu      sync.Mutex
	notices []notice
	sounds  []string
}

func (f *fakeNotifier) Notify(kind, title, _ string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.notices = append(f.notices, notice{Kind: kind, Title: title})
}

func (f *fakeNotifier) PlaySound(key string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sounds = append(f.sounds, key)
}

func (f *fakeNotifier) count(kind string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, item := range f.notices {
		if item.Kind == kind {
			n++
		}
	}
	return n
}

type harness struct {
	clock    *fakeClock
	tasks    *fakeTasks
	notifier *fakeNotifier
	machine  *Machine
}

func newHarness(settings model.Settings, tasks ...*model.Task) *harness {
	h := &harness{
		clock:    newFakeClock(),
		tasks:    newFakeTasks(tasks...),
		notifier: &fakeNotifier{},
	}
	h.machine = NewMachine(Options{
		Clock:    h.clock,
		Tasks:    h.tasks,
		Settings: fakeSettings{settings: settings},
		Notifier: h.notifier,
	})
	return h
}

// tickTo advances the clock to offset from start in one-second ticks.
func (h *harness) tickTo(start time.Time, offset time.Duration) {
	ctx := context.Background()
	for h.clock.Now().Before(start.Add(offset)) {
		now := h.clock.Advance(time.Second)
		_ = h.machine.Tick(ctx, now)
	}
}

func testSettings() model.Settings {
	s := model.DefaultSettings("u1")
	s.WorkMinutes = 25
	s.ShortBreakMinutes = 5
	s.LongBreakMinutes = 15
	s.SessionsUntilLongBreak = 4
	s.SoundEnabled = true
	return s
}
