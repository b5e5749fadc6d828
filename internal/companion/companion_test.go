package companion

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"focusboard/backend/internal/model"
	"focusboard/backend/internal/timer"
)

type device struct {
	mu         sync.Mutex
	animations []animationRequest
	received   chan animationRequest
	down       atomic.Bool
}

func newDevice(t *testing.T) (*device, *httptest.Server) {
	t.Helper()
	d := &device{received: make(chan animationRequest, 16)}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if d.down.Load() {
			http.Error(w, "down", http.StatusServiceUnavailable)
			return
		}
		switch r.URL.Path {
		case "/api/status":
			_ = json.NewEncoder(w).Encode(Status{Status: "ok", Animation: "idle", IP: "10.0.0.2"})
		case "/api/animation":
			var req animationRequest
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				http.Error(w, "bad", http.StatusBadRequest)
				return
			}
			d.mu.Lock()
			d.animations = append(d.animations, req)
			d.mu.Unlock()
			d.received <- req
			w.WriteHeader(http.StatusOK)
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(srv.Close)
	return d, srv
}

func (d *device) wait(t *testing.T) animationRequest {
	t.Helper()
	select {
	case req := <-d.received:
		return req
	case <-time.After(3 * time.Second):
		t.Fatal("timed out waiting for animation")
		return animationRequest{}
	}
}

func runningWork(taskID string) timer.State {
	return timer.State{
		IsRunning: true,
		CurrentSession: &model.Session{
			ID: "s1", TaskID: taskID, Started: time.Now(), Duration: 25, Type: model.SessionWork,
		},
		SessionType: model.SessionWork,
		TaskID:      taskID,
	}
}

func TestActivityOf(t *testing.T) {
	now := time.Now()
	paused := runningWork("t1")
	paused.IsRunning = false
	paused.PausedAt = &now

	breakState := runningWork("t1")
	breakState.SessionType = model.SessionShortBreak
	breakState.CurrentSession.Type = model.SessionShortBreak

	tests := []struct {
		name  string
		state timer.State
		want  Activity
	}{
		{name: "idle", state: timer.State{}, want: ActivityIdle},
		{name: "focus", state: runningWork("t1"), want: ActivityFocus},
		{name: "break", state: breakState, want: ActivityBreak},
		{name: "paused", state: paused, want: ActivityPaused},
		{name: "complete", state: timer.State{JustCompleted: true, SessionType: model.SessionWork}, want: ActivityComplete},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := ActivityOf(timer.SnapshotOf(tc.state, now)); got != tc.want {
				t.Fatalf("expected %s, got %s", tc.want, got)
			}
		})
	}
}

func TestClientStatusAndAnimation(t *testing.T) {
	d, srv := newDevice(t)
	client := NewClient(srv.URL, time.Second)

	status, err := client.Status(context.Background())
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	if status.IP != "10.0.0.2" {
		t.Fatalf("unexpected status %+v", status)
	}

	if err := client.SendAnimation(context.Background(), "pomodoro", "Write"); err != nil {
		t.Fatalf("send: %v", err)
	}
	if got := d.wait(t); got.Animation != "pomodoro" || got.Task != "Write" {
		t.Fatalf("unexpected animation %+v", got)
	}
}

func TestNewClientAddsScheme(t *testing.T) {
	if c := NewClient("tabbie.local/", 0); c.baseURL != "http://tabbie.local" {
		t.Fatalf("unexpected base url %q", c.baseURL)
	}
}

func TestSyncerSendsChangesOnly(t *testing.T) {
	d, srv := newDevice(t)
	titles := func(_ context.Context, userID, taskID string) string {
		if userID == "u1" && taskID == "t1" {
			return "Write report"
		}
		return ""
	}
	syncer := NewSyncer(NewClient(srv.URL, time.Second), titles, time.Hour, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go syncer.Run(ctx)

	syncer.Observe(ctx, "u1", timer.Update{State: runningWork("t1"), At: time.Now()})
	if got := d.wait(t); got.Animation != "pomodoro" || got.Task != "Write report" {
		t.Fatalf("unexpected animation %+v", got)
	}

	syncer.Observe(ctx, "u1", timer.Update{State: runningWork("t1"), At: time.Now()})
	syncer.Observe(ctx, "u1", timer.Update{State: timer.State{}, At: time.Now()})
	if got := d.wait(t); got.Animation != "idle" || got.Task != "" {
		t.Fatalf("unexpected animation %+v", got)
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	if len(d.animations) != 2 {
		t.Fatalf("expected repeated activity to be skipped, got %+v", d.animations)
	}
}

func TestSyncerReconnects(t *testing.T) {
	d, srv := newDevice(t)
	d.down.Store(true)
	syncer := NewSyncer(NewClient(srv.URL, time.Second), nil, 20*time.Millisecond, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go syncer.Run(ctx)

	syncer.Observe(ctx, "u1", timer.Update{State: runningWork("t1"), At: time.Now()})
	time.Sleep(60 * time.Millisecond)
	if syncer.Connected() {
		t.Fatal("expected syncer to be disconnected")
	}

	d.down.Store(false)
	if got := d.wait(t); got.Animation != "pomodoro" || got.Task != "Focus Session" {
		t.Fatalf("expected pending animation after reconnect, got %+v", got)
	}
}
