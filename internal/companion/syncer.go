package companion

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"focusboard/backend/internal/timer"
)

// TitleFunc resolves a task title for the animation caption.
type TitleFunc func(ctx context.Context, userID, taskID string) string

type pending struct {
	userID   string
	snap     timer.Snapshot
	activity Activity
}

// Syncer pushes the latest timer activity to the device. Only the newest
// update is kept; an activity equal to the last one sent is not resent.
// While the device is unreachable the syncer probes it every retry interval.
type Syncer struct {
	client *Client
	titles TitleFunc
	retry  time.Duration
	logger *slog.Logger

	mu        sync.Mutex
	next      *pending
	last      Activity
	sent      bool
	connected bool
	wake      chan struct{}
}

func NewSyncer(client *Client, titles TitleFunc, retry time.Duration, logger *slog.Logger) *Syncer {
	if retry <= 0 {
		retry = 30 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Syncer{
		client: client,
		titles: titles,
		retry:  retry,
		logger: logger,
		wake:   make(chan struct{}, 1),
	}
}

// Observe records an engine update. It never blocks.
func (s *Syncer) Observe(_ context.Context, userID string, update timer.Update) {
	snap := timer.SnapshotOf(update.State, update.At)
	s.mu.Lock()
	s.next = &pending{userID: userID, snap: snap, activity: ActivityOf(snap)}
	s.mu.Unlock()

	select {
	case s.wake <- struct{}{}:
	default:
	}
}

func (s *Syncer) Connected() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.connected
}

// Run delivers updates until ctx is done.
func (s *Syncer) Run(ctx context.Context) {
	s.probe(ctx)

	ticker := time.NewTicker(s.retry)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-s.wake:
			s.flush(ctx)
		case <-ticker.C:
			if !s.Connected() && s.probe(ctx) {
				s.flush(ctx)
			}
		}
	}
}

func (s *Syncer) probe(ctx context.Context) bool {
	status, err := s.client.Status(ctx)
	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		if s.connected {
			s.logger.Warn("companion disconnected", "error", err)
		}
		s.connected = false
		return false
	}
	if !s.connected {
		s.logger.Info("companion connected", "ip", status.IP, "animation", status.Animation)
	}
	s.connected = true
	return true
}

func (s *Syncer) flush(ctx context.Context) {
	s.mu.Lock()
	item := s.next
	if item == nil {
		s.mu.Unlock()
		return
	}
	if s.sent && item.activity == s.last {
		s.next = nil
		s.mu.Unlock()
		return
	}
	if !s.connected {
		s.mu.Unlock()
		return
	}
	s.mu.Unlock()

	title := ""
	if s.titles != nil && item.snap.TaskID != "" {
		title = s.titles(ctx, item.userID, item.snap.TaskID)
	}
	cmd := CommandFor(item.activity, item.snap, title)
	err := s.client.SendAnimation(ctx, cmd.Animation, cmd.Task)

	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		s.logger.Warn("companion animation failed", "activity", cmd.Activity, "error", err)
		s.connected = false
		return
	}
	s.last = item.activity
	s.sent = true
	if s.next == item {
		s.next = nil
	}
	s.logger.Debug("companion animation sent", "activity", cmd.Activity, "animation", cmd.Animation)
}
