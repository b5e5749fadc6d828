package notify

import (
	"context"
	"log/slog"
	"time"

	"focusboard/backend/internal/model"
	"focusboard/backend/internal/timer"
)

const (
	KindSound    = "sound"
	writeTimeout = 5 * time.Second
)

type feed interface {
	Insert(ctx context.Context, n *model.Notification) error
}

// Dispatcher writes notices and sound cues to the notification feed.
// Delivery is best-effort: failures are logged and dropped.
type Dispatcher struct {
	feed   feed
	sounds *SoundLibrary
	logger *slog.Logger
	now    func() time.Time
}

func NewDispatcher(feed feed, sounds *SoundLibrary, logger *slog.Logger) *Dispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	if sounds == nil {
		sounds = NewSoundLibrary("", logger)
	}
	return &Dispatcher{
		feed:   feed,
		sounds: sounds,
		logger: logger,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

func (d *Dispatcher) For(userID string) timer.Notifier {
	return userNotifier{d: d, userID: userID}
}

func (d *Dispatcher) write(n *model.Notification) {
	ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
	defer cancel()
	n.CreatedAt = d.now()
	if err := d.feed.Insert(ctx, n); err != nil {
		d.logger.Warn("notification dropped", "user", n.UserID, "kind", n.Kind, "error", err)
		return
	}
	d.logger.Info("notification", "user", n.UserID, "kind", n.Kind, "title", n.Title, "sound", n.Sound)
}

type userNotifier struct {
	d      *Dispatcher
	userID string
}

func (u userNotifier) Notify(kind, title, body string) {
	u.d.write(&model.Notification{UserID: u.userID, Kind: kind, Title: title, Body: body})
}

func (u userNotifier) PlaySound(key string) {
	u.d.write(&model.Notification{
		UserID: u.userID,
		Kind:   KindSound,
		Title:  key,
		Sound:  u.d.sounds.Cue(key),
	})
}
