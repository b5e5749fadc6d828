package notify

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"focusboard/backend/internal/model"
	"focusboard/backend/internal/timer"
)

type memoryFeed struct {
	mu    sync.Mutex
	items []model.Notification
	err   error
}

func (f *memoryFeed) Insert(_ context.Context, n *model.Notification) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	n.ID = int64(len(f.items) + 1)
	f.items = append(f.items, *n)
	return nil
}

func writeSound(t *testing.T, dir, name string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte("RIFF"), 0o644); err != nil {
		t.Fatalf("write sound: %v", err)
	}
}

func TestSoundLibraryIndexesAudioFiles(t *testing.T) {
	dir := t.TempDir()
	writeSound(t, dir, "pomodoro_complete.mp3")
	writeSound(t, dir, "notes.txt")

	lib := NewSoundLibrary(dir, nil)
	if name, ok := lib.Resolve("pomodoro_complete"); !ok || name != "pomodoro_complete.mp3" {
		t.Fatalf("expected asset, got %q %v", name, ok)
	}
	if _, ok := lib.Resolve("notes"); ok {
		t.Fatal("expected non-audio files to be skipped")
	}
	if got := lib.Cue(timer.SoundTaskComplete); got != FallbackSound {
		t.Fatalf("expected fallback, got %q", got)
	}
}

func TestSoundLibraryMissingDir(t *testing.T) {
	lib := NewSoundLibrary(filepath.Join(t.TempDir(), "absent"), nil)
	if len(lib.Keys()) != 0 {
		t.Fatal("expected empty index")
	}
	if got := lib.Cue(timer.SoundBreakComplete); got != FallbackSound {
		t.Fatalf("expected fallback, got %q", got)
	}
}

func TestSoundLibraryWatchPicksUpNewFiles(t *testing.T) {
	dir := t.TempDir()
	lib := NewSoundLibrary(dir, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- lib.Watch(ctx) }()
	t.Cleanup(func() {
		cancel()
		<-done
	})

	deadline := time.Now().Add(5 * time.Second)
	for {
		writeSound(t, dir, "break_complete.wav")
		if _, ok := lib.Resolve("break_complete"); ok {
			return
		}
		if time.Now().After(deadline) {
			t.Fatal("expected watcher to index the new file")
		}
		time.Sleep(50 * time.Millisecond)
	}
}

func TestDispatcherWritesFeed(t *testing.T) {
	dir := t.TempDir()
	writeSound(t, dir, "task_complete.ogg")
	feed := &memoryFeed{}
	d := NewDispatcher(feed, NewSoundLibrary(dir, nil), nil)

	n := d.For("u1")
	n.Notify(timer.KindTaskComplete, "Task Complete!", "done")
	n.PlaySound(timer.SoundTaskComplete)
	n.PlaySound(timer.SoundOvertimeReminder)

	if len(feed.items) != 3 {
		t.Fatalf("expected 3 feed items, got %d", len(feed.items))
	}
	if feed.items[0].UserID != "u1" || feed.items[0].Kind != timer.KindTaskComplete {
		t.Fatalf("unexpected notice %+v", feed.items[0])
	}
	if feed.items[1].Sound != "task_complete.ogg" {
		t.Fatalf("expected asset cue, got %q", feed.items[1].Sound)
	}
	if feed.items[2].Sound != FallbackSound {
		t.Fatalf("expected fallback cue, got %q", feed.items[2].Sound)
	}
}

func TestDispatcherSwallowsFailures(t *testing.T) {
	d := NewDispatcher(&memoryFeed{err: errors.New("disk full")}, nil, nil)
	d.For("u1").Notify(timer.KindWorkComplete, "Pomodoro Complete!", "")
	d.For("u1").PlaySound(timer.SoundPomodoroComplete)
}
