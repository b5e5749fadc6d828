// Package notify delivers timer notices to the per-user feed and resolves
// sound cues against the sounds directory.
package notify

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
)

// FallbackSound is the synthesized tone clients play when an asset is missing.
const FallbackSound = "fallback_beep"

var soundExtensions = map[string]bool{".mp3": true, ".wav": true, ".ogg": true, ".m4a": true}

// SoundLibrary indexes the audio files of a directory by base name and keeps
// the index current while Watch runs.
type SoundLibrary struct {
	dir    string
	logger *slog.Logger

	mu    sync.RWMutex
	index map[string]string
}

func NewSoundLibrary(dir string, logger *slog.Logger) *SoundLibrary {
	if logger == nil {
		logger = slog.Default()
	}
	lib := &SoundLibrary{dir: dir, logger: logger, index: map[string]string{}}
	if err := lib.Reindex(); err != nil {
		logger.Warn("sound library unavailable", "dir", dir, "error", err)
	}
	return lib
}

func (l *SoundLibrary) Reindex() error {
	index := map[string]string{}
	defer func() {
		l.mu.Lock()
		l.index = index
		l.mu.Unlock()
	}()

	if l.dir == "" {
		return nil
	}
	entries, err := os.ReadDir(l.dir)
	if err != nil {
		return fmt.Errorf("read sounds dir: %w", err)
	}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(entry.Name()))
		if !soundExtensions[ext] {
			continue
		}
		key := strings.TrimSuffix(entry.Name(), filepath.Ext(entry.Name()))
		index[key] = entry.Name()
	}
	return nil
}

// Resolve returns the asset file name for key.
func (l *SoundLibrary) Resolve(key string) (string, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	name, ok := l.index[key]
	return name, ok
}

// Cue is the sound a client should play for key: the asset when one is
// indexed, the fallback tone otherwise.
func (l *SoundLibrary) Cue(key string) string {
	if name, ok := l.Resolve(key); ok {
		return name
	}
	l.logger.Debug("sound asset missing, using fallback", "key", key)
	return FallbackSound
}

func (l *SoundLibrary) Keys() []string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	keys := make([]string, 0, len(l.index))
	for k := range l.index {
		keys = append(keys, k)
	}
	return keys
}

// Watch re-indexes on every change in the directory until ctx is done.
func (l *SoundLibrary) Watch(ctx context.Context) error {
	if l.dir == "" {
		return nil
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create sounds watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(l.dir); err != nil {
		return fmt.Errorf("watch sounds dir: %w", err)
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Op&(fsnotify.Create|fsnotify.Remove|fsnotify.Rename|fsnotify.Write) == 0 {
				continue
			}
			if err := l.Reindex(); err != nil {
				l.logger.Warn("reindex sounds failed", "error", err)
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			l.logger.Warn("sounds watcher error", "error", err)
		}
	}
}
