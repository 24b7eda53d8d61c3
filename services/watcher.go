package services

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"musicbox/types"
	"musicbox/websocket"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog/log"
)

// LibraryWatcher tells websocket clients when audio files appear or vanish
// under the library root. Bursts of events collapse into one notification.
type LibraryWatcher struct {
	hub      websocket.Hub
	debounce time.Duration
	watcher  *fsnotify.Watcher
	mu       sync.Mutex
}

// NewLibraryWatcher creates a watcher broadcasting on hub
func NewLibraryWatcher(hub websocket.Hub, debounce time.Duration) (*LibraryWatcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create library watcher: %w", err)
	}
	return &LibraryWatcher{
		hub:      hub,
		debounce: debounce,
		watcher:  w,
	}, nil
}

// Watch replaces the watched tree with root and all its subdirectories
func (lw *LibraryWatcher) Watch(root string) error {
	lw.mu.Lock()
	defer lw.mu.Unlock()

	for _, dir := range lw.watcher.WatchList() {
		_ = lw.watcher.Remove(dir)
	}
	return lw.addTree(root)
}

// addTree must be called with mu held
func (lw *LibraryWatcher) addTree(root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			log.Warn().Err(err).Str("path", path).Msg("Cannot watch path")
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if err := lw.watcher.Add(path); err != nil {
			log.Warn().Err(err).Str("path", path).Msg("Cannot watch directory")
		}
		return nil
	})
}

// Run delivers notifications until ctx is done
func (lw *LibraryWatcher) Run(ctx context.Context) {
	timer := time.NewTimer(lw.debounce)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-lw.watcher.Events:
			if !ok {
				return
			}
			if lw.relevant(event) {
				timer.Reset(lw.debounce)
			}

		case err, ok := <-lw.watcher.Errors:
			if !ok {
				return
			}
			log.Warn().Err(err).Msg("Library watcher error")

		case <-timer.C:
			log.Debug().Msg("Library changed")
			lw.hub.Broadcast(types.EventMessage{Type: types.MessageTypeLibraryChanged})
		}
	}
}

// relevant reports whether event changes the song list. New directories are
// added to the watch set on the way.
func (lw *LibraryWatcher) relevant(event fsnotify.Event) bool {
	if event.Has(fsnotify.Create) {
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			lw.mu.Lock()
			_ = lw.addTree(event.Name)
			lw.mu.Unlock()
			return true
		}
	}

	ext := strings.ToLower(filepath.Ext(event.Name))
	if _, ok := SupportedFormats[ext]; ok {
		return event.Has(fsnotify.Create) || event.Has(fsnotify.Write) ||
			event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename)
	}

	// a removed directory may have held songs
	return ext == "" && (event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename))
}

// Close stops watching
func (lw *LibraryWatcher) Close() error {
	return lw.watcher.Close()
}
