package services

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"musicbox/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func startWatcher(t *testing.T, root string) *recordingHub {
	t.Helper()
	hub := &recordingHub{}

	w, err := NewLibraryWatcher(hub, 50*time.Millisecond)
	require.NoError(t, err)
	require.NoError(t, w.Watch(root))

	ctx, cancel := context.WithCancel(context.Background())
	go w.Run(ctx)
	t.Cleanup(func() {
		cancel()
		w.Close()
	})
	return hub
}

func TestLibraryWatcherDebouncesChanges(t *testing.T) {
	root := t.TempDir()
	hub := startWatcher(t, root)

	for _, name := range []string{"one.mp3", "two.flac", "three.mp3"} {
		require.NoError(t, os.WriteFile(filepath.Join(root, name), []byte("x"), 0644))
	}

	require.Eventually(t, func() bool {
		return len(hub.sent()) >= 1
	}, 2*time.Second, 10*time.Millisecond)

	time.Sleep(200 * time.Millisecond)
	sent := hub.sent()
	require.Len(t, sent, 1)
	assert.Equal(t, types.EventMessage{Type: types.MessageTypeLibraryChanged}, sent[0])
}

func TestLibraryWatcherFollowsNewDirectories(t *testing.T) {
	root := t.TempDir()
	hub := startWatcher(t, root)

	album := filepath.Join(root, "Artist", "Album")
	require.NoError(t, os.MkdirAll(album, 0755))

	// let the directory event settle
	require.Eventually(t, func() bool {
		return len(hub.sent()) == 1
	}, 2*time.Second, 10*time.Millisecond)
	time.Sleep(100 * time.Millisecond)

	require.NoError(t, os.WriteFile(filepath.Join(album, "01 - Song.mp3"), []byte("x"), 0644))

	require.Eventually(t, func() bool {
		return len(hub.sent()) == 2
	}, 2*time.Second, 10*time.Millisecond)
}

func TestLibraryWatcherIgnoresOtherFiles(t *testing.T) {
	root := t.TempDir()
	hub := startWatcher(t, root)

	require.NoError(t, os.WriteFile(filepath.Join(root, "cover.jpg"), []byte("x"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "notes.txt"), []byte("x"), 0644))

	time.Sleep(200 * time.Millisecond)
	assert.Empty(t, hub.sent())
}
