package pubsite

import (
	"context"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestWatcherDebouncesRebuilds(t *testing.T) {
	root := t.TempDir()
	var builds atomic.Int32
	rebuilt := make(chan struct{}, 10)
	w, err := newSiteWatcher([]string{root}, 50*time.Millisecond, zap.NewNop(), func(context.Context) error {
		builds.Add(1)
		rebuilt <- struct{}{}
		return nil
	})
	require.NoError(t, err)
	go w.run(context.Background())
	defer w.stop()

	for i := 0; i < 5; i++ {
		require.NoError(t, os.WriteFile(filepath.Join(root, "post.md"), []byte{byte('a' + i)}, 0o644))
	}

	select {
	case <-rebuilt:
	case <-time.After(5 * time.Second):
		t.Fatal("no rebuild after writes")
	}
	time.Sleep(200 * time.Millisecond)
	assert.Equal(t, int32(1), builds.Load(), "a burst of writes triggers one rebuild")
}

func TestWatcherFollowsNewDirectories(t *testing.T) {
	root := t.TempDir()
	rebuilt := make(chan struct{}, 10)
	w, err := newSiteWatcher([]string{root}, 20*time.Millisecond, zap.NewNop(), func(context.Context) error {
		rebuilt <- struct{}{}
		return nil
	})
	require.NoError(t, err)
	go w.run(context.Background())
	defer w.stop()

	sub := filepath.Join(root, "new-post")
	require.NoError(t, os.Mkdir(sub, 0o755))
	select {
	case <-rebuilt:
	case <-time.After(5 * time.Second):
		t.Fatal("no rebuild after mkdir")
	}

	require.NoError(t, os.WriteFile(filepath.Join(sub, "index.md"), []byte("hi"), 0o644))
	select {
	case <-rebuilt:
	case <-time.After(5 * time.Second):
		t.Fatal("no rebuild for a file in a new directory")
	}
}

func TestWatcherMissingRoot(t *testing.T) {
	w, err := newSiteWatcher([]string{filepath.Join(t.TempDir(), "absent")}, time.Millisecond, zap.NewNop(), func(context.Context) error { return nil })
	require.NoError(t, err)
	go w.run(context.Background())
	w.stop()
}

func TestWatcherRelevant(t *testing.T) {
	w := &siteWatcher{}
	tests := []struct {
		event fsnotify.Event
		want  bool
	}{
		{fsnotify.Event{Name: "content/a.md", Op: fsnotify.Write}, true},
		{fsnotify.Event{Name: "content/a.md", Op: fsnotify.Chmod}, false},
		{fsnotify.Event{Name: "content/.a.md.swp", Op: fsnotify.Create}, false},
		{fsnotify.Event{Name: "content/a.md~", Op: fsnotify.Write}, false},
		{fsnotify.Event{Name: "static/logo.png", Op: fsnotify.Remove}, true},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, w.relevant(tt.event), tt.event.String())
	}
}
