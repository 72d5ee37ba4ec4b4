package pubsite

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// siteWatcher rebuilds the site when files under the watched roots change.
// Bursts of events are coalesced into one rebuild after the debounce delay.
type siteWatcher struct {
	watcher  *fsnotify.Watcher
	rebuild  func(ctx context.Context) error
	debounce time.Duration
	log      *zap.Logger
	stopCh   chan struct{}
	doneCh   chan struct{}
}

// watch starts watching the content and static directories. The returned
// stop function ends the watcher and waits for it.
func (a *App) watch(ctx context.Context) (func(), error) {
	var roots []string
	if a.Config.Source == SourceFiles {
		roots = append(roots, a.Config.ContentDir)
	}
	if a.Config.StaticDir != "" {
		roots = append(roots, a.Config.StaticDir)
	}
	w, err := newSiteWatcher(roots, a.Config.WatchDebounce, a.Logger, func(ctx context.Context) error {
		_, err := a.Build(ctx)
		return err
	})
	if err != nil {
		return nil, err
	}
	go w.run(ctx)
	return w.stop, nil
}

func newSiteWatcher(roots []string, debounce time.Duration, log *zap.Logger, rebuild func(ctx context.Context) error) (*siteWatcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	w := &siteWatcher{
		watcher:  fw,
		rebuild:  rebuild,
		debounce: debounce,
		log:      log,
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}
	for _, root := range roots {
		if err := w.addTree(root); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				log.Warn("watch: directory missing", zap.String("dir", root))
				continue
			}
			fw.Close()
			return nil, err
		}
		log.Info("watching", zap.String("dir", root))
	}
	return w, nil
}

// addTree watches dir and every directory below it. fsnotify is not
// recursive.
func (w *siteWatcher) addTree(dir string) error {
	return filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if p != dir && strings.HasPrefix(d.Name(), ".") {
			return filepath.SkipDir
		}
		return w.watcher.Add(p)
	})
}

func (w *siteWatcher) stop() {
	close(w.stopCh)
	<-w.doneCh
	if err := w.watcher.Close(); err != nil {
		w.log.Warn("watch: close", zap.Error(err))
	}
}

func (w *siteWatcher) run(ctx context.Context) {
	defer close(w.doneCh)

	timer := time.NewTimer(time.Hour)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-w.stopCh:
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if !w.relevant(event) {
				continue
			}
			w.log.Debug("watch: change", zap.String("path", event.Name), zap.String("op", event.Op.String()))
			if event.Has(fsnotify.Create) {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					if err := w.addTree(event.Name); err != nil {
						w.log.Warn("watch: add directory", zap.String("dir", event.Name), zap.Error(err))
					}
				}
			}
			timer.Reset(w.debounce)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.log.Warn("watch: error", zap.Error(err))
		case <-timer.C:
			if err := w.rebuild(ctx); err != nil {
				w.log.Error("watch: rebuild failed", zap.Error(err))
			}
		}
	}
}

// relevant drops chmod-only events and editor swap or backup files.
func (w *siteWatcher) relevant(event fsnotify.Event) bool {
	if event.Op == fsnotify.Chmod {
		return false
	}
	base := filepath.Base(event.Name)
	return !strings.HasPrefix(base, ".") && !strings.HasSuffix(base, "~") && !strings.HasSuffix(base, ".swp")
}
