package localfs

import (
	"context"
	"io/fs"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce groups bursts of filesystem events into one notification
const DefaultDebounce = 500 * time.Millisecond

// Watch reports library changes until ctx is done. onChange runs on a timer
// goroutine after events settle for debounce; cached scans are dropped first.
func (s *Source) Watch(ctx context.Context, debounce time.Duration, onChange func()) error {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	for _, root := range s.roots {
		s.addRecursive(w, root)
	}

	go s.watchLoop(ctx, w, debounce, onChange)
	s.logger.Info("library watcher started", "roots", len(s.roots))
	return nil
}

func (s *Source) addRecursive(w *fsnotify.Watcher, root string) {
	_ = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if path != root && strings.HasPrefix(d.Name(), ".") {
			return filepath.SkipDir
		}
		if err := w.Add(path); err != nil {
			s.logger.Warn("failed to watch directory", "error", err, "path", path)
		}
		return nil
	})
}

func (s *Source) watchLoop(ctx context.Context, w *fsnotify.Watcher, debounce time.Duration, onChange func()) {
	defer w.Close()

	var (
		mu    sync.Mutex
		timer *time.Timer
	)
	fire := func() {
		s.Invalidate()
		if onChange != nil {
			onChange()
		}
	}
	defer func() {
		mu.Lock()
		if timer != nil {
			timer.Stop()
		}
		mu.Unlock()
	}()

	for {
		select {
		case <-ctx.Done():
			s.logger.Debug("library watcher stopped")
			return

		case event, ok := <-w.Events:
			if !ok {
				return
			}
			if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Remove) &&
				!event.Has(fsnotify.Rename) && !event.Has(fsnotify.Write) {
				continue
			}
			if event.Has(fsnotify.Create) {
				s.addRecursive(w, event.Name)
			}
			s.logger.Debug("library change", "op", event.Op.String(), "path", event.Name)

			mu.Lock()
			if timer != nil {
				timer.Stop()
			}
			timer = time.AfterFunc(debounce, fire)
			mu.Unlock()

		case err, ok := <-w.Errors:
			if !ok {
				return
			}
			s.logger.Error("library watcher error", "error", err)
		}
	}
}
