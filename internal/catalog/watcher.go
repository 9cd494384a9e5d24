package catalog

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	log "github.com/sirupsen/logrus"
)

const defaultWatchDebounce = 200 * time.Millisecond

// Watcher reloads the catalog when its backing file changes.
type Watcher struct {
	path     string
	debounce time.Duration
	onChange func(ctx context.Context) error
}

func NewWatcher(path string, debounce time.Duration, onChange func(ctx context.Context) error) *Watcher {
	if debounce <= 0 {
		debounce = defaultWatchDebounce
	}
	return &Watcher{
		path:     path,
		debounce: debounce,
		onChange: onChange,
	}
}

// Watch blocks until ctx is done. The parent directory is watched, editors
// often replace files instead of writing them in place.
func (w *Watcher) Watch(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("new fsnotify watcher: %w", err)
	}
	defer watcher.Close()

	absPath, err := filepath.Abs(w.path)
	if err != nil {
		return fmt.Errorf("catalog path: %w", err)
	}
	if err := watcher.Add(filepath.Dir(absPath)); err != nil {
		return fmt.Errorf("watch catalog dir: %w", err)
	}

	log.Debugf("watching catalog file %s", absPath)

	var pending <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != absPath {
				continue
			}
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) || event.Has(fsnotify.Rename) {
				pending = time.After(w.debounce)
			}

		case <-pending:
			pending = nil
			if err := w.onChange(ctx); err != nil {
				log.Errorf("catalog reload after file change: %s", err)
				continue
			}
			log.Println("catalog reloaded after file change")

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			log.Errorf("catalog watcher: %s", err)
		}
	}
}
