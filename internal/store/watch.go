package store

import (
	"context"
	"os"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"github.com/pkg/errors"
)

// Watch calls fn whenever the mapping file is created, replaced or removed,
// until ctx is done. The containing directory is created if needed.
func (s *Store) Watch(ctx context.Context, fn func()) error {
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return errors.Wrap(err, "create config directory")
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()
	if err := watcher.Add(dir); err != nil {
		return errors.Wrapf(err, "watch %s", dir)
	}
	for {
		var ev fsnotify.Event
		select {
		case <-ctx.Done():
			return nil
		case ev = <-watcher.Events:
		case err := <-watcher.Errors:
			return err
		}
		if filepath.Clean(ev.Name) != filepath.Clean(s.path) {
			continue
		}
		if ev.Has(fsnotify.Create) || ev.Has(fsnotify.Write) || ev.Has(fsnotify.Remove) || ev.Has(fsnotify.Rename) {
			fn()
		}
	}
}
