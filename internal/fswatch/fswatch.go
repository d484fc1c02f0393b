package fswatch

import (
	"context"
	"log/slog"

	"github.com/fsnotify/fsnotify"
)

// Watch monitors the file at path and calls onWrite after each write.
// It runs until ctx is cancelled.
//
// Editors and exporters often replace files via rename (atomic save), so
// create events count as writes and the watch is re-added after each event in
// case the inode changed. Callers that must not miss an update should keep a
// periodic rescan as a safety net; fsnotify drops events on some filesystems
// (NFS, some container mounts).
func Watch(ctx context.Context, path string, onWrite func()) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	if err := watcher.Add(path); err != nil {
		return err
	}

	slog.Info("fswatch: watching for changes", "path", path)

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			onWrite()
			_ = watcher.Add(path)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			slog.Error("fswatch: watcher error", "path", path, "err", err)
		}
	}
}
