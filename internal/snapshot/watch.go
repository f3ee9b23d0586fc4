package snapshot

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/JonMunkholm/inspections/internal/core"
)

// snapshotFiles returns the names a reload cares about.
func snapshotFiles() map[string]bool {
	names := map[string]bool{WorkbookName: true}
	for _, def := range core.All() {
		names[def.Info.FileName] = true
	}
	return names
}

// Watch reloads the snapshot when one of its files changes, waiting for
// debounce of quiet first so an editor's save burst causes one reload.
// It blocks until ctx is cancelled.
func (m *Manager) Watch(ctx context.Context, debounce time.Duration) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer w.Close()

	if err := w.Add(m.dir); err != nil {
		return fmt.Errorf("watch %s: %w", m.dir, err)
	}

	names := snapshotFiles()
	m.logger.Info("watching snapshot directory", "dir", m.dir, "debounce", debounce.String())

	timer := time.NewTimer(debounce)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if !names[filepath.Base(ev.Name)] {
				continue
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) &&
				!ev.Has(fsnotify.Rename) && !ev.Has(fsnotify.Remove) {
				continue
			}
			m.logger.Debug("snapshot file changed", "file", ev.Name, "op", ev.Op.String())
			timer.Reset(debounce)

		case <-timer.C:
			if _, err := m.Reload(ctx); err != nil {
				m.logger.Warn("snapshot reload after change failed", "error", err)
			}

		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			m.logger.Warn("snapshot watcher error", "error", err)
		}
	}
}
