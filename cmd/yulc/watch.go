package main

import (
	"log/slog"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
)

// watchAndCompile recompiles path every time it (or its containing
// directory, to survive editors that write-then-rename) changes, calling
// compileOnce after every event. Watcher errors are logged and watching
// continues; it returns only when setup fails or one of the watcher's
// channels closes.
func watchAndCompile(path string, logger *slog.Logger, compileOnce func() int) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	dir := filepath.Dir(path)
	if err := watcher.Add(dir); err != nil {
		return err
	}

	logger.Info("watching for changes", "file", path)
	compileOnce()

	for {
		select {
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != filepath.Clean(path) {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			logger.Debug("source changed, recompiling", "event", event.Op.String())
			compileOnce()
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Error("watcher error", "error", err)
		}
	}
}
