package main

import (
	"io/fs"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
)

// watchVault re-runs execute whenever a markdown file under root
// changes. Events are debounced; editors fire several per save.
func watchVault(root string, logger *slog.Logger, execute func() error) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	if err := addDirs(watcher, root); err != nil {
		return err
	}
	logger.Info("watching vault", "path", root)

	var pending <-chan time.Time
	for {
		select {
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Op.Has(fsnotify.Create) {
				// New directories need their own watches.
				if err := addDirs(watcher, event.Name); err == nil {
					logger.Debug("watching new path", "path", event.Name)
				}
			}
			if isMarkdown(event.Name) || event.Op.Has(fsnotify.Create) || event.Op.Has(fsnotify.Remove) {
				pending = time.After(250 * time.Millisecond)
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Warn("watch error", "error", err)

		case <-pending:
			pending = nil
			if err := execute(); err != nil {
				logger.Error("query failed", "error", err)
			}
		}
	}
}

// addDirs watches root and every directory below it.
func addDirs(watcher *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.IsDir() {
			return watcher.Add(p)
		}
		return nil
	})
}

func isMarkdown(p string) bool {
	return strings.HasSuffix(strings.ToLower(p), ".md")
}
