package config

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"charmstudio/internal/logging"

	"github.com/fsnotify/fsnotify"
)

// Watch reloads the config at path whenever it is written and hands the new
// value to onChange. It blocks until ctx is cancelled. The parent directory is
// watched so editors that replace the file on save are still picked up.
func Watch(ctx context.Context, path string, onChange func(*Config)) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create config watcher: %w", err)
	}
	defer watcher.Close()

	abs, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("failed to resolve config path: %w", err)
	}
	if err := watcher.Add(filepath.Dir(abs)); err != nil {
		return fmt.Errorf("failed to watch config directory: %w", err)
	}
	logging.Config("watching %s", abs)

	// Debounce rapid saves
	const settle = 150 * time.Millisecond
	var pending <-chan time.Time

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != abs {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			pending = time.After(settle)

		case <-pending:
			pending = nil
			cfg, err := Load(abs)
			if err != nil {
				logging.ConfigWarn("reload failed, keeping previous config: %v", err)
				continue
			}
			if err := cfg.Validate(); err != nil {
				logging.ConfigWarn("reloaded config invalid, keeping previous config: %v", err)
				continue
			}
			logging.Config("reloaded %s", abs)
			onChange(cfg)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logging.ConfigWarn("watcher error: %v", err)
		}
	}
}
