package config

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/mantonx/mediacatalog/internal/logger"
)

// reloadDebounce absorbs the burst of events editors emit on save.
const reloadDebounce = 250 * time.Millisecond

// Watch reloads the configuration whenever its file changes. It watches
// the parent directory so atomic renames are picked up. Returns when ctx
// is done.
func (cm *ConfigManager) Watch(ctx context.Context) error {
	path := cm.Path()
	if path == "" {
		<-ctx.Done()
		return nil
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create config watcher: %w", err)
	}
	defer watcher.Close()

	absPath, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("failed to resolve config path: %w", err)
	}
	if err := watcher.Add(filepath.Dir(absPath)); err != nil {
		return fmt.Errorf("failed to watch %s: %w", filepath.Dir(absPath), err)
	}

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
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) != 0 {
				pending = time.After(reloadDebounce)
			}
		case <-pending:
			pending = nil
			if err := cm.Reload(); err != nil {
				logger.Warn("config reload failed, keeping previous configuration", "path", absPath, "error", err)
				continue
			}
			logger.Info("config reloaded", "path", absPath)
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Warn("config watcher error", "error", err)
		}
	}
}

// Watch watches the global configuration file
func Watch(ctx context.Context) error {
	return GetConfigManager().Watch(ctx)
}
