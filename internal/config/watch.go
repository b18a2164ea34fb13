package config

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/bryanchriswhite/winstate/internal/logger"
	"github.com/fsnotify/fsnotify"
)

// Watch reloads the config file whenever it changes on disk and calls
// onChange with the previous and new values. It blocks until ctx is done.
// Invalid edits are logged and the previous config is kept.
func (m *Manager) Watch(ctx context.Context, onChange func(prev, next *Config)) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create config watcher: %w", err)
	}
	defer watcher.Close()

	// Watch the directory: editors often replace the file instead of writing it.
	dir := filepath.Dir(m.configPath)
	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("failed to watch %s: %w", dir, err)
	}

	log := logger.WithComponent("config-watch")
	target := filepath.Clean(m.configPath)

	for {
		select {
		case <-ctx.Done():
			return nil
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			log.Warn().Err(err).Msg("Watcher error")
		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != target || ev.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			prev, next, err := m.Reload()
			if errors.Is(err, ErrEmptyConfig) {
				log.Debug().Str("path", m.configPath).Msg("Skipping empty config file")
				continue
			}
			if err != nil {
				log.Warn().Err(err).Str("path", m.configPath).Msg("Ignoring invalid config change")
				continue
			}
			log.Info().Str("path", m.configPath).Msg("Config reloaded")
			if onChange != nil {
				onChange(prev, next)
			}
		}
	}
}
