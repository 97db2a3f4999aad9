package config

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/rescale/svctray/internal/constants"
	"github.com/rescale/svctray/internal/logging"
)

// Watch reloads the config file at path whenever it changes and passes each
// valid result to onChange. Invalid files are logged and skipped so the
// previous options stay in effect. Watch blocks until ctx is done.
//
// The parent directory is watched rather than the file because editors and
// Save replace the file by rename.
func Watch(ctx context.Context, path string, overrides map[string]string, logger *logging.Logger, onChange func(*Options)) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create config watcher: %w", err)
	}
	defer watcher.Close()

	dir := filepath.Dir(path)
	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("failed to watch %s: %w", dir, err)
	}
	logger.Debug().Str("path", path).Msg("Watching config file")

	base := filepath.Base(path)
	debounce := time.NewTimer(constants.ConfigReloadDebounce)
	debounce.Stop()
	defer debounce.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Base(event.Name) != base {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			debounce.Reset(constants.ConfigReloadDebounce)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Warn().Err(err).Msg("Config watcher error")

		case <-debounce.C:
			opts, err := Load(path, false, overrides)
			if err != nil {
				logger.Warn().Err(err).Str("path", path).Msg("Ignoring invalid config change")
				continue
			}
			logger.Info().Str("path", path).Msg("Config reloaded")
			onChange(opts)
		}
	}
}
