package config

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// DebounceDelay coalesces the bursts of events editors produce on save.
var DebounceDelay = 200 * time.Millisecond

// Watch reloads the scenario at path whenever it changes and passes every
// valid result to onChange. Invalid edits are logged and skipped. It
// blocks until ctx is done.
func Watch(ctx context.Context, path string, logger *zap.Logger, onChange func(*Scenario)) error {
	if logger == nil {
		logger = zap.NewNop()
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}
	defer watcher.Close()

	// Watch the directory: editors often replace the file instead of
	// writing it in place.
	if err := watcher.Add(filepath.Dir(abs)); err != nil {
		return fmt.Errorf("failed to watch %s: %w", path, err)
	}
	logger.Debug("watching scenario", zap.String("path", abs))

	reload := make(chan struct{}, 1)
	var debounce *time.Timer
	defer func() {
		if debounce != nil {
			debounce.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != abs || event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			if debounce != nil {
				debounce.Stop()
			}
			debounce = time.AfterFunc(DebounceDelay, func() {
				select {
				case reload <- struct{}{}:
				default:
				}
			})

		case <-reload:
			sc, err := Load(abs)
			if err != nil {
				logger.Warn("scenario reload rejected", zap.String("path", abs), zap.Error(err))
				continue
			}
			logger.Info("scenario reloaded", zap.String("path", abs), zap.String("name", sc.Name), zap.Int("bodies", len(sc.Bodies)))
			onChange(sc)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Error("file watcher error", zap.Error(err))
		}
	}
}
