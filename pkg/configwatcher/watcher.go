// Package configwatcher reloads configs/config.yaml when it changes on disk.
package configwatcher

import (
	"context"
	"enem_quiz_backend/internal/config"
	"enem_quiz_backend/pkg/debounce"
	"enem_quiz_backend/pkg/logger"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

const DefaultDelay = time.Second

type Reloader func(cfg *config.Config)

// Watch blocks until ctx is done, calling reload with the freshly loaded config after
// each burst of writes to the config file. The directory is watched rather than the
// file so editors that replace the file by rename are picked up too. A config that
// fails to load or validate is logged and ignored.
func Watch(ctx context.Context, configDir string, delay time.Duration, reload Reloader) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	absDir, err := filepath.Abs(configDir)
	if err != nil {
		return err
	}
	if err := watcher.Add(absDir); err != nil {
		return err
	}

	d := debounce.New(delay)
	defer d.Stop()

	apply := func() {
		newCfg, err := config.LoadConfig(configDir)
		if err != nil {
			logger.Log.Error("Failed to reload config", zap.Error(err))
			return
		}
		logger.Log.Info("Config reloaded", zap.String("dir", absDir))
		reload(newCfg)
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !isConfigFile(event.Name) {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) != 0 {
				d.Trigger(apply)
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Log.Error("Config watcher error", zap.Error(err))
		}
	}
}

func isConfigFile(name string) bool {
	switch filepath.Base(name) {
	case "config.yaml", "config.yml":
		return true
	}
	return false
}
