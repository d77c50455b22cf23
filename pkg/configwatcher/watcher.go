package configwatcher

import (
	"path/filepath"
	"sync"
	"time"

	"ihk_prep_backend/pkg/logger"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// Watch debounces write events on a file or directory and invokes reload.
// Used for both the config file and the content manifest directory.
func Watch(path string, reload func()) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		watcher.Close()
		return err
	}

	if err := watcher.Add(absPath); err != nil {
		watcher.Close()
		return err
	}

	go func() {
		defer watcher.Close()

		var mu sync.Mutex
		timer := time.NewTimer(0)
		<-timer.C

		for {
			select {
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove) != 0 {
					// debounce bursts of writes
					mu.Lock()
					if !timer.Stop() {
						select {
						case <-timer.C:
						default:
						}
					}
					timer.Reset(1 * time.Second)
					mu.Unlock()
				}
			case <-timer.C:
				logger.Log.Info("watched path changed, reloading", zap.String("path", absPath))
				reload()
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				logger.Log.Error("watcher error", zap.Error(err))
			}
		}
	}()

	return nil
}
