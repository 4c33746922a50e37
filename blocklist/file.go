package blocklist

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/fsnotify/fsnotify"
)

const reloadDelay = 100 * time.Millisecond

type fileFormat struct {
	Blocked []int32 `toml:"blocked"`
}

// LoadFile reads a TOML file of the form
//
//	blocked = [65, 66]
func LoadFile(path string) ([]int32, error) {
	var f fileFormat
	if _, err := toml.DecodeFile(path, &f); err != nil {
		return nil, fmt.Errorf("load block list %s: %w", path, err)
	}
	return f.Blocked, nil
}

// WriteFile stores codes in the format LoadFile reads.
func WriteFile(path string, codes []int32) error {
	return writeTOML(path, fileFormat{Blocked: codes})
}

// Watch loads path into s and reloads it whenever the file changes, until ctx
// is done. A file that fails to parse leaves the current set in place.
func Watch(ctx context.Context, path string, s *Store, logger *slog.Logger) error {
	codes, err := LoadFile(path)
	if err != nil {
		return err
	}
	s.SetBlocked(codes)

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	// editors replace files, so watch the directory
	if err := watcher.Add(filepath.Dir(path)); err != nil {
		watcher.Close()
		return fmt.Errorf("watch directory: %w", err)
	}

	reload := func() {
		codes, err := LoadFile(path)
		if err != nil {
			logger.Warn("block list reload failed", "path", path, "err", err)
			return
		}
		s.SetBlocked(codes)
		logger.Info("block list reloaded", "path", path, "count", len(codes))
	}

	go func() {
		defer watcher.Close()
		var timer *time.Timer
		defer func() {
			if timer != nil {
				timer.Stop()
			}
		}()
		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Base(event.Name) != filepath.Base(path) {
					continue
				}
				if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
					continue
				}
				if timer != nil {
					timer.Stop()
				}
				timer = time.AfterFunc(reloadDelay, reload)
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				logger.Warn("block list watcher error", "err", err)
			}
		}
	}()
	return nil
}

func writeTOML(path string, v any) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("write block list %s: %w", path, err)
	}
	if err := toml.NewEncoder(f).Encode(v); err != nil {
		f.Close()
		return fmt.Errorf("write block list %s: %w", path, err)
	}
	return f.Close()
}
