package config

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/bborn/grocer/internal/debounce"
)

// settleDelay lets an editor finish writing before the file is read.
const settleDelay = 100 * time.Millisecond

// Reload is delivered by Watch after the config file changed. Err is set
// when the new file could not be loaded; the previous config stays in effect.
type Reload struct {
	Config *Config
	Err    error
}

// Watch reloads the config file whenever it is written. Editors often
// replace files rather than write them, so the directory is watched, and a
// burst of events yields one reload.
func Watch(ctx context.Context, path string) (<-chan Reload, error) {
	if path == "" {
		return nil, fmt.Errorf("no config path")
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}
	dir := filepath.Dir(path)
	if err := watcher.Add(dir); err != nil {
		watcher.Close()
		return nil, fmt.Errorf("watch %s: %w", dir, err)
	}

	out := make(chan Reload, 1)
	settled := make(chan struct{}, 1)
	quiet := debounce.New(settleDelay)
	go func() {
		defer watcher.Close()
		defer close(out)
		defer quiet.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Clean(ev.Name) != filepath.Clean(path) {
					continue
				}
				if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) {
					continue
				}
				quiet.Trigger(func() {
					select {
					case settled <- struct{}{}:
					default:
					}
				})
			case <-settled:
				cfg, err := LoadFromPath(path)
				select {
				case out <- Reload{Config: cfg, Err: err}:
				case <-ctx.Done():
					return
				}
			case _, ok := <-watcher.Errors:
				if !ok {
					return
				}
			}
		}
	}()
	return out, nil
}
