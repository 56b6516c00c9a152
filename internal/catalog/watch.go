package catalog

import (
	"context"
	"fmt"
	"time"

	"github.com/fsnotify/fsnotify"
)

const watchDebounce = 250 * time.Millisecond

// Watch rescans the models directory whenever a model file changes. It blocks
// until ctx is done and returns nil in that case.
func (c *Catalog) Watch(ctx context.Context) error {
	if c.dir == "" {
		<-ctx.Done()
		return nil
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer w.Close()
	if err := w.Add(c.dir); err != nil {
		return fmt.Errorf("watch %s: %w", c.dir, err)
	}

	var timer *time.Timer
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if !isModelFile(ev.Name) {
				continue
			}
			if ev.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			if timer != nil {
				timer.Stop()
			}
			timer = time.AfterFunc(watchDebounce, func() {
				if err := c.Rescan(); err != nil {
					c.log.Error().Err(err).Str("dir", c.dir).Msg("catalog rescan failed")
				}
			})
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			c.log.Error().Err(err).Msg("catalog watcher error")
		}
	}
}
