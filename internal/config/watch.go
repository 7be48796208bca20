package config

import (
	"context"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"golang.org/x/time/rate"
)

// reloadInterval is both how long the file must stay quiet before it is
// reloaded and the minimum delay between two reloads. Editors often write a
// file in several steps.
const reloadInterval = 250 * time.Millisecond

// Watch calls fn with the new configuration each time the file at path is
// written, until ctx is canceled. A reload happens once no write was seen for
// reloadInterval, so a burst of events, including the first, is coalesced
// into a single reload of the final content. An invalid file is logged and
// skipped.
func Watch(ctx context.Context, path string, fn func(*Config)) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	// Watch the directory; editors replace the file by renaming over it.
	if err := w.Add(filepath.Dir(path)); err != nil {
		_ = w.Close()
		return err
	}
	name := filepath.Clean(path)
	lim := rate.NewLimiter(rate.Every(reloadInterval), 1)
	go func() {
		defer func() { _ = w.Close() }()
		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-w.Events:
				if !ok {
					return
				}
				if !relevant(event, name) {
					continue
				}
				if !settle(ctx, w.Events, name) {
					return
				}
				if err := lim.Wait(ctx); err != nil {
					return
				}
				drain(w.Events)
				cfg, err := Load(path)
				if err != nil {
					slog.WarnContext(ctx, "Ignoring invalid config", "path", path, "err", err)
					continue
				}
				slog.InfoContext(ctx, "Config reloaded", "path", path)
				fn(cfg)
			case err, ok := <-w.Errors:
				if !ok {
					return
				}
				slog.WarnContext(ctx, "Error watching config", "err", err)
			}
		}
	}()
	return nil
}

func relevant(event fsnotify.Event, name string) bool {
	return filepath.Clean(event.Name) == name && (event.Has(fsnotify.Write) || event.Has(fsnotify.Create))
}

// settle waits until no relevant event arrived for reloadInterval. It returns
// false when ctx is canceled or events is closed.
func settle(ctx context.Context, events <-chan fsnotify.Event, name string) bool {
	t := time.NewTimer(reloadInterval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return false
		case event, ok := <-events:
			if !ok {
				return false
			}
			if relevant(event, name) {
				t.Reset(reloadInterval)
			}
		case <-t.C:
			return true
		}
	}
}

// drain discards the events already queued.
func drain(events <-chan fsnotify.Event) {
	for {
		select {
		case _, ok := <-events:
			if !ok {
				return
			}
		default:
			return
		}
	}
}
