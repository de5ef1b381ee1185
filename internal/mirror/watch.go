package mirror

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
)

const defaultDebounce = 300 * time.Millisecond

// WatchOptions configures Watch.
type WatchOptions struct {
	// Debounce delays a sync until edits have settled.
	Debounce time.Duration
	// OnSync receives the outcome of every sync, including the initial one.
	OnSync func(*Report, error)
}

// Watch runs a sync, then re-runs it whenever a selected pristine file is
// written, created or renamed, until ctx is done. Syncs run one at a time
// on the calling goroutine. Sync failures go to OnSync and do not stop the
// watch.
func Watch(ctx context.Context, req Request, opts WatchOptions) error {
	if len(req.Selected) == 0 {
		return ErrNoSelection
	}
	if opts.Debounce <= 0 {
		opts.Debounce = defaultDebounce
	}
	logger := zerolog.Nop()
	if req.Logger != nil {
		logger = *req.Logger
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("watch: %w", err)
	}
	defer w.Close()

	selected := make(map[string]bool, len(req.Selected))
	dirs := make(map[string]bool)
	for _, p := range req.Selected {
		clean := filepath.Clean(p)
		selected[clean] = true
		dirs[filepath.Dir(clean)] = true
	}
	// каталоги, а не файлы: редакторы сохраняют через rename
	for d := range dirs {
		if err := w.Add(d); err != nil {
			return fmt.Errorf("watch %s: %w", d, err)
		}
	}

	run := func() {
		rep, err := Sync(ctx, req)
		if opts.OnSync != nil {
			opts.OnSync(rep, err)
		}
	}
	run()

	var (
		timer *time.Timer
		fire  <-chan time.Time
	)
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
			if !selected[filepath.Clean(ev.Name)] {
				continue
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			logger.Debug().Str("file", ev.Name).Str("op", ev.Op.String()).Msg("change detected")
			if timer == nil {
				timer = time.NewTimer(opts.Debounce)
			} else {
				timer.Reset(opts.Debounce)
			}
			fire = timer.C
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Warn().Err(err).Msg("watcher error")
		case <-fire:
			fire = nil
			run()
		}
	}
}
