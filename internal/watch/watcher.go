// Package watch re-validates registered repositories when they disappear
// from disk or on a fixed interval.
package watch

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// DefaultDebounce collapses bursts of filesystem events into one validation.
const DefaultDebounce = 200 * time.Millisecond

// ValidateFunc runs one validation pass.
type ValidateFunc func(ctx context.Context) error

// Options tunes a RepoWatcher.
type Options struct {
	// Interval between periodic validations. Zero disables the ticker.
	Interval time.Duration

	// Debounce is the quiet period after a remove/rename before validating.
	Debounce time.Duration
}

// RepoWatcher watches the parent directories of repository paths and calls
// the validate func when a repository directory is removed or renamed.
type RepoWatcher struct {
	paths    func() []string
	validate ValidateFunc
	opts     Options
	logger   *zap.Logger

	// repos holds the cleaned repository paths; dirs the watched parents.
	repos map[string]bool
	dirs  map[string]bool
}

// NewRepoWatcher creates a watcher. paths is consulted at start and after
// every validation so pruned repositories stop being watched.
func NewRepoWatcher(paths func() []string, validate ValidateFunc, opts Options, logger *zap.Logger) *RepoWatcher {
	if opts.Debounce <= 0 {
		opts.Debounce = DefaultDebounce
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RepoWatcher{
		paths:    paths,
		validate: validate,
		opts:     opts,
		logger:   logger,
		repos:    make(map[string]bool),
		dirs:     make(map[string]bool),
	}
}

// Run blocks until ctx is done. Validation errors are logged, not returned.
func (w *RepoWatcher) Run(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}
	defer fw.Close()

	w.sync(fw)

	var tick <-chan time.Time
	if w.opts.Interval > 0 {
		ticker := time.NewTicker(w.opts.Interval)
		defer ticker.Stop()
		tick = ticker.C
	}

	var debounce *time.Timer
	var fire <-chan time.Time
	defer func() {
		if debounce != nil {
			debounce.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if !event.Has(fsnotify.Remove) && !event.Has(fsnotify.Rename) {
				continue
			}
			if !w.repos[filepath.Clean(event.Name)] {
				continue
			}
			w.logger.Info("repository moved or removed", zap.String("path", event.Name))
			if debounce == nil {
				debounce = time.NewTimer(w.opts.Debounce)
			} else {
				debounce.Reset(w.opts.Debounce)
			}
			fire = debounce.C

		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("watch error", zap.Error(err))

		case <-fire:
			fire = nil
			w.runValidate(ctx, fw)

		case <-tick:
			w.runValidate(ctx, fw)
		}
	}
}

func (w *RepoWatcher) runValidate(ctx context.Context, fw *fsnotify.Watcher) {
	if err := w.validate(ctx); err != nil {
		w.logger.Warn("repository validation failed", zap.Error(err))
	}
	w.sync(fw)
}

// sync reconciles the watched parent directories with the current paths.
func (w *RepoWatcher) sync(fw *fsnotify.Watcher) {
	repos := make(map[string]bool)
	dirs := make(map[string]bool)
	for _, p := range w.paths() {
		clean := filepath.Clean(p)
		repos[clean] = true
		dirs[filepath.Dir(clean)] = true
	}

	for dir := range dirs {
		if w.dirs[dir] {
			continue
		}
		if err := fw.Add(dir); err != nil {
			w.logger.Debug("cannot watch directory", zap.String("dir", dir), zap.Error(err))
			delete(dirs, dir)
			continue
		}
		w.logger.Debug("watching directory", zap.String("dir", dir))
	}
	for dir := range w.dirs {
		if !dirs[dir] {
			_ = fw.Remove(dir)
		}
	}

	w.repos = repos
	w.dirs = dirs
}
