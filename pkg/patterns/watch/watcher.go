package watch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce is the quiet period used when Config.Debounce is zero.
const DefaultDebounce = 100 * time.Millisecond

// Config contains configuration for New.
type Config struct {
	// Paths are library files or directories to watch. Directories are
	// not watched recursively.
	Paths []string

	// Debounce is the quiet period before a change is reported.
	Debounce time.Duration

	// Extensions limits which files in watched directories count.
	// Default: .yaml, .yml
	Extensions []string
}

// Watcher reports debounced changes to pattern library files.
type Watcher struct {
	watcher  *fsnotify.Watcher
	logger   *slog.Logger
	debounce time.Duration
	exts     map[string]bool
	files    map[string]bool
	dirs     map[string]bool
}

var errEventsClosed = errors.New("watcher events channel closed")

// New creates a watcher and starts watching cfg.Paths. Files are watched
// through their parent directory so replace-by-rename saves are seen.
func New(cfg Config, logger *slog.Logger) (*Watcher, error) {
	if len(cfg.Paths) == 0 {
		return nil, errors.New("no paths to watch")
	}
	if logger == nil {
		logger = slog.Default().With("component", "patterns.watch")
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}

	w := &Watcher{
		watcher:  fsw,
		logger:   logger,
		debounce: cfg.Debounce,
		exts:     make(map[string]bool),
		files:    make(map[string]bool),
		dirs:     make(map[string]bool),
	}
	if w.debounce <= 0 {
		w.debounce = DefaultDebounce
	}
	exts := cfg.Extensions
	if len(exts) == 0 {
		exts = []string{".yaml", ".yml"}
	}
	for _, ext := range exts {
		w.exts[strings.ToLower(ext)] = true
	}

	for _, path := range cfg.Paths {
		if err := w.add(filepath.Clean(path)); err != nil {
			fsw.Close()
			return nil, err
		}
	}
	return w, nil
}

func (w *Watcher) add(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("failed to watch %q: %w", path, err)
	}

	dir := path
	if info.IsDir() {
		w.dirs[path] = true
	} else {
		w.files[path] = true
		dir = filepath.Dir(path)
	}

	if err := w.watcher.Add(dir); err != nil {
		return fmt.Errorf("failed to watch directory %q: %w", dir, err)
	}
	w.logger.Debug("watching", "path", path)
	return nil
}

// Run blocks until ctx is canceled, calling onChange with the last changed
// path after each burst of changes settles. onChange runs on Run's
// goroutine, so a slow callback delays the next report instead of
// overlapping it.
func (w *Watcher) Run(ctx context.Context, onChange func(path string)) error {
	var (
		timer   *time.Timer
		timerC  <-chan time.Time
		pending string
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

		case event, ok := <-w.watcher.Events:
			if !ok {
				return errEventsClosed
			}
			if !w.relevant(event) {
				continue
			}
			w.logger.Debug("file event", "path", event.Name, "op", event.Op.String())

			pending = filepath.Clean(event.Name)
			if timer == nil {
				timer = time.NewTimer(w.debounce)
			} else {
				timer.Reset(w.debounce)
			}
			timerC = timer.C

		case <-timerC:
			timerC = nil
			onChange(pending)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return errEventsClosed
			}
			w.logger.Warn("file watcher error", "error", err)
		}
	}
}

// Close stops watching.
func (w *Watcher) Close() error {
	return w.watcher.Close()
}

// relevant reports whether event concerns a watched library file.
func (w *Watcher) relevant(event fsnotify.Event) bool {
	if event.Op == fsnotify.Chmod {
		return false
	}

	name := filepath.Clean(event.Name)
	if w.files[name] {
		return true
	}
	if !w.dirs[filepath.Dir(name)] {
		return false
	}
	if strings.HasPrefix(filepath.Base(name), ".") {
		return false
	}
	return w.exts[strings.ToLower(filepath.Ext(name))]
}
