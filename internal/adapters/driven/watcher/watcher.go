// Package watcher reports changes to study material files in a directory
// tree using fsnotify. Hidden files and directories are never reported.
package watcher

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/abhinay-x/studymate-sub000/internal/core/domain"
	"github.com/abhinay-x/studymate-sub000/internal/core/ports/driven"
	"github.com/abhinay-x/studymate-sub000/internal/logger"
	"github.com/abhinay-x/studymate-sub000/internal/normalisers"
)

// Ensure Watcher implements the interface.
var _ driven.FileWatcher = (*Watcher)(nil)

// DefaultDebounce is how long a file must be quiet before its change is reported.
const DefaultDebounce = 300 * time.Millisecond

// Matcher decides which files are study material.
type Matcher interface {
	Supports(path string) bool
}

// Watcher watches one directory tree.
type Watcher struct {
	root     string
	matcher  Matcher
	debounce time.Duration

	mu  sync.Mutex
	fsw *fsnotify.Watcher
}

// Option configures a Watcher.
type Option func(*Watcher)

// WithDebounce sets the quiet period. Zero reports every event immediately.
func WithDebounce(d time.Duration) Option {
	return func(w *Watcher) {
		if d >= 0 {
			w.debounce = d
		}
	}
}

// New creates a watcher for root.
func New(root string, matcher Matcher, opts ...Option) (*Watcher, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve %s: %w", root, err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("watch %s: %w", root, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("watch %s: %w: not a directory", root, domain.ErrInvalidInput)
	}

	w := &Watcher{root: abs, matcher: matcher, debounce: DefaultDebounce}
	for _, opt := range opts {
		opt(w)
	}
	return w, nil
}

// Root returns the absolute watched directory.
func (w *Watcher) Root() string {
	return w.root
}

// Scan lists the supported files already under the root, sorted by path.
func (w *Watcher) Scan(ctx context.Context) ([]domain.FileChange, error) {
	var changes []domain.FileChange
	err := filepath.WalkDir(w.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			logger.Warn("Skipping %s: %v", path, err)
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if path != w.root && normalisers.IsHidden(d.Name()) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() || !w.matcher.Supports(path) {
			return nil
		}
		changes = append(changes, change(domain.ChangeCreated, path))
		return nil
	})
	if err != nil {
		return nil, domain.ContextError(err)
	}
	return changes, nil
}

// Watch starts watching the tree. Directories created later are watched too.
func (w *Watcher) Watch(ctx context.Context) (<-chan domain.FileChange, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}

	w.mu.Lock()
	if w.fsw != nil {
		w.mu.Unlock()
		_ = fsw.Close()
		return nil, errors.New("watcher already started")
	}
	w.fsw = fsw
	w.mu.Unlock()

	if err := w.addTree(w.root); err != nil {
		_ = w.Close()
		return nil, err
	}

	out := make(chan domain.FileChange)
	go w.loop(ctx, fsw, out)

	logger.Info("Watching %s", w.root)
	return out, nil
}

// Close stops watching. It is safe to call more than once.
func (w *Watcher) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.fsw == nil {
		return nil
	}
	err := w.fsw.Close()
	w.fsw = nil
	return err
}

func (w *Watcher) loop(ctx context.Context, fsw *fsnotify.Watcher, out chan<- domain.FileChange) {
	defer close(out)

	pending := make(map[string]domain.FileChange)
	var (
		timer *time.Timer
		fire  <-chan time.Time
	)
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	send := func(c domain.FileChange) bool {
		select {
		case out <- c:
			return true
		case <-ctx.Done():
			return false
		}
	}

	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-fsw.Events:
			if !ok {
				return
			}
			for _, c := range w.handleEvent(event) {
				if w.debounce == 0 {
					if !send(c) {
						return
					}
					continue
				}
				pending[c.Path] = merge(pending[c.Path], c)
			}
			if len(pending) > 0 {
				if timer != nil {
					timer.Stop()
				}
				timer = time.NewTimer(w.debounce)
				fire = timer.C
			}

		case <-fire:
			fire = nil
			paths := make([]string, 0, len(pending))
			for p := range pending {
				paths = append(paths, p)
			}
			sort.Strings(paths)
			for _, p := range paths {
				c := pending[p]
				delete(pending, p)
				if !send(c) {
					return
				}
			}

		case err, ok := <-fsw.Errors:
			if !ok {
				return
			}
			logger.Warn("Watch error: %v", err)
		}
	}
}

// handleEvent converts an fsnotify event into changes. A new directory is
// added to the watch list and its existing files are reported as created.
func (w *Watcher) handleEvent(event fsnotify.Event) []domain.FileChange {
	path := event.Name
	if w.hidden(path) {
		return nil
	}

	if event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename) {
		if !w.matcher.Supports(path) {
			return nil
		}
		return []domain.FileChange{change(domain.ChangeDeleted, path)}
	}

	if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) {
		return nil
	}

	info, err := os.Stat(path)
	if err != nil {
		return nil
	}
	if info.IsDir() {
		if !event.Has(fsnotify.Create) {
			return nil
		}
		if err := w.addTree(path); err != nil {
			logger.Warn("Cannot watch %s: %v", path, err)
		}
		return w.filesUnder(path)
	}
	if !w.matcher.Supports(path) {
		return nil
	}

	if event.Has(fsnotify.Create) {
		return []domain.FileChange{change(domain.ChangeCreated, path)}
	}
	return []domain.FileChange{change(domain.ChangeUpdated, path)}
}

// hidden reports whether any element of path below the root is hidden.
func (w *Watcher) hidden(path string) bool {
	rel, err := filepath.Rel(w.root, path)
	if err != nil {
		return false
	}
	for _, part := range strings.Split(filepath.ToSlash(rel), "/") {
		if normalisers.IsHidden(part) {
			return true
		}
	}
	return false
}

// addTree watches dir and every non-hidden directory below it.
func (w *Watcher) addTree(dir string) error {
	w.mu.Lock()
	fsw := w.fsw
	w.mu.Unlock()
	if fsw == nil {
		return errors.New("watcher closed")
	}

	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == dir {
				return err
			}
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if path != w.root && normalisers.IsHidden(d.Name()) {
			return filepath.SkipDir
		}
		if err := fsw.Add(path); err != nil {
			return fmt.Errorf("watch %s: %w", path, err)
		}
		return nil
	})
}

// filesUnder lists supported files below a newly created directory.
func (w *Watcher) filesUnder(dir string) []domain.FileChange {
	var changes []domain.FileChange
	_ = filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if normalisers.IsHidden(d.Name()) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.IsDir() && w.matcher.Supports(path) {
			changes = append(changes, change(domain.ChangeCreated, path))
		}
		return nil
	})
	return changes
}

// merge folds a new change into the pending one for the same path.
// A write right after a create is still a create.
func merge(prev, next domain.FileChange) domain.FileChange {
	if prev.Type == domain.ChangeCreated && next.Type == domain.ChangeUpdated {
		return prev
	}
	return next
}

func change(t domain.ChangeType, path string) domain.FileChange {
	return domain.FileChange{Type: t, Path: path, DocumentID: normalisers.DocumentIDForPath(path)}
}
