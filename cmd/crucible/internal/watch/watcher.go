package watch

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/crucible-build/crucible/internal/log"
	"github.com/crucible-build/crucible/internal/target"
)

// Target is one watched on-disk target: its resolved identity and the path
// backing it.
type Target struct {
	ID   target.ResolvedID
	Path string
}

// Config configures the watcher.
type Config struct {
	// Targets are the on-disk targets to watch.
	Targets []Target

	// Debounce is the event coalescing window.
	Debounce time.Duration

	// OnChange receives the identities of targets whose backing paths
	// saw filesystem activity, after debouncing.
	OnChange func(ids []target.ResolvedID)
}

// Watcher watches the directories backing a set of targets and reports
// which targets were touched. It watches parent directories rather than the
// paths themselves so that deletions and renames are seen too.
type Watcher struct {
	config    Config
	fsWatcher *fsnotify.Watcher
	debouncer *Debouncer
	byPath    map[string]target.ResolvedID // exact path -> target
	prefixes  []Target                     // folder targets, matched by prefix
	logger    *slog.Logger
}

// New creates a watcher for the given configuration.
func New(cfg Config) (*Watcher, error) {
	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}

	w := &Watcher{
		config:    cfg,
		fsWatcher: fsWatcher,
		byPath:    make(map[string]target.ResolvedID, len(cfg.Targets)),
		logger:    log.Component("watch"),
	}
	w.debouncer = NewDebouncer(cfg.Debounce, w.handleChanged)

	dirs := make(map[string]struct{})
	for _, t := range cfg.Targets {
		w.byPath[t.Path] = t.ID
		if strings.HasSuffix(string(t.ID), target.FolderSuffix) {
			w.prefixes = append(w.prefixes, t)
			// Watching the parent only surfaces changes to the folder
			// entry itself. Entries appearing or disappearing inside the
			// folder change its fingerprint too, so the folder must be
			// watched as well when it already exists.
			if fi, err := os.Stat(t.Path); err == nil && fi.IsDir() {
				dirs[t.Path] = struct{}{}
			}
		}
		dirs[filepath.Dir(t.Path)] = struct{}{}
	}
	for dir := range dirs {
		if err := fsWatcher.Add(dir); err != nil {
			_ = fsWatcher.Close()
			return nil, fmt.Errorf("failed to watch %s: %w", dir, err)
		}
	}

	return w, nil
}

// Run processes filesystem events until ctx is cancelled.
func (w *Watcher) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			w.debouncer.Stop()
			return ctx.Err()
		case event, ok := <-w.fsWatcher.Events:
			if !ok {
				return nil
			}
			w.handleEvent(event)
		case err, ok := <-w.fsWatcher.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("watch error", "error", err)
		}
	}
}

func (w *Watcher) handleEvent(event fsnotify.Event) {
	if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) &&
		!event.Has(fsnotify.Remove) && !event.Has(fsnotify.Rename) {
		return // ignore chmod-only events
	}

	id, ok := w.match(event.Name)
	if !ok {
		return
	}
	w.logger.Debug("file changed", "path", event.Name, "target", string(id))
	w.debouncer.Add(string(id))
}

// match maps an event path back to a watched target: exact match for file
// targets, prefix match for folder targets.
func (w *Watcher) match(path string) (target.ResolvedID, bool) {
	if id, ok := w.byPath[path]; ok {
		return id, true
	}
	for _, t := range w.prefixes {
		if strings.HasPrefix(path, t.Path+string(filepath.Separator)) {
			return t.ID, true
		}
	}
	return "", false
}

func (w *Watcher) handleChanged(ids []string) {
	if w.config.OnChange == nil {
		return
	}
	resolved := make([]target.ResolvedID, len(ids))
	for i, id := range ids {
		resolved[i] = target.ResolvedID(id)
	}
	w.config.OnChange(resolved)
}

// Close closes the watcher and releases its resources.
func (w *Watcher) Close() error {
	if w.fsWatcher != nil {
		return w.fsWatcher.Close()
	}
	return nil
}
