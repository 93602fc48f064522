package internal

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

const debounceDelay = 300 * time.Millisecond

// RebuildFunc rebuilds the named packages.
type RebuildFunc func(ctx context.Context, packages []string)

// Watcher maps watched directories to the packages that depend on them and
// triggers debounced rebuilds when files change.
type Watcher struct {
	fsw     *fsnotify.Watcher
	logger  zerolog.Logger
	rebuild RebuildFunc
	roots   map[string][]string
	// roots that did not exist yet; their nearest existing parent is watched
	missing map[string]struct{}

	mu      sync.Mutex
	timer   *time.Timer
	dirty   map[string]struct{}
	pending chan []string
}

func NewWatcher(configs []BuildConfig, logger zerolog.Logger, rebuild RebuildFunc) (*Watcher, error) {
	roots := map[string][]string{}
	for _, cfg := range configs {
		for _, pc := range cfg.Plugins {
			if pc.Kind != KindWasmPack || pc.WasmPack == nil {
				continue
			}
			dirs := append([]string{filepath.Join(pc.WasmPack.CrateDirectory, "src")}, pc.WasmPack.WatchDirectories...)
			dirs = append(dirs, filepath.Join(pc.WasmPack.CrateDirectory, staticDir))
			for _, dir := range dirs {
				roots[dir] = appendUnique(roots[dir], cfg.Name)
			}
		}
	}
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, errors.Wrap(err, "fsnotify")
	}
	w := &Watcher{
		fsw:     fsw,
		logger:  logger,
		rebuild: rebuild,
		roots:   roots,
		missing: map[string]struct{}{},
		dirty:   map[string]struct{}{},
		pending: make(chan []string, 1),
	}
	for dir := range roots {
		if _, err := os.Stat(dir); err != nil {
			logger.Warn().Str("dir", dir).Msg("watch directory does not exist yet, waiting for it")
			w.missing[dir] = struct{}{}
			w.watchParent(dir)
			continue
		}
		if err := w.addRecursive(dir); err != nil {
			_ = fsw.Close()
			return nil, err
		}
	}
	return w, nil
}

// Run blocks until ctx is done. Rebuilds never overlap.
func (w *Watcher) Run(ctx context.Context) error {
	defer func() { _ = w.fsw.Close() }()
	go w.rebuildLoop(ctx)
	for {
		select {
		case <-ctx.Done():
			w.mu.Lock()
			if w.timer != nil {
				w.timer.Stop()
			}
			w.mu.Unlock()
			return nil
		case ev, ok := <-w.fsw.Events:
			if !ok {
				return nil
			}
			w.handleEvent(ev)
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn().Err(err).Msg("watcher error")
		}
	}
}

func (w *Watcher) handleEvent(ev fsnotify.Event) {
	if ShouldIgnore(ev.Name) {
		return
	}
	packages := w.PackagesFor(ev.Name)
	if ev.Op&fsnotify.Create == fsnotify.Create {
		if fi, err := os.Stat(ev.Name); err == nil && fi.IsDir() {
			if len(packages) > 0 {
				_ = w.addRecursive(ev.Name)
			}
			w.resolveMissing(ev.Name)
		}
	}
	if len(packages) == 0 {
		return
	}
	w.logger.Debug().Str("path", ev.Name).Str("op", ev.Op.String()).Msg("change detected")
	w.trigger(packages)
}

// PackagesFor returns the packages whose watch roots contain path.
func (w *Watcher) PackagesFor(path string) []string {
	var out []string
	for dir, packages := range w.roots {
		rel, err := filepath.Rel(dir, path)
		if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
			continue
		}
		for _, p := range packages {
			out = appendUnique(out, p)
		}
	}
	sort.Strings(out)
	return out
}

func (w *Watcher) trigger(packages []string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	for _, p := range packages {
		w.dirty[p] = struct{}{}
	}
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(debounceDelay, w.flush)
}

func (w *Watcher) flush() {
	w.mu.Lock()
	batch := make([]string, 0, len(w.dirty))
	for p := range w.dirty {
		batch = append(batch, p)
	}
	w.dirty = map[string]struct{}{}
	w.mu.Unlock()
	sort.Strings(batch)
	if len(batch) == 0 {
		return
	}
	select {
	case w.pending <- batch:
	default:
		// a batch is already queued; fold this one back in for the next flush
		w.mu.Lock()
		for _, p := range batch {
			w.dirty[p] = struct{}{}
		}
		w.timer = time.AfterFunc(debounceDelay, w.flush)
		w.mu.Unlock()
	}
}

func (w *Watcher) rebuildLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case batch := <-w.pending:
			w.logger.Info().Strs("packages", batch).Msg("rebuilding")
			w.rebuild(ctx, batch)
		}
	}
}

// watchParent watches the closest existing ancestor of dir so its creation
// is noticed.
func (w *Watcher) watchParent(dir string) {
	for parent := filepath.Dir(dir); ; parent = filepath.Dir(parent) {
		if fi, err := os.Stat(parent); err == nil && fi.IsDir() {
			if err := w.fsw.Add(parent); err != nil {
				w.logger.Warn().Err(err).Str("dir", parent).Msg("watch add failed")
			}
			return
		}
		if parent == filepath.Dir(parent) {
			return
		}
	}
}

// resolveMissing starts watching missing roots at or below a created dir.
func (w *Watcher) resolveMissing(created string) {
	for dir := range w.missing {
		rel, err := filepath.Rel(created, dir)
		if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
			continue
		}
		if _, err := os.Stat(dir); err != nil {
			w.watchParent(dir)
			continue
		}
		delete(w.missing, dir)
		w.logger.Info().Str("dir", dir).Msg("watch directory appeared")
		_ = w.addRecursive(dir)
	}
}

func (w *Watcher) addRecursive(root string) error {
	return filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if path != root && (ShouldIgnore(path) || d.Name() == "pkg" || d.Name() == "target") {
			return filepath.SkipDir
		}
		if err := w.fsw.Add(path); err != nil {
			w.logger.Warn().Err(err).Str("dir", path).Msg("watch add failed")
		}
		return nil
	})
}

// ShouldIgnore reports whether a change to path must not trigger a rebuild:
// hidden files and editor temp files.
func ShouldIgnore(path string) bool {
	base := filepath.Base(path)
	switch {
	case strings.HasPrefix(base, "."),
		strings.HasSuffix(base, "~"),
		strings.HasSuffix(base, ".swp"),
		strings.HasSuffix(base, ".swx"),
		strings.HasPrefix(base, "#") && strings.HasSuffix(base, "#"):
		return true
	}
	return false
}

func appendUnique(list []string, v string) []string {
	for _, s := range list {
		if s == v {
			return list
		}
	}
	return append(list, v)
}
