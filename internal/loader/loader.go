// Package loader discovers and loads plugin manifests from a directory
// tree. Manifests can be loaded eagerly, lazily on first use, or hot
// reloaded when the files change on disk.
package loader

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/goatkit/plugkit/internal/registry"
	"github.com/goatkit/plugkit/pkg/manifest"
)

// Manifest filenames recognized during discovery.
const (
	PluginManifestName  = "plugin.toml"
	PackageManifestName = "package.toml"
)

const debounceDelay = 500 * time.Millisecond

// Discovered holds info about a manifest found during a scan.
type Discovered struct {
	Path     string // full path to the manifest file
	Package  bool   // true for package.toml
	Loaded   bool
	LoadedAt time.Time
	IDs      []string // plugin ids, known once loaded
}

// Loader scans a directory for manifests and registers them.
type Loader struct {
	dir      string
	registry *registry.Registry
	logger   *slog.Logger

	// Lazy loading
	mu         sync.RWMutex
	discovered map[string]*Discovered // manifest path -> discovery info
	lazy       bool

	// Hot reload
	watcher     *fsnotify.Watcher
	watchCtx    context.Context
	watchCancel context.CancelFunc
	watchMu     sync.Mutex
	debounce    map[string]*time.Timer
}

// Option configures a Loader.
type Option func(*Loader)

// WithLazyLoading makes LoadAll record manifests without parsing them;
// EnsureLoaded parses on first use.
func WithLazyLoading() Option {
	return func(l *Loader) {
		l.lazy = true
	}
}

// New creates a manifest loader for the given directory.
func New(dir string, reg *registry.Registry, logger *slog.Logger, opts ...Option) *Loader {
	if logger == nil {
		logger = slog.Default()
	}
	l := &Loader{
		dir:        dir,
		registry:   reg,
		logger:     logger,
		discovered: make(map[string]*Discovered),
		debounce:   make(map[string]*time.Timer),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

func isManifestFile(path string) bool {
	base := filepath.Base(path)
	return base == PluginManifestName || base == PackageManifestName
}

// DiscoverAll scans the directory tree and records manifests without
// parsing them. Returns the number discovered.
func (l *Loader) DiscoverAll() (int, error) {
	if _, err := os.Stat(l.dir); os.IsNotExist(err) {
		l.logger.Info("plugin directory does not exist, creating", "path", l.dir)
		if err := os.MkdirAll(l.dir, 0755); err != nil {
			return 0, fmt.Errorf("create plugin dir: %w", err)
		}
		return 0, nil
	}

	discovered := 0
	err := filepath.WalkDir(l.dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !isManifestFile(path) {
			return nil
		}

		l.mu.Lock()
		if _, exists := l.discovered[path]; !exists {
			l.discovered[path] = &Discovered{
				Path:    path,
				Package: filepath.Base(path) == PackageManifestName,
			}
			discovered++
			l.logger.Debug("discovered manifest", "path", path)
		}
		l.mu.Unlock()
		return nil
	})

	return discovered, err
}

// DiscoveredManifests returns discovery info for every known manifest.
func (l *Loader) DiscoveredManifests() []*Discovered {
	l.mu.RLock()
	defer l.mu.RUnlock()

	result := make([]*Discovered, 0, len(l.discovered))
	for _, d := range l.discovered {
		result = append(result, d)
	}
	return result
}

// EnsureLoaded parses and registers a discovered manifest if it has not
// been loaded yet.
func (l *Loader) EnsureLoaded(path string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	d, exists := l.discovered[path]
	if !exists {
		return fmt.Errorf("manifest %q not discovered", path)
	}
	if d.Loaded {
		return nil
	}

	l.logger.Info("lazy loading manifest", "path", path)
	return l.loadLocked(d)
}

// LoadAll discovers and loads every manifest under the directory. With lazy
// loading it only discovers. Returns the number loaded (or discovered) and
// any per-manifest errors; one bad manifest does not stop the others.
func (l *Loader) LoadAll() (int, []error) {
	if l.lazy {
		count, err := l.DiscoverAll()
		if err != nil {
			return count, []error{err}
		}
		l.logger.Info("lazy loading enabled", "discovered", count)
		return count, nil
	}

	if _, err := l.DiscoverAll(); err != nil {
		return 0, []error{fmt.Errorf("walk plugin dir: %w", err)}
	}

	var errs []error
	loaded := 0

	l.mu.Lock()
	defer l.mu.Unlock()
	for _, path := range l.sortedPathsLocked() {
		d := l.discovered[path]
		if d.Loaded {
			continue
		}
		if err := l.loadLocked(d); err != nil {
			errs = append(errs, fmt.Errorf("load %s: %w", path, err))
			continue
		}
		loaded++
	}
	return loaded, errs
}

func (l *Loader) sortedPathsLocked() []string {
	paths := make([]string, 0, len(l.discovered))
	for path := range l.discovered {
		paths = append(paths, path)
	}
	// WalkDir order is lexical already, but the map loses it.
	sort.Strings(paths)
	return paths
}

// loadLocked parses a manifest and registers it. Caller holds l.mu.
func (l *Loader) loadLocked(d *Discovered) error {
	m, err := manifest.ParseFile(d.Path)
	if err != nil {
		return err
	}

	if err := l.registry.Register(m); err != nil {
		return err
	}

	d.Loaded = true
	d.LoadedAt = time.Now()
	d.IDs = m.PluginIDs()

	l.logger.Info("loaded manifest",
		"path", d.Path,
		"id", m.ID(),
		"version", m.Version(),
		"package", m.IsPackage(),
		"plugins", len(d.IDs),
	)
	return nil
}

// Load parses and registers a single manifest from an arbitrary path.
func (l *Loader) Load(path string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	d, exists := l.discovered[path]
	if !exists {
		d = &Discovered{
			Path:    path,
			Package: filepath.Base(path) == PackageManifestName,
		}
		l.discovered[path] = d
	}
	if d.Loaded {
		return nil
	}
	return l.loadLocked(d)
}

// Unload unregisters every plugin id a manifest contributed.
func (l *Loader) Unload(path string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.unloadLocked(path)
}

func (l *Loader) unloadLocked(path string) error {
	d, exists := l.discovered[path]
	if !exists || !d.Loaded {
		return fmt.Errorf("manifest %q not loaded", path)
	}
	for _, id := range d.IDs {
		if err := l.registry.Unregister(id); err != nil {
			return err
		}
	}
	d.Loaded = false
	d.IDs = nil
	return nil
}

// Reload unloads (if loaded) and re-parses a manifest.
func (l *Loader) Reload(path string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if d, exists := l.discovered[path]; exists && d.Loaded {
		if err := l.unloadLocked(path); err != nil {
			return fmt.Errorf("unload: %w", err)
		}
	}

	d := &Discovered{
		Path:    path,
		Package: filepath.Base(path) == PackageManifestName,
	}
	l.discovered[path] = d
	return l.loadLocked(d)
}

// WatchDir sets up a file watcher for hot reload. Manifest creations,
// edits, and removals re-register or unregister the affected plugins.
func (l *Loader) WatchDir(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}

	l.watchMu.Lock()
	l.watcher = watcher
	l.watchCtx, l.watchCancel = context.WithCancel(ctx)
	l.watchMu.Unlock()

	if err := watcher.Add(l.dir); err != nil {
		watcher.Close()
		return fmt.Errorf("watch plugin dir: %w", err)
	}

	// Manifests usually sit one directory per plugin; watch those too.
	filepath.WalkDir(l.dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil || !d.IsDir() {
			return nil
		}
		watcher.Add(path)
		return nil
	})

	l.logger.Info("hot reload enabled", "path", l.dir)

	go l.watchLoop()
	return nil
}

// StopWatch stops the file watcher.
func (l *Loader) StopWatch() {
	l.watchMu.Lock()
	defer l.watchMu.Unlock()

	if l.watchCancel != nil {
		l.watchCancel()
	}
	if l.watcher != nil {
		l.watcher.Close()
		l.watcher = nil
	}
}

func (l *Loader) watchLoop() {
	for {
		select {
		case <-l.watchCtx.Done():
			return

		case event, ok := <-l.watcher.Events:
			if !ok {
				return
			}
			l.handleFSEvent(event)

		case err, ok := <-l.watcher.Errors:
			if !ok {
				return
			}
			l.logger.Error("watcher error", "error", err)
		}
	}
}

// handleFSEvent debounces rapid changes (e.g. editors writing in chunks)
// before acting on them.
func (l *Loader) handleFSEvent(event fsnotify.Event) {
	if !isManifestFile(event.Name) {
		return
	}

	l.watchMu.Lock()
	if timer, exists := l.debounce[event.Name]; exists {
		timer.Stop()
	}
	l.debounce[event.Name] = time.AfterFunc(debounceDelay, func() {
		l.processFileChange(event)
	})
	l.watchMu.Unlock()
}

func (l *Loader) processFileChange(event fsnotify.Event) {
	path := event.Name

	switch {
	case event.Op&fsnotify.Create == fsnotify.Create:
		l.logger.Info("new manifest detected", "path", path)
		if err := l.Load(path); err != nil {
			l.logger.Error("failed to load new manifest", "path", path, "error", err)
		}

	case event.Op&fsnotify.Write == fsnotify.Write:
		l.logger.Info("manifest modified, reloading", "path", path)
		if err := l.Reload(path); err != nil {
			l.logger.Error("failed to reload manifest", "path", path, "error", err)
		}

	case event.Op&fsnotify.Remove == fsnotify.Remove:
		l.logger.Info("manifest removed", "path", path)
		if err := l.Unload(path); err != nil {
			l.logger.Warn("failed to unload removed manifest", "path", path, "error", err)
		}

	case event.Op&fsnotify.Rename == fsnotify.Rename:
		// The new name will arrive as a Create event.
		l.logger.Info("manifest renamed", "path", path)
		l.Unload(path)
	}

	l.watchMu.Lock()
	delete(l.debounce, path)
	l.watchMu.Unlock()
}
