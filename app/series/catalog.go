package series

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/samber/lo"
	"gopkg.in/yaml.v3"
)

const catalogReloadDelay = 200 * time.Millisecond

// CatalogEntry is the per-series settings of the registry file.
type CatalogEntry struct {
	Enabled bool
}

// Catalog is the registry of known series. The file maps series id to its
// settings and may be YAML or the JSON manhwa list; entries whose value is not
// a mapping are enabled.
//
//	solo-leveling:
//	  enabled: true
//	omniscient-reader: {}
type Catalog struct {
	path    string
	entries map[string]CatalogEntry
	mu      sync.RWMutex
}

func NewCatalog(path string) *Catalog {
	return &Catalog{
		path:    path,
		entries: make(map[string]CatalogEntry),
	}
}

func (c *Catalog) Path() string {
	return c.path
}

// Reload re-reads the registry file and swaps the entries in one step.
func (c *Catalog) Reload() error {
	data, err := os.ReadFile(c.path)
	if err != nil {
		return fmt.Errorf("failed to read catalog: %w", err)
	}

	entries, err := parseCatalog(data)
	if err != nil {
		return fmt.Errorf("invalid catalog %s: %w", c.path, err)
	}

	c.mu.Lock()
	c.entries = entries
	c.mu.Unlock()

	slog.Debug("Catalog loaded", "path", c.path, "series", len(entries))
	return nil
}

// IDs returns every series id in the catalog, sorted.
func (c *Catalog) IDs() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	ids := lo.Keys(c.entries)
	sort.Strings(ids)
	return ids
}

// EnabledIDs returns the ids of enabled series, sorted.
func (c *Catalog) EnabledIDs() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	ids := lo.Keys(lo.PickBy(c.entries, func(_ string, entry CatalogEntry) bool {
		return entry.Enabled
	}))
	sort.Strings(ids)
	return ids
}

func (c *Catalog) IsEnabled(id string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()

	entry, ok := c.entries[id]
	return ok && entry.Enabled
}

func (c *Catalog) Count() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Watch reloads the catalog whenever its file changes, until ctx is done.
// The parent directory is watched so editors that replace the file by rename
// are picked up.
func (c *Catalog) Watch(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create catalog watcher: %w", err)
	}

	if err := watcher.Add(filepath.Dir(c.path)); err != nil {
		watcher.Close()
		return fmt.Errorf("failed to watch catalog directory: %w", err)
	}

	go c.watchLoop(ctx, watcher)
	return nil
}

func (c *Catalog) watchLoop(ctx context.Context, watcher *fsnotify.Watcher) {
	defer watcher.Close()

	target := filepath.Clean(c.path)
	debounce := time.NewTimer(time.Hour)
	debounce.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(ev.Name) != target {
				continue
			}
			if ev.Has(fsnotify.Write) || ev.Has(fsnotify.Create) || ev.Has(fsnotify.Rename) {
				debounce.Reset(catalogReloadDelay)
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			slog.Warn("Catalog watcher error", "path", c.path, "error", err)
		case <-debounce.C:
			if err := c.Reload(); err != nil {
				slog.Error("Catalog reload failed", "path", c.path, "error", err)
				continue
			}
			slog.Info("Catalog reloaded", "path", c.path, "series", c.Count())
		}
	}
}

func parseCatalog(data []byte) (map[string]CatalogEntry, error) {
	var raw map[string]yaml.Node
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse catalog: %w", err)
	}

	entries := make(map[string]CatalogEntry, len(raw))
	for id, node := range raw {
		if !ValidID(id) {
			return nil, fmt.Errorf("invalid series id %q", id)
		}

		entry := CatalogEntry{Enabled: true}
		if node.Kind == yaml.MappingNode {
			var settings struct {
				Enabled *bool `yaml:"enabled"`
			}
			if err := node.Decode(&settings); err != nil {
				return nil, fmt.Errorf("invalid entry %q: %w", id, err)
			}
			if settings.Enabled != nil {
				entry.Enabled = *settings.Enabled
			}
		}
		entries[id] = entry
	}

	return entries, nil
}
