package matchcache

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"traktflix/internal/activity"
	"traktflix/internal/cachekey"
	"traktflix/internal/logging"
)

// Entry maps one cache key to a resolved match.
type Entry struct {
	Key      string         `json:"key"`
	Match    activity.Match `json:"match"`
	CachedAt time.Time      `json:"cached_at"`
}

// Cache provides thread-safe access to the match cache file.
type Cache struct {
	path    string
	logger  *slog.Logger
	now     func() time.Time
	mu      sync.RWMutex
	entries map[string]Entry
}

// NewCache creates a cache backed by path. An empty path yields a disabled
// cache where every operation is a no-op. The file is created lazily.
func NewCache(path string, logger *slog.Logger) *Cache {
	logger = logging.NewComponentLogger(logger, "matchcache")
	c := &Cache{
		path:    strings.TrimSpace(path),
		logger:  logger,
		now:     time.Now,
		entries: make(map[string]Entry),
	}
	if c.path == "" {
		return c
	}
	if err := c.load(); err != nil {
		logging.WarnWithContext(logger, "failed to load match cache", "matchcache_load_failed",
			logging.Error(err),
			logging.Hint("cache will start empty"),
			logging.Impact("previous corrections will need to be submitted again"),
		)
	}
	return c
}

// Enabled reports whether the cache is backed by a file.
func (c *Cache) Enabled() bool {
	return c != nil && c.path != ""
}

// Path returns the backing file.
func (c *Cache) Path() string {
	if c == nil {
		return ""
	}
	return c.path
}

// Lookup returns the match cached under key.
func (c *Cache) Lookup(key string) (Entry, bool) {
	key = strings.TrimSpace(key)
	if key == "" || !c.Enabled() {
		return Entry{}, false
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	entry, ok := c.entries[key]
	return entry, ok
}

// Store records m under key and persists the file. A later store for the same
// key replaces the earlier one.
func (c *Cache) Store(key string, m activity.Match) error {
	key = strings.TrimSpace(key)
	if key == "" {
		return errors.New("cache key cannot be empty")
	}
	if !c.Enabled() {
		return nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[key] = Entry{Key: key, Match: m, CachedAt: c.now()}
	if err := c.save(); err != nil {
		return fmt.Errorf("persist cache: %w", err)
	}
	c.logger.Debug("cached match",
		logging.CacheKey(key),
		logging.CatalogID(m.CatalogID),
		logging.String("title", m.DisplayTitle()),
	)
	return nil
}

// Apply attaches the cached match to an unmatched activity and reports
// whether it did. Matched activities are left alone.
func (c *Cache) Apply(a *activity.Activity) bool {
	if a == nil || a.Match != nil {
		return false
	}
	entry, ok := c.Lookup(cachekey.Derive(*a))
	if !ok {
		return false
	}
	a.ApplyMatch(entry.Match)
	return true
}

// Remove deletes the entry for key.
func (c *Cache) Remove(key string) error {
	key = strings.TrimSpace(key)
	if key == "" {
		return errors.New("cache key cannot be empty")
	}
	if !c.Enabled() {
		return nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.entries[key]; !ok {
		return fmt.Errorf("cache key %q not found", key)
	}
	delete(c.entries, key)
	if err := c.save(); err != nil {
		return fmt.Errorf("persist cache: %w", err)
	}
	return nil
}

// List returns entries newest first.
func (c *Cache) List() []Entry {
	if !c.Enabled() {
		return nil
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.sortedLocked()
}

// Clear removes every entry.
func (c *Cache) Clear() error {
	if !c.Enabled() {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]Entry)
	if err := c.save(); err != nil {
		return fmt.Errorf("persist cache: %w", err)
	}
	c.logger.Debug("cleared match cache")
	return nil
}

// Count returns the number of cached mappings.
func (c *Cache) Count() int {
	if !c.Enabled() {
		return 0
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

func (c *Cache) sortedLocked() []Entry {
	entries := make([]Entry, 0, len(c.entries))
	for _, entry := range c.entries {
		entries = append(entries, entry)
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].CachedAt.Equal(entries[j].CachedAt) {
			return entries[i].Key < entries[j].Key
		}
		return entries[i].CachedAt.After(entries[j].CachedAt)
	})
	return entries
}

func (c *Cache) load() error {
	data, err := os.ReadFile(c.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("read cache file: %w", err)
	}
	if len(data) == 0 {
		return nil
	}
	var entries []Entry
	if err := json.Unmarshal(data, &entries); err != nil {
		return fmt.Errorf("parse cache file: %w", err)
	}
	c.entries = make(map[string]Entry, len(entries))
	for _, entry := range entries {
		if strings.TrimSpace(entry.Key) != "" {
			c.entries[entry.Key] = entry
		}
	}
	c.logger.Debug("loaded match cache",
		logging.Int("entry_count", len(c.entries)),
		logging.String("path", c.path),
	)
	return nil
}

// save writes the cache atomically via a temp file.
func (c *Cache) save() error {
	data, err := json.MarshalIndent(c.sortedLocked(), "", "  ")
	if err != nil {
		return fmt.Errorf("marshal cache: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(c.path), 0o755); err != nil {
		return fmt.Errorf("create cache directory: %w", err)
	}
	tmpPath := c.path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0o644); err != nil {
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := os.Rename(tmpPath, c.path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("rename temp file: %w", err)
	}
	return nil
}
