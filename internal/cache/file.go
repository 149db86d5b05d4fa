package cache

import (
	"context"
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/smokyabdulrahman/salahclock/internal/geo"
)

const (
	scheduleCacheFile = "schedule_%s.json" // keyed by hash
	geoCacheFile      = "geolocation.json"
	geoTTL            = 24 * time.Hour
)

// File is a Store backed by JSON files in a directory.
type File struct {
	dir string
}

// GeoCacheEntry stores a detected location with a timestamp.
type GeoCacheEntry struct {
	Location geo.Location `json:"location"`
	CachedAt time.Time    `json:"cached_at"`
}

// DefaultDir returns ~/.cache/salahclock.
func DefaultDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	return filepath.Join(home, ".cache", "salahclock"), nil
}

// NewFile creates a file cache rooted at dir, or DefaultDir if dir is empty.
func NewFile(dir string) (*File, error) {
	if dir == "" {
		d, err := DefaultDir()
		if err != nil {
			return nil, err
		}
		dir = d
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("cannot create cache directory %s: %w", dir, err)
	}

	return &File{dir: dir}, nil
}

// Dir returns the cache directory.
func (c *File) Dir() string {
	return c.dir
}

// path hashes the key so that postcodes and coordinates make safe file names.
func (c *File) path(key Key) string {
	h := sha256.Sum256([]byte(key.String()))
	return filepath.Join(c.dir, fmt.Sprintf(scheduleCacheFile, fmt.Sprintf("%x", h[:8])))
}

// Load reads the entry for key. Missing, corrupt and stale files are misses.
func (c *File) Load(_ context.Context, key Key, now time.Time) (*Entry, bool) {
	data, err := os.ReadFile(c.path(key))
	if err != nil {
		return nil, false
	}

	var entry Entry
	if err := json.Unmarshal(data, &entry); err != nil {
		return nil, false
	}

	if !entry.Fresh(key, now) {
		return nil, false
	}
	return &entry, true
}

// Save writes entry for key.
func (c *File) Save(_ context.Context, key Key, entry *Entry) error {
	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("failed to marshal cache entry: %w", err)
	}

	if err := os.WriteFile(c.path(key), data, 0o644); err != nil {
		return fmt.Errorf("failed to write cache file: %w", err)
	}
	return nil
}

// Clear removes every cached file.
func (c *File) Clear() error {
	entries, err := os.ReadDir(c.dir)
	if err != nil {
		return fmt.Errorf("failed to read cache directory: %w", err)
	}
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != ".json" {
			continue
		}
		if err := os.Remove(filepath.Join(c.dir, e.Name())); err != nil {
			return fmt.Errorf("failed to remove %s: %w", e.Name(), err)
		}
	}
	return nil
}

// LoadGeo reads a cached detected location.
// Returns nil if the cache is missing or older than the TTL (24 hours).
func (c *File) LoadGeo(now time.Time) *geo.Location {
	data, err := os.ReadFile(filepath.Join(c.dir, geoCacheFile))
	if err != nil {
		return nil
	}

	var entry GeoCacheEntry
	if err := json.Unmarshal(data, &entry); err != nil {
		return nil
	}

	if now.Sub(entry.CachedAt) > geoTTL {
		return nil
	}

	return &entry.Location
}

// SaveGeo writes a detected location to the cache.
func (c *File) SaveGeo(loc *geo.Location, now time.Time) error {
	entry := GeoCacheEntry{
		Location: *loc,
		CachedAt: now,
	}

	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("failed to marshal geo cache: %w", err)
	}

	if err := os.WriteFile(filepath.Join(c.dir, geoCacheFile), data, 0o644); err != nil {
		return fmt.Errorf("failed to write geo cache: %w", err)
	}

	return nil
}
