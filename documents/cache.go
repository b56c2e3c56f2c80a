package documents

import (
	"encoding/json"
	"os"
	"sync"
)

// Fingerprint is the change-detection key for a corpus file: a record is
// re-extracted only when the fingerprint differs from the cached one.
type Fingerprint struct {
	MTime int64 `json:"mtime"`
	Size  int64 `json:"size"`
}

// CacheEntry mirrors the on-disk cache schema: absolute path maps to the
// fingerprint, the normalized extracted text, and the path relative to the
// corpus root.
type CacheEntry struct {
	Meta    Fingerprint `json:"meta"`
	Text    string      `json:"text"`
	RelPath string      `json:"relpath"`
}

// Cache persists extracted text between indexing passes. The cache is
// advisory: any load failure must degrade to full re-extraction, never to
// an indexing error.
type Cache interface {
	Load() (map[string]CacheEntry, error)
	Store(entries map[string]CacheEntry) error
}

// FileCache is the JSON side-car file implementation. Safe to delete at
// any time; the next pass rebuilds it.
type FileCache struct {
	path string
}

func NewFileCache(path string) *FileCache {
	return &FileCache{path: path}
}

func (c *FileCache) Load() (map[string]CacheEntry, error) {
	data, err := os.ReadFile(c.path)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]CacheEntry{}, nil
		}
		return map[string]CacheEntry{}, err
	}

	var entries map[string]CacheEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return map[string]CacheEntry{}, err
	}
	if entries == nil {
		entries = map[string]CacheEntry{}
	}
	return entries, nil
}

func (c *FileCache) Store(entries map[string]CacheEntry) error {
	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(c.path, data, 0644)
}

// MemoryCache keeps entries in memory. Used by tests and by deployments
// that do not want the side-car file.
type MemoryCache struct {
	mu      sync.Mutex
	entries map[string]CacheEntry
}

func NewMemoryCache() *MemoryCache {
	return &MemoryCache{entries: map[string]CacheEntry{}}
}

func (c *MemoryCache) Load() (map[string]CacheEntry, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make(map[string]CacheEntry, len(c.entries))
	for k, v := range c.entries {
		out[k] = v
	}
	return out, nil
}

func (c *MemoryCache) Store(entries map[string]CacheEntry) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]CacheEntry, len(entries))
	for k, v := range entries {
		c.entries[k] = v
	}
	return nil
}
