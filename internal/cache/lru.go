// Package cache provides caching utilities for the MCP server.
package cache

import (
	"fmt"
	"os"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/usestring/schemainfer/internal/ingest"
)

// Key identifies one ingestion of one version of a file.
type Key struct {
	Path       string
	Size       int64
	ModTimeNs  int64
	Filter     string
	Identifier string
	Workers    int
}

// KeyFor builds the key for ingesting path as it is currently on disk.
func KeyFor(path string, filter, identifier string, workers int) (Key, error) {
	info, err := os.Stat(path)
	if err != nil {
		return Key{}, err
	}
	if info.IsDir() {
		return Key{}, fmt.Errorf("%s is a directory", path)
	}
	return Key{
		Path:       path,
		Size:       info.Size(),
		ModTimeNs:  info.ModTime().UnixNano(),
		Filter:     filter,
		Identifier: identifier,
		Workers:    workers,
	}, nil
}

// String renders the key for logging and singleflight grouping.
func (k Key) String() string {
	return fmt.Sprintf("%s|%d|%d|%s|%s|%d", k.Path, k.Size, k.ModTimeNs, k.Filter, k.Identifier, k.Workers)
}

// SummaryCache provides thread-safe LRU caching of ingestion results.
// Cached results are shared and must be treated as read-only.
type SummaryCache struct {
	cache *lru.Cache[Key, *ingest.Result]
}

// NewSummaryCache creates a new LRU cache with the specified maximum number of items.
func NewSummaryCache(maxItems int) (*SummaryCache, error) {
	c, err := lru.New[Key, *ingest.Result](maxItems)
	if err != nil {
		return nil, err
	}
	return &SummaryCache{cache: c}, nil
}

// Get retrieves a result from the cache.
// Returns the result and true if found, nil and false otherwise.
func (c *SummaryCache) Get(key Key) (*ingest.Result, bool) {
	return c.cache.Get(key)
}

// Put adds or updates a result in the cache.
func (c *SummaryCache) Put(key Key, result *ingest.Result) {
	c.cache.Add(key, result)
}

// Len returns the current number of items in the cache.
func (c *SummaryCache) Len() int {
	return c.cache.Len()
}
