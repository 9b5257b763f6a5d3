package exclusions

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/donaldgifford/shopping-notifier/internal/store"
)

// ErrCacheMissing is returned by Cache.Read when no entry has been written.
var ErrCacheMissing = errors.New("exclusion cache missing")

// CacheEntry is the exclusion list captured at batch 0 of a run.
type CacheEntry struct {
	RunID     string    `json:"run_id"`
	WrittenAt time.Time `json:"written_at"`
	Shops     []string  `json:"shops"`
}

// Cache stores a CacheEntry as a single JSON object in a blob store.
type Cache struct {
	blobs store.BlobStore
	key   string
}

// NewCache creates a cache at key. An empty key uses DefaultCacheKey.
func NewCache(blobs store.BlobStore, key string) *Cache {
	if key == "" {
		key = DefaultCacheKey
	}
	return &Cache{blobs: blobs, key: key}
}

// Key returns the blob key of the cache object.
func (c *Cache) Key() string {
	return c.key
}

// Write replaces the cache object with e.
func (c *Cache) Write(ctx context.Context, e CacheEntry) error {
	if e.Shops == nil {
		e.Shops = []string{}
	}
	data, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("encoding exclusion cache: %w", err)
	}
	if err := c.blobs.Put(ctx, c.key, data); err != nil {
		return fmt.Errorf("writing exclusion cache: %w", err)
	}
	return nil
}

// Read returns the current entry, or ErrCacheMissing.
func (c *Cache) Read(ctx context.Context) (CacheEntry, error) {
	data, err := c.blobs.Get(ctx, c.key)
	if errors.Is(err, store.ErrNotFound) {
		return CacheEntry{}, ErrCacheMissing
	}
	if err != nil {
		return CacheEntry{}, fmt.Errorf("reading exclusion cache: %w", err)
	}

	var e CacheEntry
	if err := json.Unmarshal(data, &e); err != nil {
		return CacheEntry{}, fmt.Errorf("decoding exclusion cache: %w", err)
	}
	return e, nil
}
