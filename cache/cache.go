// Package cache memoizes public collection reads until the collection
// is next mutated.
package cache

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/viccon/sturdyc"
	"go.uber.org/zap"

	"keystone/models"
)

const (
	numShards          = 10
	evictionPercentage = 10
)

// QueryCache keys entries by collection generation. Invalidate bumps the
// generation so older entries are never read again and age out.
type QueryCache struct {
	client *sturdyc.Client[[]models.Record]

	mu          sync.Mutex
	generations map[string]uint64
}

func New(capacity int, ttl time.Duration) *QueryCache {
	if capacity <= 0 {
		capacity = 1000
	}
	return &QueryCache{
		client:      sturdyc.New[[]models.Record](capacity, numShards, ttl, evictionPercentage),
		generations: map[string]uint64{},
	}
}

func (c *QueryCache) generation(collection string) uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.generations[collection]
}

// Fetch returns the cached result for key or calls fetch and caches it.
// The returned records are shared and must not be modified.
func (c *QueryCache) Fetch(ctx context.Context, collection, key string, fetch func(ctx context.Context) ([]models.Record, error)) ([]models.Record, error) {
	cacheKey := fmt.Sprintf("%s:%d:%s", collection, c.generation(collection), key)
	return c.client.GetOrFetch(ctx, cacheKey, func(ctx context.Context) ([]models.Record, error) {
		zap.S().Debugw("Cache miss", "key", cacheKey)
		return fetch(ctx)
	})
}

// Invalidate drops every cached read of collection.
func (c *QueryCache) Invalidate(collection string) {
	c.mu.Lock()
	c.generations[collection]++
	c.mu.Unlock()
}
