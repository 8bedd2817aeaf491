package usecases

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"math"

	"github.com/samirrijal/zonebuf/internal/core/domain"
	"github.com/samirrijal/zonebuf/internal/core/ports"
)

// ChainCache stores reduced chains keyed by a digest of the segment store and tolerance,
// so repeated runs over the same street file skip the reduction.
type ChainCache struct {
	cache      ports.CacheService
	ttlSeconds int
}

// NewChainCache wraps a cache backend.
func NewChainCache(cache ports.CacheService, ttlSeconds int) *ChainCache {
	return &ChainCache{cache: cache, ttlSeconds: ttlSeconds}
}

// ChainKey digests the store contents in insertion order together with the tolerance.
func ChainKey(store *domain.SegmentStore, tolerance float64) string {
	h := sha256.New()
	var buf [8]byte
	putFloat := func(f float64) {
		binary.LittleEndian.PutUint64(buf[:], math.Float64bits(f))
		h.Write(buf[:])
	}
	putFloat(tolerance)
	for _, name := range store.Names() {
		h.Write([]byte(name))
		h.Write([]byte{0})
		for _, seg := range store.Segments(name) {
			binary.LittleEndian.PutUint64(buf[:], uint64(len(seg)))
			h.Write(buf[:])
			for _, p := range seg {
				putFloat(p[0])
				putFloat(p[1])
			}
		}
	}
	return "chains:" + hex.EncodeToString(h.Sum(nil))
}

// Get returns the cached chains for key. Misses and undecodable entries both report false.
func (c *ChainCache) Get(ctx context.Context, key string) ([]domain.Chain, bool) {
	data, err := c.cache.Get(ctx, key)
	if err != nil || data == nil {
		return nil, false
	}
	var chains []domain.Chain
	if err := json.Unmarshal(data, &chains); err != nil {
		return nil, false
	}
	return chains, true
}

// Set stores chains under key.
func (c *ChainCache) Set(ctx context.Context, key string, chains []domain.Chain) error {
	data, err := json.Marshal(chains)
	if err != nil {
		return fmt.Errorf("marshal chains: %w", err)
	}
	return c.cache.Set(ctx, key, data, c.ttlSeconds)
}
