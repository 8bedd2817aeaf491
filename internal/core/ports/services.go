package ports

import (
	"context"

	"github.com/samirrijal/zonebuf/internal/core/domain"
)

// CacheService provides read-through caching.
type CacheService interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttlSeconds int) error
	Delete(ctx context.Context, key string) error
}

// Tracer emits diagnostics for selected entity names (streets, boundaries).
// Enabled lets callers skip building expensive messages.
type Tracer interface {
	Enabled(name string) bool
	Trace(name, msg string, args ...any)
}

// NopTracer traces nothing.
type NopTracer struct{}

func (NopTracer) Enabled(string) bool          { return false }
func (NopTracer) Trace(string, string, ...any) {}

// ZoneMetrics records pipeline counters.
type ZoneMetrics interface {
	ChainsReduced(n int)
	ZoneBuilt(result *domain.ZoneResult)
}
