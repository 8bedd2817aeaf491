package ports

import (
	"context"

	"github.com/samirrijal/zonebuf/internal/core/domain"
)

// StreetSource yields raw street segments grouped by name.
type StreetSource interface {
	Load(ctx context.Context) (*domain.SegmentStore, error)
}

// BoundarySource yields the boundary polygons of a run.
type BoundarySource interface {
	Boundaries(ctx context.Context) ([]domain.Boundary, error)
}

// Publisher receives the buffers of one boundary, grouped under its folder.
type Publisher interface {
	PublishZone(ctx context.Context, zone *domain.ZoneResult) error
}
