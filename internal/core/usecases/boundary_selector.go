package usecases

import (
	"github.com/samirrijal/zonebuf/internal/core/domain"
	"github.com/samirrijal/zonebuf/internal/pkg/geospatial"
)

// SelectorConfig holds the boundary growth tolerances, in coordinate units.
type SelectorConfig struct {
	Grow      float64 // g: first growth, used to split chains
	Shrink    float64 // g2: pulled back from the first growth for the tight test
	MinLength float64 // chord length a piece needs to pass the loose test
}

// DefaultSelectorConfig matches roughly 30 m / 10 m / 50 m in degrees at mid latitudes.
func DefaultSelectorConfig() SelectorConfig {
	return SelectorConfig{Grow: 0.0003, Shrink: 0.0001, MinLength: 0.0006}
}

// SelectStats counts one chain's passage through the selector.
type SelectStats struct {
	Intersects bool
	Pieces     int
	Included   int
}

// Zone holds the grown regions of one boundary, built once and reused for every chain.
type Zone struct {
	Boundary domain.Boundary
	split    geospatial.Region // G1 = boundary + g
	loose    geospatial.Region // G2 = G1 + g
	tight    geospatial.Region // G3 = G1 - g2
}

// BoundarySelector decides which parts of a chain are close enough to a boundary.
type BoundarySelector struct {
	cfg SelectorConfig
}

// NewBoundarySelector creates a selector.
func NewBoundarySelector(cfg SelectorConfig) *BoundarySelector {
	return &BoundarySelector{cfg: cfg}
}

// Zone prepares the grown regions of a boundary. The boundary itself is never modified.
func (s *BoundarySelector) Zone(b domain.Boundary) *Zone {
	g1 := geospatial.NewRegion(b.Polygon).Grow(s.cfg.Grow)
	return &Zone{
		Boundary: b,
		split:    g1,
		loose:    g1.Grow(s.cfg.Grow),
		tight:    g1.Shrink(s.cfg.Shrink),
	}
}

// Select is SelectIn on a freshly prepared zone.
func (s *BoundarySelector) Select(chain domain.Chain, b domain.Boundary) ([]domain.Selection, SelectStats) {
	return s.SelectIn(s.Zone(b), chain)
}

// SelectIn returns the pieces of chain to buffer for the zone. A chain that does not touch
// the boundary yields nothing. Otherwise it is split at the first grown ring and each
// piece is kept when it lies within the tight region, or within the loose region with a
// chord longer than MinLength.
func (s *BoundarySelector) SelectIn(z *Zone, chain domain.Chain) ([]domain.Selection, SelectStats) {
	var stats SelectStats
	if len(chain.Points) == 0 || !geospatial.IntersectsPolygon(chain.Points, z.Boundary.Polygon) {
		return nil, stats
	}
	stats.Intersects = true

	var out []domain.Selection
	for _, piece := range z.split.Split(chain.Points) {
		stats.Pieces++
		if z.tight.Within(piece) ||
			(z.loose.Within(piece) && geospatial.ChordLength(piece) > s.cfg.MinLength) {
			out = append(out, domain.Selection{Street: chain.Name, Line: piece})
			stats.Included++
		}
	}
	return out, stats
}
