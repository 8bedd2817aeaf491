package usecases

import (
	"errors"
	"fmt"

	"github.com/paulmach/orb"

	"github.com/samirrijal/zonebuf/internal/core/domain"
	"github.com/samirrijal/zonebuf/internal/pkg/geospatial"
)

// BufferBuilder turns selected sub-lines into buffer polygons.
type BufferBuilder struct {
	width    float64
	quadSegs int
}

// NewBufferBuilder creates a builder with buffer half-width w (coordinate units) and
// quadSegs arc segments per quarter circle.
func NewBufferBuilder(width float64, quadSegs int) *BufferBuilder {
	if quadSegs <= 0 {
		quadSegs = 16
	}
	return &BufferBuilder{width: width, quadSegs: quadSegs}
}

// Width returns the buffer half-width.
func (b *BufferBuilder) Width() float64 { return b.width }

// Build returns the exterior ring of the round-capped, round-joined buffer of line.
func (b *BufferBuilder) Build(line orb.LineString) (orb.Ring, error) {
	ring, err := geospatial.BufferLine(line, b.width, b.quadSegs)
	if errors.Is(err, geospatial.ErrTooFewPoints) {
		return nil, domain.ErrDegenerateLine
	}
	if err != nil {
		return nil, fmt.Errorf("buffer line: %w", err)
	}
	return ring, nil
}
