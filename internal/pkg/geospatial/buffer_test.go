package geospatial_test

import (
	"errors"
	"math"
	"testing"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"

	"github.com/samirrijal/zonebuf/internal/pkg/geospatial"
)

// distanceToLine is the distance from p to the nearest segment of ls.
func distanceToLine(ls orb.LineString, p orb.Point) float64 {
	best := math.Inf(1)
	for i := 1; i < len(ls); i++ {
		if d := planar.DistanceFromSegment(ls[i-1], ls[i], p); d < best {
			best = d
		}
	}
	return best
}

func assertOnOffset(t *testing.T, line orb.LineString, ring orb.Ring, w float64) {
	t.Helper()
	for _, p := range ring {
		if d := distanceToLine(line, p); math.Abs(d-w) > 1e-9 {
			t.Fatalf("ring vertex %v is %v from the line, want %v", p, d, w)
		}
	}
}

func TestBufferLine_Straight(t *testing.T) {
	line := orb.LineString{{0, 0}, {10, 0}}
	ring, err := geospatial.BufferLine(line, 1, 16)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if ring[0] != ring[len(ring)-1] {
		t.Error("ring is not closed")
	}
	if ring.Orientation() != orb.CCW {
		t.Error("expected counter-clockwise ring")
	}
	assertOnOffset(t, line, ring, 1)

	// stadium: 10x2 rectangle plus a unit disc
	area := planar.Area(ring)
	want := 20 + math.Pi
	if math.Abs(area-want) > 0.05 {
		t.Errorf("area = %v, want about %v", area, want)
	}
	for _, p := range line {
		if !planar.RingContains(ring, p) {
			t.Errorf("ring should contain centerline point %v", p)
		}
	}
}

func TestBufferLine_InnerCornerLoopRemoved(t *testing.T) {
	line := orb.LineString{{0, 0}, {10, 0}, {10, 10}}
	ring, err := geospatial.BufferLine(line, 1, 8)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	assertOnOffset(t, line, ring, 1)

	foundCorner := false
	for _, p := range ring {
		if math.Abs(p[0]-9) < 1e-9 && math.Abs(p[1]-1) < 1e-9 {
			foundCorner = true
		}
	}
	if !foundCorner {
		t.Error("expected the inner corner at (9,1)")
	}
	if !planar.RingContains(ring, orb.Point{9.5, 0.5}) {
		t.Error("inner corner area should be covered")
	}
}

func TestBufferLine_ZigZag(t *testing.T) {
	line := orb.LineString{{0, 0}, {5, 5}, {10, 0}, {15, 5}}
	ring, err := geospatial.BufferLine(line, 0.5, 4)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	assertOnOffset(t, line, ring, 0.5)
	if ring.Orientation() != orb.CCW {
		t.Error("expected counter-clockwise ring")
	}
}

func TestBufferLine_Degenerate(t *testing.T) {
	for _, line := range []orb.LineString{
		{},
		{{1, 1}},
		{{1, 1}, {1, 1}},
	} {
		_, err := geospatial.BufferLine(line, 1, 8)
		if !errors.Is(err, geospatial.ErrTooFewPoints) {
			t.Errorf("BufferLine(%v): expected ErrTooFewPoints, got %v", line, err)
		}
	}
}

func TestBufferLine_BadWidth(t *testing.T) {
	if _, err := geospatial.BufferLine(orb.LineString{{0, 0}, {1, 0}}, 0, 8); err == nil {
		t.Error("expected error for zero width")
	}
}
