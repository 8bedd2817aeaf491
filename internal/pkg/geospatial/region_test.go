package geospatial_test

import (
	"math"
	"testing"

	"github.com/paulmach/orb"

	"github.com/samirrijal/zonebuf/internal/pkg/geospatial"
)

func square() orb.Polygon {
	return orb.Polygon{{{0, 0}, {2, 0}, {2, 2}, {0, 2}, {0, 0}}}
}

func TestSignedDistance(t *testing.T) {
	poly := square()
	tests := []struct {
		p    orb.Point
		want float64
	}{
		{orb.Point{1, 1}, -1},
		{orb.Point{0.5, 1}, -0.5},
		{orb.Point{3, 1}, 1},
		{orb.Point{-1, -1}, math.Sqrt2},
		{orb.Point{2, 1}, 0},
	}
	for _, tt := range tests {
		got := geospatial.SignedDistance(poly, tt.p)
		if math.Abs(got-tt.want) > 1e-12 {
			t.Errorf("SignedDistance(%v) = %v, want %v", tt.p, got, tt.want)
		}
	}
}

func TestRegion_GrowDoesNotMutate(t *testing.T) {
	poly := square()
	r := geospatial.NewRegion(poly)
	g := r.Grow(0.5).Grow(0.5)

	if g.Offset != 1 {
		t.Errorf("expected offset 1, got %v", g.Offset)
	}
	if r.Offset != 0 {
		t.Errorf("original region offset changed to %v", r.Offset)
	}
	if !g.Contains(orb.Point{2.9, 1}) {
		t.Error("grown region should contain a point 0.9 outside")
	}
	if g.Contains(orb.Point{3.1, 1}) {
		t.Error("grown region should not contain a point 1.1 outside")
	}
	if r.Contains(orb.Point{2.1, 1}) {
		t.Error("base region should not contain an outside point")
	}
}

func TestRegion_Shrink(t *testing.T) {
	r := geospatial.NewRegion(square()).Shrink(0.5)
	if !r.Contains(orb.Point{1, 1}) {
		t.Error("shrunk region should contain the center")
	}
	if r.Contains(orb.Point{0.25, 1}) {
		t.Error("shrunk region should not contain a point 0.25 from the edge")
	}
}

func TestRegion_SplitCrossingLine(t *testing.T) {
	r := geospatial.NewRegion(square()).Grow(0.1)
	pieces := r.Split(orb.LineString{{-1, 1}, {3, 1}})

	if len(pieces) != 3 {
		t.Fatalf("expected 3 pieces, got %d: %v", len(pieces), pieces)
	}
	mid := pieces[1]
	if math.Abs(mid[0][0]+0.1) > 1e-9 || math.Abs(mid[len(mid)-1][0]-2.1) > 1e-9 {
		t.Errorf("expected middle piece from x=-0.1 to x=2.1, got %v", mid)
	}
	if pieces[0][0] != (orb.Point{-1, 1}) || pieces[2][len(pieces[2])-1] != (orb.Point{3, 1}) {
		t.Errorf("outer pieces should keep the original endpoints: %v", pieces)
	}
}

func TestRegion_SplitRoundCorner(t *testing.T) {
	// diagonal through the corner arc of the grown square
	r := geospatial.NewRegion(square()).Grow(1)
	pieces := r.Split(orb.LineString{{-3, -3}, {1, 1}})
	if len(pieces) != 2 {
		t.Fatalf("expected 2 pieces, got %d", len(pieces))
	}
	cut := pieces[0][len(pieces[0])-1]
	want := -1 / math.Sqrt2
	if math.Abs(cut[0]-want) > 1e-9 || math.Abs(cut[1]-want) > 1e-9 {
		t.Errorf("expected cut on the corner arc at (%v,%v), got %v", want, want, cut)
	}
}

func TestRegion_SplitNoCrossing(t *testing.T) {
	r := geospatial.NewRegion(square())
	line := orb.LineString{{0.5, 0.5}, {1, 1}, {1.5, 0.5}}
	pieces := r.Split(line)
	if len(pieces) != 1 || len(pieces[0]) != 3 {
		t.Fatalf("expected the line back whole, got %v", pieces)
	}
}

func TestRegion_Within(t *testing.T) {
	r := geospatial.NewRegion(square()).Grow(0.2)

	if !r.Within(orb.LineString{{-0.1, 1}, {2.1, 1}}) {
		t.Error("line inside the grown square should be within")
	}
	if !r.Within(orb.LineString{{-0.2, 1}, {2.2, 1}}) {
		t.Error("line ending on the grown boundary should be within")
	}
	if r.Within(orb.LineString{{-0.3, 1}, {1, 1}}) {
		t.Error("line leaving the grown square should not be within")
	}
	// runs inside the margin around the (2,0) corner
	if !r.Within(orb.LineString{{-0.1, 1.5}, {1.5, -0.1}, {2.1, -0.1}}) {
		t.Error("line hugging the grown boundary should be within")
	}
	if r.Within(orb.LineString{{1, -0.1}, {1, -1}, {1.5, -0.1}}) {
		t.Error("line dipping far outside should not be within")
	}
}

func TestIntersectsPolygon(t *testing.T) {
	poly := square()
	tests := []struct {
		name string
		line orb.LineString
		want bool
	}{
		{"crossing", orb.LineString{{-1, 1}, {3, 1}}, true},
		{"inside", orb.LineString{{0.5, 0.5}, {1, 1}}, true},
		{"touching", orb.LineString{{2, 3}, {2, 2}}, true},
		{"outside", orb.LineString{{3, 3}, {4, 4}}, false},
		{"bbox overlap only", orb.LineString{{1.9, 2.5}, {2.5, 1.9}}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := geospatial.IntersectsPolygon(tt.line, poly); got != tt.want {
				t.Errorf("IntersectsPolygon = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestChordLength(t *testing.T) {
	if got := geospatial.ChordLength(orb.LineString{{0, 0}, {5, 5}, {3, 4}}); got != 5 {
		t.Errorf("expected 5, got %v", got)
	}
	if got := geospatial.ChordLength(orb.LineString{{1, 1}}); got != 0 {
		t.Errorf("expected 0 for a single point, got %v", got)
	}
}
