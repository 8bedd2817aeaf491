package usecases_test

import (
	"math"
	"testing"

	"github.com/paulmach/orb"

	"github.com/samirrijal/zonebuf/internal/core/domain"
	"github.com/samirrijal/zonebuf/internal/core/usecases"
)

func squareBoundary(name string) domain.Boundary {
	return domain.Boundary{
		ID:      name,
		Name:    name,
		Polygon: orb.Polygon{{{0, 0}, {2, 0}, {2, 2}, {0, 2}, {0, 0}}},
	}
}

func TestBoundarySelector_CrossingChainKeepsMiddle(t *testing.T) {
	sel := usecases.NewBoundarySelector(usecases.DefaultSelectorConfig())
	chain := domain.Chain{Name: "Main St", Points: orb.LineString{{-1, 1}, {3, 1}}}

	got, stats := sel.Select(chain, squareBoundary("Z1"))

	if !stats.Intersects || stats.Pieces != 3 || stats.Included != 1 {
		t.Fatalf("unexpected stats %+v", stats)
	}
	if len(got) != 1 {
		t.Fatalf("expected 1 selection, got %d", len(got))
	}
	line := got[0].Line
	if got[0].Street != "Main St" {
		t.Errorf("street = %q", got[0].Street)
	}
	if math.Abs(line[0][0]+0.0003) > 1e-9 || math.Abs(line[len(line)-1][0]-2.0003) > 1e-9 {
		t.Errorf("selection spans %v..%v, want x=-0.0003..2.0003", line[0], line[len(line)-1])
	}
}

func TestBoundarySelector_ChainInsideKeptWhole(t *testing.T) {
	sel := usecases.NewBoundarySelector(usecases.DefaultSelectorConfig())
	chain := domain.Chain{Name: "Court", Points: orb.LineString{{0.5, 0.5}, {1, 1}, {1.5, 0.5}}}

	got, stats := sel.Select(chain, squareBoundary("Z1"))
	if stats.Pieces != 1 || len(got) != 1 {
		t.Fatalf("expected the whole chain, got %d selections (%+v)", len(got), stats)
	}
	if len(got[0].Line) != 3 {
		t.Errorf("expected 3 points, got %v", got[0].Line)
	}
}

func TestBoundarySelector_FarChainSkipped(t *testing.T) {
	sel := usecases.NewBoundarySelector(usecases.DefaultSelectorConfig())
	chain := domain.Chain{Name: "Far Rd", Points: orb.LineString{{5, 5}, {6, 6}}}

	got, stats := sel.Select(chain, squareBoundary("Z1"))
	if stats.Intersects || len(got) != 0 {
		t.Errorf("expected nothing, got %v (%+v)", got, stats)
	}
}

func TestBoundarySelector_NearMissNotIntersecting(t *testing.T) {
	// inside the grown margin but never touching the boundary itself
	sel := usecases.NewBoundarySelector(usecases.DefaultSelectorConfig())
	chain := domain.Chain{Name: "Edge Rd", Points: orb.LineString{{2.0001, 0.5}, {2.0001, 1.5}}}

	if got, stats := sel.Select(chain, squareBoundary("Z1")); stats.Intersects || len(got) != 0 {
		t.Errorf("expected no selection, got %v", got)
	}
}

func TestBoundarySelector_LongPieceJustOutsideTightRegion(t *testing.T) {
	sel := usecases.NewBoundarySelector(usecases.DefaultSelectorConfig())
	chain := domain.Chain{Name: "Hill Rd", Points: orb.LineString{{1.9999, 1.5}, {1.9999, 2.5}}}

	got, stats := sel.Select(chain, squareBoundary("Z1"))
	if stats.Pieces != 2 || stats.Included != 1 {
		t.Fatalf("unexpected stats %+v", stats)
	}
	end := got[0].Line[len(got[0].Line)-1]
	if math.Abs(end[1]-2.0003) > 1e-9 {
		t.Errorf("piece ends at %v, want y=2.0003", end)
	}
}

func TestBoundarySelector_ShortStubExcluded(t *testing.T) {
	// the street barely enters the zone: the inner piece is too short for the loose test
	sel := usecases.NewBoundarySelector(usecases.DefaultSelectorConfig())
	chain := domain.Chain{Name: "Stub Ln", Points: orb.LineString{{3, 1}, {1.9999, 1}}}

	got, stats := sel.Select(chain, squareBoundary("Z1"))
	if !stats.Intersects || stats.Pieces != 2 || stats.Included != 0 {
		t.Fatalf("unexpected stats %+v", stats)
	}
	if len(got) != 0 {
		t.Errorf("expected no selection, got %v", got)
	}
}

func TestBoundarySelector_DoesNotMutateBoundary(t *testing.T) {
	sel := usecases.NewBoundarySelector(usecases.DefaultSelectorConfig())
	b := squareBoundary("Z1")
	before := b.Polygon.Clone()

	sel.Select(domain.Chain{Name: "Main St", Points: orb.LineString{{-1, 1}, {3, 1}}}, b)

	if !orb.Equal(before, b.Polygon) {
		t.Errorf("boundary changed: %v", b.Polygon)
	}
}
