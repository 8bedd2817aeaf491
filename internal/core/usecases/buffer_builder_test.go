package usecases_test

import (
	"errors"
	"testing"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"

	"github.com/samirrijal/zonebuf/internal/core/domain"
	"github.com/samirrijal/zonebuf/internal/core/usecases"
)

func TestBufferBuilder_Build(t *testing.T) {
	b := usecases.NewBufferBuilder(0.0001, 0)
	line := orb.LineString{{-120.0, 39.0}, {-120.001, 39.0005}, {-120.002, 39.0}}

	ring, err := b.Build(line)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !ring.Closed() {
		t.Error("ring is not closed")
	}
	if ring.Orientation() != orb.CCW {
		t.Error("ring is not counter-clockwise")
	}
	for _, p := range line {
		if !planar.RingContains(ring, p) {
			t.Errorf("centerline point %v outside buffer", p)
		}
	}
}

func TestBufferBuilder_Degenerate(t *testing.T) {
	b := usecases.NewBufferBuilder(0.0001, 16)

	for _, line := range []orb.LineString{
		{{1, 1}},
		{{1, 1}, {1, 1}},
		nil,
	} {
		if _, err := b.Build(line); !errors.Is(err, domain.ErrDegenerateLine) {
			t.Errorf("Build(%v) err = %v, want ErrDegenerateLine", line, err)
		}
	}
}

func TestBufferBuilder_InvalidWidth(t *testing.T) {
	b := usecases.NewBufferBuilder(0, 16)
	_, err := b.Build(orb.LineString{{0, 0}, {1, 0}})
	if err == nil || errors.Is(err, domain.ErrDegenerateLine) {
		t.Errorf("expected width error, got %v", err)
	}
}
