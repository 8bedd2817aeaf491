package geospatial

import (
	"errors"
	"fmt"
	"math"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/simplify"
)

// ErrTooFewPoints is returned when a line has fewer than two distinct points.
var ErrTooFewPoints = errors.New("line has fewer than 2 distinct points")

// BufferLine returns the exterior ring of the round-capped, round-joined buffer of ls
// by width. quadSegs is the number of segments used per quarter circle.
// The ring is closed and counter-clockwise.
func BufferLine(ls orb.LineString, width float64, quadSegs int) (orb.Ring, error) {
	pts := dedupe(ls)
	if len(pts) < 2 {
		return nil, ErrTooFewPoints
	}
	if width <= 0 || math.IsNaN(width) {
		return nil, fmt.Errorf("buffer width must be positive, got %v", width)
	}
	if quadSegs < 1 {
		quadSegs = 1
	}
	step := math.Pi / 2 / float64(quadSegs)
	n := len(pts)

	rev := make(orb.LineString, n)
	for i, p := range pts {
		rev[n-1-i] = p
	}

	var ring orb.Ring
	ring = appendSide(ring, pts, width, step)
	ring = appendArc(ring, pts[n-1], leftNormal(pts[n-2], pts[n-1]), math.Pi, width, step)
	ring = appendSide(ring, rev, width, step)
	ring = appendArc(ring, rev[n-1], leftNormal(rev[n-2], rev[n-1]), math.Pi, width, step)
	ring = append(ring, ring[0])

	ring = removeLoops(ring)
	ring = dropCollinear(ring, width)
	if signedArea(ring) < 0 {
		ring.Reverse()
	}
	return ring, nil
}

// appendSide walks the left offset of pts. Outer corners get a clockwise arc; inner
// corners pivot through the vertex and leave a loop for removeLoops to cut.
func appendSide(out orb.Ring, pts orb.LineString, w, step float64) orb.Ring {
	out = append(out, add(pts[0], scale(leftNormal(pts[0], pts[1]), w)))
	for i := 1; i < len(pts)-1; i++ {
		v := pts[i]
		dPrev, dNext := unit(pts[i-1], v), unit(v, pts[i+1])
		nPrev, nNext := leftNormal(pts[i-1], v), leftNormal(v, pts[i+1])
		turn := cross(dPrev, dNext)

		switch {
		case math.Abs(turn) <= 1e-12 && dot(dPrev, dNext) > 0:
			out = append(out, add(v, scale(nNext, w)))
		case turn < 0 || math.Abs(turn) <= 1e-12:
			sweep := math.Atan2(nPrev[1], nPrev[0]) - math.Atan2(nNext[1], nNext[0])
			for sweep <= 0 {
				sweep += 2 * math.Pi
			}
			out = append(out, add(v, scale(nPrev, w)))
			out = appendArc(out, v, nPrev, sweep, w, step)
			out = append(out, add(v, scale(nNext, w)))
		default:
			out = append(out, add(v, scale(nPrev, w)), v, add(v, scale(nNext, w)))
		}
	}
	last := len(pts) - 1
	return append(out, add(pts[last], scale(leftNormal(pts[last-1], pts[last]), w)))
}

// appendArc adds the interior points of a clockwise arc of the given sweep that starts
// at center+from*w. Endpoints are left to the caller.
func appendArc(out orb.Ring, center, from orb.Point, sweep, w, step float64) orb.Ring {
	steps := int(math.Ceil(sweep/step - 1e-9))
	a0 := math.Atan2(from[1], from[0])
	for k := 1; k < steps; k++ {
		a := a0 - sweep*float64(k)/float64(steps)
		out = append(out, orb.Point{center[0] + w*math.Cos(a), center[1] + w*math.Sin(a)})
	}
	return out
}

// removeLoops cuts self-intersections out of a closed ring, keeping the larger part at
// each crossing until the ring is simple.
func removeLoops(ring orb.Ring) orb.Ring {
	start := 0
	for guard := 0; guard < 4*len(ring); guard++ {
		i, j, x, ok := firstCrossing(ring, start)
		if !ok {
			break
		}

		loop := make(orb.Ring, 0, j-i+2)
		loop = append(loop, x)
		loop = append(loop, ring[i+1:j+1]...)
		loop = append(loop, x)

		rest := make(orb.Ring, 0, len(ring)-(j-i)+1)
		rest = append(rest, ring[:i+1]...)
		rest = append(rest, x)
		rest = append(rest, ring[j+1:]...)

		if math.Abs(signedArea(loop)) > math.Abs(signedArea(rest)) {
			ring, start = loop, 0
		} else {
			ring, start = rest, i
		}
	}
	return ring
}

// firstCrossing finds the first pair of non-adjacent edges (i, j), i >= start, that meet.
func firstCrossing(ring orb.Ring, start int) (int, int, orb.Point, bool) {
	m := len(ring)
	for i := start; i < m-3; i++ {
		a, b := ring[i], ring[i+1]
		eb := orb.MultiPoint{a, b}.Bound()
		for j := i + 2; j < m-1; j++ {
			if i == 0 && j == m-2 {
				continue
			}
			c, d := ring[j], ring[j+1]
			if !eb.Intersects(orb.MultiPoint{c, d}.Bound()) {
				continue
			}
			if t, _, ok := segmentIntersection(a, b, c, d); ok {
				return i, j, lerp(a, b, t), true
			}
		}
	}
	return 0, 0, orb.Point{}, false
}

// dropCollinear removes vertices that add no shape to the ring.
func dropCollinear(ring orb.Ring, w float64) orb.Ring {
	s := simplify.DouglasPeucker(w * 1e-6).Simplify(orb.LineString(ring).Clone())
	if ls, ok := s.(orb.LineString); ok && len(ls) >= 4 {
		return orb.Ring(ls)
	}
	return ring
}

func dedupe(ls orb.LineString) orb.LineString {
	out := make(orb.LineString, 0, len(ls))
	for _, p := range ls {
		out = appendDistinct(out, p)
	}
	return out
}
