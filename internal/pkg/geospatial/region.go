package geospatial

import (
	"math"
	"sort"

	"github.com/paulmach/orb"
)

// Region is a polygon grown (positive Offset) or shrunk (negative Offset) by a uniform
// distance: the set of points whose signed distance to Polygon is at most Offset.
// Growing composes exactly, so two growths by g equal one growth by 2g.
type Region struct {
	Polygon orb.Polygon
	Offset  float64
}

// NewRegion wraps a polygon with zero offset.
func NewRegion(poly orb.Polygon) Region {
	return Region{Polygon: poly}
}

// Grow returns a copy expanded outward by d; the polygon itself is shared, never modified.
func (r Region) Grow(d float64) Region {
	return Region{Polygon: r.Polygon, Offset: r.Offset + d}
}

// Shrink returns a copy contracted inward by d.
func (r Region) Shrink(d float64) Region {
	return r.Grow(-d)
}

// Contains reports whether p lies in the region or on its boundary.
func (r Region) Contains(p orb.Point) bool {
	return SignedDistance(r.Polygon, p) <= r.Offset+Epsilon
}

// Bound is the bounding box of the region.
func (r Region) Bound() orb.Bound {
	return r.Polygon.Bound().Pad(math.Max(r.Offset, 0))
}

// crossings returns the sorted parameters in [0,1] along ab where the segment may meet the
// region boundary, always including 0 and 1. The boundary of a grown polygon is made of
// edges shifted by |Offset| and arcs of radius |Offset| around vertices.
func (r Region) crossings(a, b orb.Point) []float64 {
	ts := []float64{0, 1}
	dist := math.Abs(r.Offset)

	sb := orb.MultiPoint{a, b}.Bound().Pad(dist + Epsilon)
	eachEdge(r.Polygon, func(c, d orb.Point) {
		if !sb.Intersects(orb.MultiPoint{c, d}.Bound()) {
			return
		}
		if dist == 0 {
			if t, _, ok := segmentIntersection(a, b, c, d); ok {
				ts = append(ts, t)
			}
			return
		}
		n := scale(leftNormal(c, d), dist)
		for _, off := range []orb.Point{n, scale(n, -1)} {
			if t, _, ok := segmentIntersection(a, b, add(c, off), add(d, off)); ok {
				ts = append(ts, t)
			}
		}
		ts = append(ts, circleCrossings(a, b, c, dist)...)
		ts = append(ts, circleCrossings(a, b, d, dist)...)
	})

	sort.Float64s(ts)
	out := ts[:1]
	for _, t := range ts[1:] {
		if t-out[len(out)-1] > 1e-12 {
			out = append(out, t)
		}
	}
	return out
}

// circleCrossings solves |a + t(b-a) - c| = radius for t in [0,1].
func circleCrossings(a, b, c orb.Point, radius float64) []float64 {
	d := sub(b, a)
	f := sub(a, c)
	qa := dot(d, d)
	if qa == 0 {
		return nil
	}
	qb := 2 * dot(f, d)
	qc := dot(f, f) - radius*radius
	disc := qb*qb - 4*qa*qc
	if disc < 0 {
		return nil
	}
	sq := math.Sqrt(disc)
	var out []float64
	for _, t := range []float64{(-qb - sq) / (2 * qa), (-qb + sq) / (2 * qa)} {
		if t >= 0 && t <= 1 {
			out = append(out, t)
		}
	}
	return out
}

// Within reports whether every point of ls lies in the region (boundary included).
func (r Region) Within(ls orb.LineString) bool {
	if len(ls) == 0 {
		return false
	}
	if !r.Bound().Pad(Epsilon).Contains(ls[0]) {
		return false
	}
	if len(ls) == 1 {
		return r.Contains(ls[0])
	}
	for i := 1; i < len(ls); i++ {
		a, b := ls[i-1], ls[i]
		ts := r.crossings(a, b)
		for k, t := range ts {
			if !r.Contains(lerp(a, b, t)) {
				return false
			}
			if k > 0 && !r.Contains(lerp(a, b, (ts[k-1]+t)/2)) {
				return false
			}
		}
	}
	return true
}

// Split cuts ls wherever it crosses the region boundary. Consecutive pieces alternate
// between inside and outside; a line that never crosses comes back whole.
func (r Region) Split(ls orb.LineString) []orb.LineString {
	if len(ls) < 2 {
		return []orb.LineString{ls.Clone()}
	}

	var pieces []orb.LineString
	cur := orb.LineString{ls[0]}
	started := false
	inside := false

	for i := 1; i < len(ls); i++ {
		a, b := ls[i-1], ls[i]
		ts := r.crossings(a, b)
		for k := 0; k < len(ts)-1; k++ {
			in := r.Contains(lerp(a, b, (ts[k]+ts[k+1])/2))
			if !started {
				started, inside = true, in
				continue
			}
			if in != inside {
				p := lerp(a, b, ts[k])
				cur = appendDistinct(cur, p)
				if len(cur) >= 2 {
					pieces = append(pieces, cur)
				}
				cur = orb.LineString{p}
				inside = in
			}
		}
		cur = appendDistinct(cur, b)
	}
	if len(cur) >= 2 {
		pieces = append(pieces, cur)
	}
	return pieces
}

func appendDistinct(ls orb.LineString, p orb.Point) orb.LineString {
	if len(ls) > 0 && ls[len(ls)-1] == p {
		return ls
	}
	return append(ls, p)
}
