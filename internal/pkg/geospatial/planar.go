package geospatial

import (
	"math"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
)

// Epsilon is the absolute slack used when classifying points on a region boundary.
const Epsilon = 1e-9

func sub(p, q orb.Point) orb.Point { return orb.Point{p[0] - q[0], p[1] - q[1]} }
func add(p, q orb.Point) orb.Point { return orb.Point{p[0] + q[0], p[1] + q[1]} }
func scale(p orb.Point, s float64) orb.Point { return orb.Point{p[0] * s, p[1] * s} }
func dot(p, q orb.Point) float64 { return p[0]*q[0] + p[1]*q[1] }
func cross(p, q orb.Point) float64 { return p[0]*q[1] - p[1]*q[0] }
func norm(p orb.Point) float64 { return math.Hypot(p[0], p[1]) }

func lerp(a, b orb.Point, t float64) orb.Point {
	return orb.Point{a[0] + (b[0]-a[0])*t, a[1] + (b[1]-a[1])*t}
}

// unit returns the normalized direction from a to b, or the zero vector.
func unit(a, b orb.Point) orb.Point {
	d := sub(b, a)
	l := norm(d)
	if l == 0 {
		return orb.Point{}
	}
	return scale(d, 1/l)
}

// leftNormal is the unit normal to the left of the direction a→b.
func leftNormal(a, b orb.Point) orb.Point {
	u := unit(a, b)
	return orb.Point{-u[1], u[0]}
}

// segmentIntersection returns the parameters of the intersection point of ab and cd.
// Parallel segments never intersect here; overlap is reported by the caller's vertex tests.
func segmentIntersection(a, b, c, d orb.Point) (t, u float64, ok bool) {
	r := sub(b, a)
	s := sub(d, c)
	denom := cross(r, s)
	if denom == 0 {
		return 0, 0, false
	}
	qp := sub(c, a)
	t = cross(qp, s) / denom
	u = cross(qp, r) / denom
	if t < 0 || t > 1 || u < 0 || u > 1 {
		return 0, 0, false
	}
	return t, u, true
}

// eachEdge calls fn for every edge of every ring of the polygon.
func eachEdge(poly orb.Polygon, fn func(c, d orb.Point)) {
	for _, ring := range poly {
		n := len(ring)
		for i := 0; i < n; i++ {
			c, d := ring[i], ring[(i+1)%n]
			if c == d {
				continue
			}
			fn(c, d)
		}
	}
}

// BoundaryDistance is the distance from p to the nearest ring of poly.
func BoundaryDistance(poly orb.Polygon, p orb.Point) float64 {
	best := math.Inf(1)
	eachEdge(poly, func(c, d orb.Point) {
		if dist := planar.DistanceFromSegment(c, d, p); dist < best {
			best = dist
		}
	})
	return best
}

// SignedDistance is negative inside poly and positive outside, by the boundary distance.
func SignedDistance(poly orb.Polygon, p orb.Point) float64 {
	d := BoundaryDistance(poly, p)
	if planar.PolygonContains(poly, p) {
		return -d
	}
	return d
}

// IntersectsPolygon reports whether the line shares at least one point with poly.
func IntersectsPolygon(ls orb.LineString, poly orb.Polygon) bool {
	if len(ls) == 0 || len(poly) == 0 {
		return false
	}
	if !ls.Bound().Intersects(poly.Bound()) {
		return false
	}
	for _, p := range ls {
		if SignedDistance(poly, p) <= Epsilon {
			return true
		}
	}
	for i := 1; i < len(ls); i++ {
		a, b := ls[i-1], ls[i]
		hit := false
		eachEdge(poly, func(c, d orb.Point) {
			if hit {
				return
			}
			if _, _, ok := segmentIntersection(a, b, c, d); ok {
				hit = true
			}
		})
		if hit {
			return true
		}
	}
	return false
}

// ChordLength is the straight-line distance between the first and last points.
func ChordLength(ls orb.LineString) float64 {
	if len(ls) < 2 {
		return 0
	}
	return planar.Distance(ls[0], ls[len(ls)-1])
}

// signedArea is the shoelace area; positive for counter-clockwise rings.
func signedArea(r orb.Ring) float64 {
	var sum float64
	n := len(r)
	for i := 0; i < n; i++ {
		a, b := r[i], r[(i+1)%n]
		sum += a[0]*b[1] - b[0]*a[1]
	}
	return sum / 2
}
