package usecases

import (
	"fmt"

	"github.com/paulmach/orb"

	"github.com/samirrijal/zonebuf/internal/core/domain"
	"github.com/samirrijal/zonebuf/internal/core/ports"
)

// Connection is the outcome of trying to join a segment onto a chain.
type Connection int

const (
	NoMatch Connection = iota
	AppendForward
	AppendReversed
	PrependForward
	PrependReversed
)

func (c Connection) String() string {
	switch c {
	case AppendForward:
		return "append"
	case AppendReversed:
		return "append-reversed"
	case PrependForward:
		return "prepend"
	case PrependReversed:
		return "prepend-reversed"
	default:
		return "no-match"
	}
}

// near compares coordinates axis by axis, as a square window of half-width d.
func near(p, q orb.Point, d float64) bool {
	dx, dy := p[0]-q[0], p[1]-q[1]
	return dx < d && dx > -d && dy < d && dy > -d
}

// TryConnect decides how seg attaches to chain. With chain a→b and seg c→d the checks run
// in this order: c≈b, d≈b, c≈a, d≈a.
func TryConnect(chain, seg orb.LineString, d float64) Connection {
	first, last := chain[0], chain[len(chain)-1]
	c, e := seg[0], seg[len(seg)-1]
	switch {
	case near(c, last, d):
		return AppendForward
	case near(e, last, d):
		return AppendReversed
	case near(c, first, d):
		return PrependReversed
	case near(e, first, d):
		return PrependForward
	default:
		return NoMatch
	}
}

// Apply joins seg onto chain; the segment's matching endpoint is dropped so the shared
// point appears once. The input chain is not modified.
func (c Connection) Apply(chain, seg orb.LineString) orb.LineString {
	n := len(seg)
	out := make(orb.LineString, 0, len(chain)+n-1)
	switch c {
	case AppendForward:
		out = append(out, chain...)
		out = append(out, seg[1:]...)
	case AppendReversed:
		out = append(out, chain...)
		for i := n - 2; i >= 0; i-- {
			out = append(out, seg[i])
		}
	case PrependForward:
		out = append(out, seg[:n-1]...)
		out = append(out, chain...)
	case PrependReversed:
		for i := n - 1; i >= 1; i-- {
			out = append(out, seg[i])
		}
		out = append(out, chain...)
	default:
		out = append(out, chain...)
	}
	return out
}

// ChainReducer stitches the segments of each street into maximal chains.
type ChainReducer struct {
	tolerance float64
	tracer    ports.Tracer
}

// NewChainReducer creates a reducer with endpoint tolerance d.
func NewChainReducer(tolerance float64, tracer ports.Tracer) *ChainReducer {
	if tracer == nil {
		tracer = ports.NopTracer{}
	}
	return &ChainReducer{tolerance: tolerance, tracer: tracer}
}

// Tolerance returns the endpoint matching tolerance.
func (r *ChainReducer) Tolerance() float64 { return r.tolerance }

type workItem struct {
	name     string
	segments []domain.Segment
}

// Reduce stitches every street of the store. Leftover segments that cannot reach a
// chain are queued again as "<name>:<k>" and reduced on their own; k is unique for the run.
// Output order follows the queue: store names first, then regrouped leftovers.
func (r *ChainReducer) Reduce(store *domain.SegmentStore) []domain.Chain {
	queue := make([]workItem, 0, store.Len())
	for _, name := range store.Names() {
		queue = append(queue, workItem{name: name, segments: store.Segments(name)})
	}

	var chains []domain.Chain
	suffix := 0
	for len(queue) > 0 {
		item := queue[0]
		queue = queue[1:]

		chain, rest := r.reduceOne(item)
		chains = append(chains, domain.Chain{Name: item.name, Points: chain})

		if len(rest) > 0 {
			suffix++
			next := fmt.Sprintf("%s:%d", item.name, suffix)
			if r.tracer.Enabled(item.name) {
				r.tracer.Trace(item.name, "no match, regrouping leftovers",
					"new_street", next, "segments", len(rest))
			}
			queue = append(queue, workItem{name: next, segments: rest})
		}
	}
	return chains
}

// reduceOne grows a chain from the first segment and returns the segments that never matched.
func (r *ChainReducer) reduceOne(item workItem) (orb.LineString, []domain.Segment) {
	chain := item.segments[0].Clone()
	rest := item.segments[1:]

	if r.tracer.Enabled(item.name) {
		r.tracer.Trace(item.name, "reducing",
			"segments", len(item.segments), "first_points", len(chain),
			"first_start", chain[0], "first_end", chain[len(chain)-1])
	}

	for len(rest) > 0 {
		found := false
		remaining := make([]domain.Segment, 0, len(rest))
		for _, seg := range rest {
			conn := TryConnect(chain, seg, r.tolerance)
			if conn == NoMatch {
				remaining = append(remaining, seg)
				continue
			}
			chain = conn.Apply(chain, seg)
			found = true
			if r.tracer.Enabled(item.name) {
				r.tracer.Trace(item.name, "joined segment",
					"connection", conn.String(), "segment_points", len(seg), "chain_points", len(chain))
			}
		}
		rest = remaining
		if !found {
			break
		}
	}

	if r.tracer.Enabled(item.name) {
		r.tracer.Trace(item.name, "reduced", "points", len(chain), "unmatched", len(rest))
	}
	return chain, rest
}
