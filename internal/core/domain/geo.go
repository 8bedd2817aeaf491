package domain

import (
	"fmt"
	"strings"

	"github.com/paulmach/orb"
)

// Segment is one raw polyline fragment as read from the source geometry.
// Coordinates are planar or geographic (lon, lat); elevation is never kept.
type Segment = orb.LineString

// Chain is a maximal contiguous polyline stitched from segments that share a name.
// Name may carry one or more ":<k>" suffixes identifying disjoint sub-chains.
type Chain struct {
	Name   string         `json:"name"`
	Points orb.LineString `json:"points"`
}

// BaseName returns the chain name without any disambiguation suffix.
func (c Chain) BaseName() string {
	return BaseName(c.Name)
}

// BaseName trims a ":<k>" reduction suffix from a street name.
func BaseName(name string) string {
	base, _, _ := strings.Cut(name, ":")
	return base
}

// Boundary is a named region of interest. Holes, when present, are outside the region.
type Boundary struct {
	ID      string      `json:"id,omitempty"`
	Name    string      `json:"name"`
	Polygon orb.Polygon `json:"polygon"`
}

// UniqueBoundaryIDs makes every ID in bs distinct, in place: a repeated ID gets the
// smallest free "#<n>" suffix, n starting at 2. The first holder keeps its ID.
func UniqueBoundaryIDs(bs []Boundary) []Boundary {
	taken := make(map[string]bool, len(bs))
	for i := range bs {
		id := bs[i].ID
		for n := 2; taken[id]; n++ {
			id = fmt.Sprintf("%s#%d", bs[i].ID, n)
		}
		taken[id] = true
		bs[i].ID = id
	}
	return bs
}
