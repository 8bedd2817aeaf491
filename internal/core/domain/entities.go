package domain

import "github.com/paulmach/orb"

// Selection is one sub-line of a chain chosen for buffering against a boundary.
type Selection struct {
	Street string         `json:"street"` // full chain name, suffix kept
	Line   orb.LineString `json:"line"`
}

// BufferPolygon is a buffered selection ready for publishing.
type BufferPolygon struct {
	Folder       string   `json:"folder"`
	Street       string   `json:"street"`
	Label        *string  `json:"label,omitempty"` // nil for unnamed streets
	Ring         orb.Ring `json:"ring"`
	LengthMeters float64  `json:"length_m"`
}

// ZoneStats counts what happened to the chains of one boundary.
type ZoneStats struct {
	Chains         int `json:"chains"`
	Intersecting   int `json:"intersecting"`
	Pieces         int `json:"pieces"`
	Included       int `json:"included"`
	SkippedRamp    int `json:"skipped_ramp"`
	SkippedHighway int `json:"skipped_highway"`
	Buffered       int `json:"buffered"`
}

// Excluded returns the number of split pieces rejected by geometry.
func (s ZoneStats) Excluded() int {
	return s.Pieces - s.Included
}

// ZoneResult is the output of one boundary: its buffers grouped under the boundary name.
type ZoneResult struct {
	// RunID identifies the run that built the zone; a retried zone keeps it.
	RunID    string          `json:"run_id,omitempty"`
	Boundary Boundary        `json:"boundary"`
	Buffers  []BufferPolygon `json:"buffers"`
	Stats    ZoneStats       `json:"stats"`
}

// Folder returns the output group name of the zone.
func (z *ZoneResult) Folder() string {
	return z.Boundary.Name
}
