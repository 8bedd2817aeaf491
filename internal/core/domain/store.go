package domain

import "fmt"

// SegmentStore maps street names to their raw segments, keeping first-seen name order.
type SegmentStore struct {
	names    []string
	segments map[string][]Segment
	unnamed  int
	count    int
}

// NewSegmentStore creates an empty store.
func NewSegmentStore() *SegmentStore {
	return &SegmentStore{segments: make(map[string][]Segment)}
}

// Add stores seg under name and returns the name actually used. An empty name is
// replaced with a generated UNNAMED_<n> placeholder.
func (s *SegmentStore) Add(name string, seg Segment) (string, error) {
	if len(seg) < 2 {
		return name, ErrMalformedSegment
	}
	if name == "" {
		name = s.NextUnnamed()
	}
	if _, ok := s.segments[name]; !ok {
		s.names = append(s.names, name)
	}
	s.segments[name] = append(s.segments[name], seg)
	s.count++
	return name, nil
}

// NextUnnamed allocates the next UNNAMED_<n> placeholder, starting at 1.
func (s *SegmentStore) NextUnnamed() string {
	s.unnamed++
	return fmt.Sprintf("UNNAMED_%d", s.unnamed)
}

// Names returns street names in insertion order.
func (s *SegmentStore) Names() []string {
	out := make([]string, len(s.names))
	copy(out, s.names)
	return out
}

// Segments returns the segments stored under name.
func (s *SegmentStore) Segments(name string) []Segment {
	return s.segments[name]
}

// Len returns the number of distinct street names.
func (s *SegmentStore) Len() int { return len(s.names) }

// SegmentCount returns the total number of stored segments.
func (s *SegmentStore) SegmentCount() int { return s.count }
