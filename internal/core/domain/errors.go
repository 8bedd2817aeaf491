package domain

import "errors"

var (
	// ErrMalformedSegment is returned for a segment with fewer than two points.
	ErrMalformedSegment = errors.New("malformed segment: fewer than 2 points")

	// ErrDegenerateLine is returned when buffering a line without two distinct points.
	ErrDegenerateLine = errors.New("degenerate buffer input: line needs 2 distinct points")

	// ErrNoBoundaries is returned when a run has no boundary polygon to process.
	ErrNoBoundaries = errors.New("no boundary polygons")
)
