package geojson

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"github.com/samirrijal/zonebuf/internal/core/domain"
	"github.com/samirrijal/zonebuf/internal/pkg/metrics"
)

// Feature classes of a mapping-tool export.
const (
	ClassFolder     = "Folder"
	ClassShape      = "Shape"
	ClassAssignment = "Assignment"
)

// ReadFile decodes a FeatureCollection from path.
func ReadFile(path string) (*geojson.FeatureCollection, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	fc, err := geojson.UnmarshalFeatureCollection(data)
	if err != nil {
		return nil, fmt.Errorf("geojson %s: %w", path, err)
	}
	return fc, nil
}

// Streets groups LineString and MultiLineString features by street name. The name is
// the first non-empty property of nameFields, then "title", then "name"; features
// without one are stored under generated UNNAMED_<n> names. It returns the number of
// segments rejected as malformed.
func Streets(fc *geojson.FeatureCollection, nameFields []string) (*domain.SegmentStore, int) {
	store := domain.NewSegmentStore()
	malformed := 0
	for _, f := range fc.Features {
		var lines []orb.LineString
		switch g := f.Geometry.(type) {
		case orb.LineString:
			lines = []orb.LineString{g}
		case orb.MultiLineString:
			lines = g
		default:
			continue
		}

		name := propertyName(f.Properties, nameFields)
		for _, ls := range lines {
			used, err := store.Add(name, ls)
			if err != nil {
				malformed++
				continue
			}
			name = used
		}
	}
	return store, malformed
}

// Boundaries returns every Polygon and MultiPolygon feature that is not an assignment.
// MultiPolygon members after the first get "#<k>" suffixes. IDs are unique (see
// domain.UniqueBoundaryIDs).
func Boundaries(fc *geojson.FeatureCollection) []domain.Boundary {
	var out []domain.Boundary
	for i, f := range fc.Features {
		if stringProp(f.Properties, "class") == ClassAssignment {
			continue
		}

		var polys []orb.Polygon
		switch g := f.Geometry.(type) {
		case orb.Polygon:
			polys = []orb.Polygon{g}
		case orb.MultiPolygon:
			polys = g
		default:
			continue
		}

		name := propertyName(f.Properties, nil)
		if name == "" {
			name = fmt.Sprintf("Boundary %d", i+1)
		}
		id := name
		if f.ID != nil {
			id = fmt.Sprint(f.ID)
		}
		for k, p := range polys {
			b := domain.Boundary{ID: id, Name: name, Polygon: p}
			if k > 0 {
				b.ID = fmt.Sprintf("%s#%d", id, k+1)
				b.Name = fmt.Sprintf("%s#%d", name, k+1)
			}
			out = append(out, b)
		}
	}
	return domain.UniqueBoundaryIDs(out)
}

func propertyName(p geojson.Properties, nameFields []string) string {
	keys := make([]string, 0, len(nameFields)+2)
	keys = append(keys, nameFields...)
	for _, key := range append(keys, "title", "name") {
		if v := stringProp(p, key); v != "" {
			return v
		}
	}
	return ""
}

// Reader loads streets or boundaries from a GeoJSON file.
type Reader struct {
	path       string
	nameFields []string
	log        *slog.Logger
}

// NewReader creates a reader for path.
func NewReader(path string, nameFields []string) *Reader {
	return &Reader{path: path, nameFields: nameFields, log: slog.Default().With("source", path)}
}

// Load implements ports.StreetSource.
func (r *Reader) Load(ctx context.Context) (*domain.SegmentStore, error) {
	fc, err := ReadFile(r.path)
	if err != nil {
		return nil, err
	}
	store, malformed := Streets(fc, r.nameFields)
	metrics.SegmentsRead.WithLabelValues("geojson").Add(float64(store.SegmentCount()))
	if malformed > 0 {
		metrics.SegmentsMalformed.WithLabelValues("geojson").Add(float64(malformed))
		r.log.Warn("malformed segments skipped", "count", malformed)
	}
	r.log.Info("streets read", "streets", store.Len(), "segments", store.SegmentCount())
	return store, ctx.Err()
}

// Boundaries implements ports.BoundarySource.
func (r *Reader) Boundaries(ctx context.Context) ([]domain.Boundary, error) {
	fc, err := ReadFile(r.path)
	if err != nil {
		return nil, err
	}
	return Boundaries(fc), ctx.Err()
}

// stringProp returns a string property, or "" when it is missing or not a string.
func stringProp(p geojson.Properties, key string) string {
	s, _ := p[key].(string)
	return s
}
