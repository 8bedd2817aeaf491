package kml

import (
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/paulmach/orb"

	"github.com/samirrijal/zonebuf/internal/core/domain"
	"github.com/samirrijal/zonebuf/internal/pkg/metrics"
)

// Placemark is one decoded KML placemark. Geometries inside a MultiGeometry are flattened.
type Placemark struct {
	ID          string
	Name        string
	Description string
	Fields      map[string]string // SimpleData and Data values by name
	Lines       []orb.LineString
	Polygons    []orb.Polygon
}

type xmlPlacemark struct {
	ID          string          `xml:"id,attr"`
	Name        string          `xml:"name"`
	Description string          `xml:"description"`
	SimpleData  []xmlSimpleData `xml:"ExtendedData>SchemaData>SimpleData"`
	Data        []xmlData       `xml:"ExtendedData>Data"`
	LineStrings []xmlCoords     `xml:"LineString"`
	Polygons    []xmlPolygon    `xml:"Polygon"`
	Multi       []xmlMulti      `xml:"MultiGeometry"`
}

type xmlSimpleData struct {
	Name  string `xml:"name,attr"`
	Value string `xml:",chardata"`
}

type xmlData struct {
	Name  string `xml:"name,attr"`
	Value string `xml:"value"`
}

type xmlCoords struct {
	Coordinates string `xml:"coordinates"`
}

type xmlPolygon struct {
	Outer string   `xml:"outerBoundaryIs>LinearRing>coordinates"`
	Inner []string `xml:"innerBoundaryIs>LinearRing>coordinates"`
}

type xmlMulti struct {
	LineStrings []xmlCoords  `xml:"LineString"`
	Polygons    []xmlPolygon `xml:"Polygon"`
}

// Decode reads every Placemark of a KML document, wherever it is nested.
func Decode(r io.Reader) ([]Placemark, error) {
	dec := xml.NewDecoder(r)
	var out []Placemark
	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			return out, nil
		}
		if err != nil {
			return nil, fmt.Errorf("kml: %w", err)
		}
		se, ok := tok.(xml.StartElement)
		if !ok || se.Name.Local != "Placemark" {
			continue
		}

		var raw xmlPlacemark
		if err := dec.DecodeElement(&raw, &se); err != nil {
			return nil, fmt.Errorf("kml placemark %d: %w", len(out)+1, err)
		}
		pm, err := raw.placemark()
		if err != nil {
			return nil, fmt.Errorf("kml placemark %q: %w", raw.Name, err)
		}
		out = append(out, pm)
	}
}

func (x xmlPlacemark) placemark() (Placemark, error) {
	pm := Placemark{
		ID:          strings.TrimSpace(x.ID),
		Name:        strings.TrimSpace(x.Name),
		Description: x.Description,
		Fields:      make(map[string]string, len(x.SimpleData)+len(x.Data)),
	}
	for _, sd := range x.SimpleData {
		pm.Fields[sd.Name] = strings.TrimSpace(sd.Value)
	}
	for _, d := range x.Data {
		pm.Fields[d.Name] = strings.TrimSpace(d.Value)
	}

	lines := x.LineStrings
	polys := x.Polygons
	for _, m := range x.Multi {
		lines = append(lines, m.LineStrings...)
		polys = append(polys, m.Polygons...)
	}

	for _, l := range lines {
		ls, err := ParseCoordinates(l.Coordinates)
		if err != nil {
			return pm, err
		}
		pm.Lines = append(pm.Lines, ls)
	}
	for _, p := range polys {
		poly, err := p.polygon()
		if err != nil {
			return pm, err
		}
		pm.Polygons = append(pm.Polygons, poly)
	}
	return pm, nil
}

func (p xmlPolygon) polygon() (orb.Polygon, error) {
	outer, err := ParseCoordinates(p.Outer)
	if err != nil {
		return nil, err
	}
	poly := orb.Polygon{closeRing(outer)}
	for _, in := range p.Inner {
		ring, err := ParseCoordinates(in)
		if err != nil {
			return nil, err
		}
		poly = append(poly, closeRing(ring))
	}
	return poly, nil
}

func closeRing(ls orb.LineString) orb.Ring {
	r := orb.Ring(ls)
	if len(r) > 0 && !r.Closed() {
		r = append(r, r[0])
	}
	return r
}

// ParseCoordinates parses a KML coordinates string ("lon,lat[,alt] lon,lat[,alt] ...").
// Altitude is dropped.
func ParseCoordinates(s string) (orb.LineString, error) {
	fields := strings.Fields(s)
	ls := make(orb.LineString, 0, len(fields))
	for _, f := range fields {
		parts := strings.Split(f, ",")
		if len(parts) < 2 {
			return nil, fmt.Errorf("coordinate %q: need lon,lat", f)
		}
		lon, err := strconv.ParseFloat(parts[0], 64)
		if err != nil {
			return nil, fmt.Errorf("coordinate %q: %w", f, err)
		}
		lat, err := strconv.ParseFloat(parts[1], 64)
		if err != nil {
			return nil, fmt.Errorf("coordinate %q: %w", f, err)
		}
		ls = append(ls, orb.Point{lon, lat})
	}
	return ls, nil
}

// Reader loads streets and boundaries from a KML file.
type Reader struct {
	path       string
	nameFields []string
	log        *slog.Logger
}

// NewReader creates a reader for path. nameFields lists the attribute names tried, in
// order, for a street name before the placemark <name>.
func NewReader(path string, nameFields []string) *Reader {
	return &Reader{path: path, nameFields: nameFields, log: slog.Default().With("source", path)}
}

func (r *Reader) placemarks() ([]Placemark, error) {
	f, err := os.Open(r.path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Decode(f)
}

// Load implements ports.StreetSource. Every LineString becomes one segment of its
// placemark's street; segments with fewer than two points are logged and skipped.
func (r *Reader) Load(ctx context.Context) (*domain.SegmentStore, error) {
	pms, err := r.placemarks()
	if err != nil {
		return nil, err
	}
	store, malformed := Streets(pms, r.nameFields)
	metrics.SegmentsRead.WithLabelValues("kml").Add(float64(store.SegmentCount()))
	if malformed > 0 {
		metrics.SegmentsMalformed.WithLabelValues("kml").Add(float64(malformed))
		r.log.Warn("malformed segments skipped", "count", malformed)
	}
	r.log.Info("streets read", "streets", store.Len(), "segments", store.SegmentCount())
	return store, ctx.Err()
}

// Boundaries implements ports.BoundarySource: every polygon of the file is a boundary.
func (r *Reader) Boundaries(ctx context.Context) ([]domain.Boundary, error) {
	pms, err := r.placemarks()
	if err != nil {
		return nil, err
	}
	return Boundaries(pms), ctx.Err()
}

// Streets groups the line geometry of placemarks by street name. Placemarks without a
// usable name are stored under generated UNNAMED_<n> names. It returns the number of
// segments rejected as malformed.
func Streets(pms []Placemark, nameFields []string) (*domain.SegmentStore, int) {
	store := domain.NewSegmentStore()
	malformed := 0
	for _, pm := range pms {
		if len(pm.Lines) == 0 {
			continue
		}
		name := StreetName(pm, nameFields)
		for _, ls := range pm.Lines {
			used, err := store.Add(name, ls)
			if err != nil {
				malformed++
				continue
			}
			// every segment of one placemark shares the generated name
			name = used
		}
	}
	return store, malformed
}

// StreetName resolves a placemark's street name: the first non-empty attribute of
// nameFields (extended data, then a description attribute table), then <name>.
// An empty result means unnamed.
func StreetName(pm Placemark, nameFields []string) string {
	for _, f := range nameFields {
		if v := pm.Fields[f]; v != "" {
			return v
		}
	}
	if pm.Description != "" && len(nameFields) > 0 {
		if v := DescriptionField(pm.Description, nameFields); v != "" {
			return v
		}
	}
	return pm.Name
}

// Boundaries returns one boundary per polygon. Multi-polygon placemarks get "#<k>"
// name suffixes after the first; placemarks without a name are numbered.
// IDs are unique: a placemark without an id uses its name, and repeats get "#<n>".
func Boundaries(pms []Placemark) []domain.Boundary {
	var out []domain.Boundary
	for i, pm := range pms {
		name := pm.Name
		if name == "" {
			name = fmt.Sprintf("Boundary %d", i+1)
		}
		id := pm.ID
		if id == "" {
			id = name
		}
		for k, poly := range pm.Polygons {
			b := domain.Boundary{ID: id, Name: name, Polygon: poly}
			if k > 0 {
				b.ID = fmt.Sprintf("%s#%d", id, k+1)
				b.Name = fmt.Sprintf("%s#%d", name, k+1)
			}
			out = append(out, b)
		}
	}
	return domain.UniqueBoundaryIDs(out)
}
