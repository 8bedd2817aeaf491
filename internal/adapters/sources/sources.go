// Package sources opens street and boundary files by extension.
package sources

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/samirrijal/zonebuf/internal/adapters/geojson"
	"github.com/samirrijal/zonebuf/internal/adapters/kml"
	"github.com/samirrijal/zonebuf/internal/core/ports"
)

// Source reads either streets or boundaries from one file.
type Source interface {
	ports.StreetSource
	ports.BoundarySource
}

// Open picks the reader for path: .kml, or .geojson and .json.
func Open(path string, nameFields []string) (Source, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".kml":
		return kml.NewReader(path, nameFields), nil
	case ".geojson", ".json":
		return geojson.NewReader(path, nameFields), nil
	default:
		return nil, fmt.Errorf("unsupported input format %q", path)
	}
}
