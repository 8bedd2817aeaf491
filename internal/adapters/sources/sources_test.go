package sources_test

import (
	"testing"

	"github.com/samirrijal/zonebuf/internal/adapters/geojson"
	"github.com/samirrijal/zonebuf/internal/adapters/kml"
	"github.com/samirrijal/zonebuf/internal/adapters/sources"
)

func TestOpen(t *testing.T) {
	tests := []struct {
		path    string
		kml     bool
		wantErr bool
	}{
		{path: "roads.kml", kml: true},
		{path: "Roads.KML", kml: true},
		{path: "roads.geojson"},
		{path: "zones.json"},
		{path: "roads.shp", wantErr: true},
		{path: "roads", wantErr: true},
	}

	for _, tt := range tests {
		src, err := sources.Open(tt.path, nil)
		if tt.wantErr {
			if err == nil {
				t.Errorf("Open(%q) should fail", tt.path)
			}
			continue
		}
		if err != nil {
			t.Errorf("Open(%q): %v", tt.path, err)
			continue
		}
		_, isKML := src.(*kml.Reader)
		_, isGeoJSON := src.(*geojson.Reader)
		if isKML != tt.kml || isGeoJSON == tt.kml {
			t.Errorf("Open(%q) = %T", tt.path, src)
		}
	}
}
