package geojson

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"github.com/samirrijal/zonebuf/internal/core/domain"
)

// Collection builds an importable FeatureCollection: one Folder feature per boundary,
// the boundary itself as a Shape inside it, and one Assignment polygon per buffer.
type Collection struct {
	fc      *geojson.FeatureCollection
	folders map[string]string // title -> folder id
	newID   func() string
}

// NewCollection creates an empty collection with random uuid feature ids.
func NewCollection() *Collection {
	return &Collection{
		fc:      geojson.NewFeatureCollection(),
		folders: make(map[string]string),
		newID:   uuid.NewString,
	}
}

// Folder returns the id of the folder titled title, creating it when missing.
func (c *Collection) Folder(title string) string {
	if id, ok := c.folders[title]; ok {
		return id
	}
	id := c.newID()
	f := geojson.NewFeature(nil)
	f.ID = id
	f.Properties["class"] = ClassFolder
	f.Properties["title"] = title
	c.fc.Append(f)
	c.folders[title] = id
	return id
}

// AddZone appends the boundary shape and the buffers of res under the zone folder.
func (c *Collection) AddZone(res *domain.ZoneResult) {
	fid := c.Folder(res.Folder())

	shape := geojson.NewFeature(res.Boundary.Polygon)
	shape.ID = res.Boundary.ID
	if shape.ID == "" {
		shape.ID = c.newID()
	}
	shape.Properties["class"] = ClassShape
	shape.Properties["title"] = res.Boundary.Name
	shape.Properties["folderId"] = fid
	c.fc.Append(shape)

	for _, b := range res.Buffers {
		f := geojson.NewFeature(orb.Polygon{b.Ring})
		f.ID = c.newID()
		f.Properties["class"] = ClassAssignment
		f.Properties["folderId"] = fid
		f.Properties["street"] = b.Street
		f.Properties["length_m"] = b.LengthMeters
		if b.Label != nil {
			f.Properties["letter"] = *b.Label
		}
		c.fc.Append(f)
	}
}

// PublishZone implements ports.Publisher for single-goroutine use; Publisher adds locking.
func (c *Collection) PublishZone(ctx context.Context, res *domain.ZoneResult) error {
	c.AddZone(res)
	return nil
}

// FeatureCollection returns the collection built so far.
func (c *Collection) FeatureCollection() *geojson.FeatureCollection {
	return c.fc
}

// Publisher collects zones into one Collection and writes it to a file on Close.
type Publisher struct {
	path string

	mu   sync.Mutex
	coll *Collection
}

// NewPublisher creates a file publisher writing to path.
func NewPublisher(path string) *Publisher {
	return &Publisher{path: path, coll: NewCollection()}
}

// PublishZone implements ports.Publisher.
func (p *Publisher) PublishZone(ctx context.Context, zone *domain.ZoneResult) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.coll.AddZone(zone)
	return nil
}

// Collection returns the underlying collection.
func (p *Publisher) Collection() *Collection {
	return p.coll
}

// Close writes the collection.
func (p *Publisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return WriteFile(p.path, p.coll.FeatureCollection())
}

// WriteFile writes fc as JSON to path.
func WriteFile(path string, fc *geojson.FeatureCollection) error {
	data, err := json.Marshal(fc)
	if err != nil {
		return fmt.Errorf("marshal collection: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

// SplitFolders returns one collection per folder title: the folder's members followed
// by the folder feature itself. Features outside any folder are dropped.
func SplitFolders(fc *geojson.FeatureCollection) map[string]*geojson.FeatureCollection {
	titles := make(map[string]string) // folder id -> title
	for _, f := range fc.Features {
		if stringProp(f.Properties, "class") == ClassFolder {
			titles[fmt.Sprint(f.ID)] = stringProp(f.Properties, "title")
		}
	}

	out := make(map[string]*geojson.FeatureCollection, len(titles))
	get := func(title string) *geojson.FeatureCollection {
		if out[title] == nil {
			out[title] = geojson.NewFeatureCollection()
		}
		return out[title]
	}
	for _, f := range fc.Features {
		if title, ok := titles[stringProp(f.Properties, "folderId")]; ok {
			get(title).Append(f)
		}
	}
	for _, f := range fc.Features {
		if title, ok := titles[fmt.Sprint(f.ID)]; ok && stringProp(f.Properties, "class") == ClassFolder {
			get(title).Append(f)
		}
	}
	return out
}

// FolderFileName builds the file name of a split folder; "/" would create directories
// and is replaced with ".".
func FolderFileName(prefix, title, suffix string) string {
	return prefix + strings.ReplaceAll(title, "/", ".") + suffix + ".json"
}

// WriteSplit writes SplitFolders(fc) into dir and returns the paths written.
func WriteSplit(dir, prefix, suffix string, fc *geojson.FeatureCollection) ([]string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	var paths []string
	for title, part := range SplitFolders(fc) {
		path := filepath.Join(dir, FolderFileName(prefix, title, suffix))
		if err := WriteFile(path, part); err != nil {
			return paths, err
		}
		paths = append(paths, path)
	}
	return paths, nil
}

// Letters returns the letters of every Assignment feature, in order. Assignments
// without a letter are skipped.
func Letters(fc *geojson.FeatureCollection) []string {
	var out []string
	for _, f := range fc.Features {
		if stringProp(f.Properties, "class") != ClassAssignment {
			continue
		}
		if l, ok := f.Properties["letter"].(string); ok {
			out = append(out, l)
		}
	}
	return out
}
