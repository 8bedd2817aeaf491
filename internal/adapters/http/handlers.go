package http

import (
	"encoding/json"
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/paulmach/orb/geojson"

	zgeojson "github.com/samirrijal/zonebuf/internal/adapters/geojson"
	"github.com/samirrijal/zonebuf/internal/core/domain"
	"github.com/samirrijal/zonebuf/internal/core/usecases"
	"github.com/samirrijal/zonebuf/internal/pkg/metrics"
)

// BuffersRequest carries the streets and boundaries of one run.
type BuffersRequest struct {
	Streets    *geojson.FeatureCollection `json:"streets"`
	Boundaries *geojson.FeatureCollection `json:"boundaries"`
	// Patterns selects boundaries by name; empty selects all.
	Patterns []string `json:"patterns"`
}

// ZoneSummary reports the counts of one boundary.
type ZoneSummary struct {
	RunID      string           `json:"run_id"`
	Folder     string           `json:"folder"`
	BoundaryID string           `json:"boundary_id"`
	Stats      domain.ZoneStats `json:"stats"`
}

// BuffersResponse is the importable collection plus per-zone counts.
type BuffersResponse struct {
	Zones      []ZoneSummary              `json:"zones"`
	Collection *geojson.FeatureCollection `json:"collection"`
}

// BuildBuffersHandler runs the pipeline over the posted streets and boundaries.
func BuildBuffersHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req BuffersRequest
		if err := json.Unmarshal(c.Body(), &req); err != nil {
			return errBadRequest(c, "invalid request body: "+err.Error())
		}
		if req.Streets == nil || req.Boundaries == nil {
			return errBadRequest(c, "streets and boundaries are required")
		}

		boundaries, err := usecases.FilterBoundaries(zgeojson.Boundaries(req.Boundaries), req.Patterns)
		if err != nil {
			return errBadRequest(c, err.Error())
		}

		ctx := c.UserContext()
		log := LoggerFromCtx(ctx)

		store, malformed := zgeojson.Streets(req.Streets, deps.NameFields)
		metrics.SegmentsRead.WithLabelValues("api").Add(float64(store.SegmentCount()))
		if malformed > 0 {
			metrics.SegmentsMalformed.WithLabelValues("api").Add(float64(malformed))
			log.Warn("malformed segments skipped", "count", malformed)
		}

		coll := zgeojson.NewCollection()
		pubs := usecases.Publishers{coll}
		if deps.Publisher != nil {
			pubs = append(pubs, deps.Publisher)
		}

		svc := usecases.NewZoneService(deps.Reducer, deps.Selector, deps.Policy, deps.Builder, pubs).
			WithCache(deps.Chains).
			WithMetrics(metrics.Recorder{}).
			WithLogger(log)

		results, err := svc.Run(ctx, store, boundaries)
		switch {
		case errors.Is(err, domain.ErrNoBoundaries):
			return errUnprocessable(c, "no boundaries selected")
		case err != nil:
			return errInternal(c, err.Error())
		}

		resp := BuffersResponse{Zones: make([]ZoneSummary, 0, len(results)), Collection: coll.FeatureCollection()}
		for _, r := range results {
			resp.Zones = append(resp.Zones, ZoneSummary{RunID: r.RunID, Folder: r.Folder(), BoundaryID: r.Boundary.ID, Stats: r.Stats})
		}
		return c.JSON(resp)
	}
}

// ReduceChainsHandler stitches the posted streets and returns one LineString feature per
// chain, with its name and base name.
func ReduceChainsHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		fc, err := geojson.UnmarshalFeatureCollection(c.Body())
		if err != nil {
			return errBadRequest(c, "invalid feature collection: "+err.Error())
		}

		store, _ := zgeojson.Streets(fc, deps.NameFields)
		svc := usecases.NewZoneService(deps.Reducer, deps.Selector, deps.Policy, deps.Builder, nil).
			WithCache(deps.Chains).
			WithMetrics(metrics.Recorder{}).
			WithLogger(LoggerFromCtx(c.UserContext()))

		chains, err := svc.Reduce(c.UserContext(), store)
		if err != nil {
			return errInternal(c, err.Error())
		}

		out := geojson.NewFeatureCollection()
		for _, ch := range chains {
			f := geojson.NewFeature(ch.Points)
			f.Properties["name"] = ch.Name
			f.Properties["base_name"] = ch.BaseName()
			out.Append(f)
		}
		return c.JSON(out)
	}
}

// ListBoundariesHandler returns the stored boundaries as Shape features.
func ListBoundariesHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if deps.Boundaries == nil {
			return errUnavailable(c, "boundary store not configured")
		}

		bs, err := deps.Boundaries.Boundaries(c.UserContext())
		if err != nil {
			return errInternal(c, err.Error())
		}

		out := geojson.NewFeatureCollection()
		for _, b := range bs {
			f := geojson.NewFeature(b.Polygon)
			f.ID = b.ID
			f.Properties["class"] = zgeojson.ClassShape
			f.Properties["title"] = b.Name
			out.Append(f)
		}
		return c.JSON(out)
	}
}
