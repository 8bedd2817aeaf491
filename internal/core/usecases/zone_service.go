package usecases

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/samirrijal/zonebuf/internal/core/domain"
	"github.com/samirrijal/zonebuf/internal/core/ports"
	"github.com/samirrijal/zonebuf/internal/pkg/geospatial"
)

// ZoneService runs the reduce, select, label and buffer pipeline over a set of boundaries.
type ZoneService struct {
	reducer   *ChainReducer
	selector  *BoundarySelector
	policy    LabelPolicy
	builder   *BufferBuilder
	publisher ports.Publisher

	cache   *ChainCache
	metrics ports.ZoneMetrics
	tracer  ports.Tracer
	log     *slog.Logger
	otel    trace.Tracer

	newRunID func() string
}

// NewZoneService creates a ZoneService. publisher may be nil when results are only returned.
func NewZoneService(reducer *ChainReducer, selector *BoundarySelector, policy LabelPolicy,
	builder *BufferBuilder, publisher ports.Publisher) *ZoneService {
	return &ZoneService{
		reducer:   reducer,
		selector:  selector,
		policy:    policy,
		builder:   builder,
		publisher: publisher,
		tracer:    ports.NopTracer{},
		log:       slog.Default(),
		otel:      otel.Tracer("github.com/samirrijal/zonebuf/usecases"),
		newRunID:  uuid.NewString,
	}
}

// WithCache reuses reduced chains across runs over identical input.
func (s *ZoneService) WithCache(c *ChainCache) *ZoneService {
	s.cache = c
	return s
}

// WithMetrics records pipeline counters.
func (s *ZoneService) WithMetrics(m ports.ZoneMetrics) *ZoneService {
	s.metrics = m
	return s
}

// WithTracer enables debug-by-name tracing of streets and boundaries.
func (s *ZoneService) WithTracer(t ports.Tracer) *ZoneService {
	if t != nil {
		s.tracer = t
	}
	return s
}

// WithLogger replaces the default logger.
func (s *ZoneService) WithLogger(l *slog.Logger) *ZoneService {
	if l != nil {
		s.log = l
	}
	return s
}

// Reduce stitches the store into chains, through the chain cache when one is set.
func (s *ZoneService) Reduce(ctx context.Context, store *domain.SegmentStore) ([]domain.Chain, error) {
	ctx, span := s.otel.Start(ctx, "zonebuf.reduce")
	defer span.End()
	span.SetAttributes(
		attribute.Int("streets", store.Len()),
		attribute.Int("segments", store.SegmentCount()),
	)

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var key string
	if s.cache != nil {
		key = ChainKey(store, s.reducer.Tolerance())
		if chains, ok := s.cache.Get(ctx, key); ok {
			span.SetAttributes(attribute.Bool("cache_hit", true))
			s.log.Info("reduced chains loaded from cache", "chains", len(chains))
			s.recordChains(len(chains))
			return chains, nil
		}
	}

	chains := s.reducer.Reduce(store)
	span.SetAttributes(attribute.Int("chains", len(chains)))
	s.log.Info("streets reduced",
		"streets", store.Len(), "segments", store.SegmentCount(), "chains", len(chains))
	s.recordChains(len(chains))

	if s.cache != nil {
		if err := s.cache.Set(ctx, key, chains); err != nil {
			s.log.Warn("chain cache write failed", "error", err)
		}
	}
	return chains, nil
}

// BuildZone selects, labels and buffers the chains for one boundary. chains are not modified.
func (s *ZoneService) BuildZone(ctx context.Context, chains []domain.Chain, b domain.Boundary) (*domain.ZoneResult, error) {
	ctx, span := s.otel.Start(ctx, "zonebuf.zone", trace.WithAttributes(attribute.String("boundary", b.Name)))
	defer span.End()

	res := &domain.ZoneResult{Boundary: b}
	zone := s.selector.Zone(b)
	debugZone := s.tracer.Enabled(b.Name)

	for _, chain := range chains {
		if err := ctx.Err(); err != nil {
			span.SetStatus(codes.Error, err.Error())
			return nil, err
		}
		res.Stats.Chains++

		selections, st := s.selector.SelectIn(zone, chain)
		if !st.Intersects {
			continue
		}
		res.Stats.Intersecting++
		res.Stats.Pieces += st.Pieces
		res.Stats.Included += st.Included

		if debugZone || s.tracer.Enabled(chain.BaseName()) {
			s.tracer.Trace(chain.BaseName(), "selected",
				"boundary", b.Name, "street", chain.Name, "pieces", st.Pieces, "included", st.Included)
		}

		for _, sel := range selections {
			decision := s.policy.Decide(sel.Street)
			switch decision.Skip {
			case SkipRamp:
				res.Stats.SkippedRamp++
				continue
			case SkipHighway:
				res.Stats.SkippedHighway++
				continue
			}

			ring, err := s.builder.Build(sel.Line)
			if err != nil {
				span.SetStatus(codes.Error, err.Error())
				return nil, fmt.Errorf("buffer %q in %q: %w", sel.Street, b.Name, err)
			}

			res.Buffers = append(res.Buffers, domain.BufferPolygon{
				Folder:       b.Name,
				Street:       sel.Street,
				Label:        decision.Label,
				Ring:         ring,
				LengthMeters: geospatial.LengthMeters(sel.Line),
			})
			res.Stats.Buffered++
		}
	}

	span.SetAttributes(
		attribute.Int("intersecting", res.Stats.Intersecting),
		attribute.Int("buffered", res.Stats.Buffered),
	)
	if s.metrics != nil {
		s.metrics.ZoneBuilt(res)
	}
	return res, nil
}

// Run reduces the store once and builds every boundary in order, publishing each zone
// as soon as it is built. Every zone of the run carries the same fresh RunID.
// A publish failure stops the run; zones built so far are returned.
func (s *ZoneService) Run(ctx context.Context, store *domain.SegmentStore, boundaries []domain.Boundary) ([]*domain.ZoneResult, error) {
	if len(boundaries) == 0 {
		return nil, domain.ErrNoBoundaries
	}

	chains, err := s.Reduce(ctx, store)
	if err != nil {
		return nil, fmt.Errorf("reduce: %w", err)
	}

	runID := s.newRunID()
	results := make([]*domain.ZoneResult, 0, len(boundaries))
	for _, b := range boundaries {
		res, err := s.BuildZone(ctx, chains, b)
		if err != nil {
			return results, fmt.Errorf("zone %q: %w", b.Name, err)
		}
		res.RunID = runID

		st := res.Stats
		if st.Intersecting == 0 {
			s.log.Info("no streets intersect boundary", "boundary", b.Name)
		} else {
			s.log.Info("zone built",
				"boundary", b.Name,
				"streets", st.Intersecting,
				"included", st.Included,
				"excluded", st.Excluded(),
				"skipped_ramp", st.SkippedRamp,
				"skipped_highway", st.SkippedHighway,
				"buffers", st.Buffered,
			)
		}

		if s.publisher != nil {
			if err := s.publisher.PublishZone(ctx, res); err != nil {
				return results, fmt.Errorf("publish zone %q: %w", b.Name, err)
			}
		}
		results = append(results, res)
	}
	return results, nil
}

func (s *ZoneService) recordChains(n int) {
	if s.metrics != nil {
		s.metrics.ChainsReduced(n)
	}
}

// FilterBoundaries keeps the boundaries whose name matches any of the patterns, in
// pattern order. A boundary matched by several patterns is kept once. An empty pattern
// list keeps every boundary.
func FilterBoundaries(boundaries []domain.Boundary, patterns []string) ([]domain.Boundary, error) {
	if len(patterns) == 0 {
		return boundaries, nil
	}

	var out []domain.Boundary
	taken := make([]bool, len(boundaries))
	for _, p := range patterns {
		re, err := regexp.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("boundary pattern %q: %w", p, err)
		}
		for i, b := range boundaries {
			if !taken[i] && re.MatchString(b.Name) {
				taken[i] = true
				out = append(out, b)
			}
		}
	}
	return out, nil
}
