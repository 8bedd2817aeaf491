// Package app builds the zone pipeline from configuration for the commands.
package app

import (
	"github.com/samirrijal/zonebuf/internal/core/ports"
	"github.com/samirrijal/zonebuf/internal/core/usecases"
	"github.com/samirrijal/zonebuf/internal/pkg/config"
	"github.com/samirrijal/zonebuf/internal/pkg/metrics"
)

// Pipeline holds the configured stages; they carry no per-run state and may be shared.
type Pipeline struct {
	Reducer  *usecases.ChainReducer
	Selector *usecases.BoundarySelector
	Policy   usecases.LabelPolicy
	Builder  *usecases.BufferBuilder
	Tracer   ports.Tracer
}

// NewPipeline builds the stages from cfg. tracer may be nil.
func NewPipeline(cfg *config.Config, tracer ports.Tracer) Pipeline {
	if tracer == nil {
		tracer = ports.NopTracer{}
	}
	return Pipeline{
		Reducer: usecases.NewChainReducer(cfg.Reduce.Tolerance, tracer),
		Selector: usecases.NewBoundarySelector(usecases.SelectorConfig{
			Grow:      cfg.Select.Grow,
			Shrink:    cfg.Select.Shrink,
			MinLength: cfg.Select.MinLength,
		}),
		Policy: usecases.LabelPolicy{
			Unnamed:  cfg.Labels.Unnamed,
			Ramp:     cfg.Labels.Ramp,
			Excluded: cfg.Labels.Excluded,
		},
		Builder: usecases.NewBufferBuilder(cfg.Buffer.Width, cfg.Buffer.QuadSegs),
		Tracer:  tracer,
	}
}

// Service returns a ZoneService publishing to pub, recording Prometheus metrics.
func (p Pipeline) Service(pub ports.Publisher) *usecases.ZoneService {
	return usecases.NewZoneService(p.Reducer, p.Selector, p.Policy, p.Builder, pub).
		WithMetrics(metrics.Recorder{}).
		WithTracer(p.Tracer)
}
