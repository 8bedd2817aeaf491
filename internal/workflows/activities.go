package workflows

import (
	"context"
	"fmt"

	"go.temporal.io/sdk/activity"
	"go.temporal.io/sdk/temporal"

	"github.com/samirrijal/zonebuf/internal/adapters/sources"
	"github.com/samirrijal/zonebuf/internal/core/domain"
	"github.com/samirrijal/zonebuf/internal/core/ports"
	"github.com/samirrijal/zonebuf/internal/core/usecases"
)

// ZoneActivities holds the activity implementations of ZoneRunWorkflow. Every activity
// reads its inputs again; Service should carry a chain cache so the reduction runs once.
type ZoneActivities struct {
	Service    *usecases.ZoneService
	Publisher  ports.Publisher
	Stored     ports.BoundarySource // used when the input names no boundary file
	NameFields []string
}

// SelectBoundaries returns the IDs of the boundaries matching the input patterns.
func (a *ZoneActivities) SelectBoundaries(ctx context.Context, input ZoneRunInput) ([]string, error) {
	bs, err := a.boundaries(ctx, input)
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(bs))
	for _, b := range bs {
		ids = append(ids, b.ID)
	}
	return ids, nil
}

// BuildZone builds and publishes the zone of one boundary.
func (a *ZoneActivities) BuildZone(ctx context.Context, input ZoneRunInput, boundaryID string) (ZoneOutcome, error) {
	src, err := sources.Open(input.Streets, a.NameFields)
	if err != nil {
		return ZoneOutcome{}, temporal.NewNonRetryableApplicationError(err.Error(), "Input", err)
	}
	store, err := src.Load(ctx)
	if err != nil {
		return ZoneOutcome{}, fmt.Errorf("load streets: %w", err)
	}
	chains, err := a.Service.Reduce(ctx, store)
	if err != nil {
		return ZoneOutcome{}, err
	}

	bs, err := a.boundaries(ctx, input)
	if err != nil {
		return ZoneOutcome{}, err
	}
	var boundary *domain.Boundary
	for i := range bs {
		if bs[i].ID == boundaryID {
			boundary = &bs[i]
			break
		}
	}
	if boundary == nil {
		return ZoneOutcome{}, temporal.NewNonRetryableApplicationError("boundary "+boundaryID+" not found", "Input", nil)
	}

	res, err := a.Service.BuildZone(ctx, chains, *boundary)
	if err != nil {
		return ZoneOutcome{}, err
	}
	// the workflow run id is stable across activity retries
	res.RunID = activity.GetInfo(ctx).WorkflowExecution.RunID
	if a.Publisher != nil {
		if err := a.Publisher.PublishZone(ctx, res); err != nil {
			return ZoneOutcome{}, fmt.Errorf("publish zone %q: %w", res.Folder(), err)
		}
	}

	activity.GetLogger(ctx).Info("zone built", "boundary", boundary.Name, "buffers", res.Stats.Buffered)
	return ZoneOutcome{Folder: res.Folder(), BoundaryID: boundary.ID, Stats: res.Stats}, nil
}

func (a *ZoneActivities) boundaries(ctx context.Context, input ZoneRunInput) ([]domain.Boundary, error) {
	src := a.Stored
	if input.Boundaries != "" {
		s, err := sources.Open(input.Boundaries, nil)
		if err != nil {
			return nil, temporal.NewNonRetryableApplicationError(err.Error(), "Input", err)
		}
		src = s
	}
	if src == nil {
		return nil, temporal.NewNonRetryableApplicationError("no boundary file and no boundary store", "Input", nil)
	}

	bs, err := src.Boundaries(ctx)
	if err != nil {
		return nil, fmt.Errorf("load boundaries: %w", err)
	}
	bs, err = usecases.FilterBoundaries(bs, input.Patterns)
	if err != nil {
		return nil, temporal.NewNonRetryableApplicationError(err.Error(), "Input", err)
	}
	return bs, nil
}
