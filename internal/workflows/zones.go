package workflows

import (
	"fmt"
	"time"

	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"

	"github.com/samirrijal/zonebuf/internal/core/domain"
)

// TaskQueue is the default queue of the zone worker.
const TaskQueue = "zonebuf-zones"

// ZoneRunInput names the inputs of one run. An empty Boundaries reads the stored ones.
type ZoneRunInput struct {
	Streets    string
	Boundaries string
	Patterns   []string
}

// ZoneOutcome reports one built and published zone.
type ZoneOutcome struct {
	Folder     string
	BoundaryID string
	Stats      domain.ZoneStats
}

// ZoneRunResult lists the zones in boundary order.
type ZoneRunResult struct {
	Zones []ZoneOutcome
}

// ZoneRunWorkflow selects the boundaries of a run and builds them one activity at a
// time, so a failing publisher is retried per zone and zones already published stay
// published. A retry publishes the whole zone again under the same RunID; publishers
// must treat that as a replacement. A zone that still fails after the retries stops
// the run.
func ZoneRunWorkflow(ctx workflow.Context, input ZoneRunInput) (*ZoneRunResult, error) {
	logger := workflow.GetLogger(ctx)

	ctx = workflow.WithActivityOptions(ctx, workflow.ActivityOptions{
		StartToCloseTimeout: 10 * time.Minute,
		RetryPolicy: &temporal.RetryPolicy{
			MaximumAttempts: 3,
		},
	})

	var ids []string
	if err := workflow.ExecuteActivity(ctx, "SelectBoundaries", input).Get(ctx, &ids); err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return nil, temporal.NewNonRetryableApplicationError(domain.ErrNoBoundaries.Error(), "NoBoundaries", nil)
	}
	logger.Info("Starting zone run", "boundaries", len(ids))

	result := &ZoneRunResult{}
	for _, id := range ids {
		var out ZoneOutcome
		if err := workflow.ExecuteActivity(ctx, "BuildZone", input, id).Get(ctx, &out); err != nil {
			return nil, fmt.Errorf("zone %s: %w", id, err)
		}
		result.Zones = append(result.Zones, out)
	}

	logger.Info("Zone run complete", "zones", len(result.Zones))
	return result, nil
}
