package workflows_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.temporal.io/sdk/testsuite"

	"github.com/samirrijal/zonebuf/internal/core/domain"
	"github.com/samirrijal/zonebuf/internal/core/usecases"
	"github.com/samirrijal/zonebuf/internal/workflows"
)

type mockPublisher struct {
	publishFn func(ctx context.Context, zone *domain.ZoneResult) error
	calls     int
}

func (m *mockPublisher) PublishZone(ctx context.Context, zone *domain.ZoneResult) error {
	m.calls++
	if m.publishFn != nil {
		return m.publishFn(ctx, zone)
	}
	return nil
}

const streets = `{"type":"FeatureCollection","features":[
 {"type":"Feature","properties":{"title":"MAIN ST"},
  "geometry":{"type":"LineString","coordinates":[[-1,1],[3,1]]}},
 {"type":"Feature","properties":{"title":"OAK AVE"},
  "geometry":{"type":"LineString","coordinates":[[11,-1],[11,3]]}}
]}`

const boundaries = `{"type":"FeatureCollection","features":[
 {"type":"Feature","id":"b1","properties":{"title":"NCO-E005"},
  "geometry":{"type":"Polygon","coordinates":[[[0,0],[2,0],[2,2],[0,2],[0,0]]]}},
 {"type":"Feature","id":"b2","properties":{"title":"GRS-E223"},
  "geometry":{"type":"Polygon","coordinates":[[[10,0],[12,0],[12,2],[10,2],[10,0]]]}}
]}`

func writeInputs(t *testing.T) workflows.ZoneRunInput {
	t.Helper()
	dir := t.TempDir()
	in := workflows.ZoneRunInput{
		Streets:    filepath.Join(dir, "streets.geojson"),
		Boundaries: filepath.Join(dir, "zones.geojson"),
	}
	if err := os.WriteFile(in.Streets, []byte(streets), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(in.Boundaries, []byte(boundaries), 0o644); err != nil {
		t.Fatal(err)
	}
	return in
}

func newActivities(pub *mockPublisher) *workflows.ZoneActivities {
	svc := usecases.NewZoneService(
		usecases.NewChainReducer(0.0001, nil),
		usecases.NewBoundarySelector(usecases.DefaultSelectorConfig()),
		usecases.DefaultLabelPolicy(),
		usecases.NewBufferBuilder(0.0001, 8),
		nil,
	)
	return &workflows.ZoneActivities{Service: svc, Publisher: pub}
}

func TestZoneRunWorkflow(t *testing.T) {
	var suite testsuite.WorkflowTestSuite
	env := suite.NewTestWorkflowEnvironment()

	pub := &mockPublisher{}
	env.RegisterActivity(newActivities(pub))
	env.ExecuteWorkflow(workflows.ZoneRunWorkflow, writeInputs(t))

	if !env.IsWorkflowCompleted() {
		t.Fatal("workflow did not complete")
	}
	if err := env.GetWorkflowError(); err != nil {
		t.Fatalf("workflow error: %v", err)
	}

	var result workflows.ZoneRunResult
	if err := env.GetWorkflowResult(&result); err != nil {
		t.Fatal(err)
	}
	if len(result.Zones) != 2 {
		t.Fatalf("expected 2 zones, got %d", len(result.Zones))
	}
	if result.Zones[0].Folder != "NCO-E005" || result.Zones[1].Folder != "GRS-E223" {
		t.Errorf("zone order = %s, %s", result.Zones[0].Folder, result.Zones[1].Folder)
	}
	for _, z := range result.Zones {
		if z.Stats.Buffered != 1 {
			t.Errorf("%s buffered = %d, want 1", z.Folder, z.Stats.Buffered)
		}
	}
	if pub.calls != 2 {
		t.Errorf("publish calls = %d, want 2", pub.calls)
	}
}

func TestZoneRunWorkflow_RetryRepublishesUnderSameRun(t *testing.T) {
	var suite testsuite.WorkflowTestSuite
	env := suite.NewTestWorkflowEnvironment()

	// the first publisher commits, the second fails once on b1
	var published []string
	store := &mockPublisher{publishFn: func(ctx context.Context, zone *domain.ZoneResult) error {
		published = append(published, zone.RunID+"|"+zone.Boundary.ID)
		return nil
	}}
	failed := false
	broker := &mockPublisher{publishFn: func(ctx context.Context, zone *domain.ZoneResult) error {
		if !failed {
			failed = true
			return errors.New("broker down")
		}
		return nil
	}}

	acts := newActivities(nil)
	acts.Publisher = usecases.Publishers{store, broker}
	env.RegisterActivity(acts)
	env.ExecuteWorkflow(workflows.ZoneRunWorkflow, writeInputs(t))

	if err := env.GetWorkflowError(); err != nil {
		t.Fatalf("workflow error: %v", err)
	}
	if len(published) != 3 {
		t.Fatalf("store publishes = %v, want b1 twice then b2", published)
	}
	if published[0] != published[1] || !strings.HasSuffix(published[0], "|b1") {
		t.Errorf("retried zone changed identity: %q then %q", published[0], published[1])
	}
	if strings.HasPrefix(published[0], "|") {
		t.Error("zones published without a run id")
	}
	if strings.Split(published[2], "|")[0] != strings.Split(published[0], "|")[0] {
		t.Errorf("zones of one run carry different run ids: %v", published)
	}
	if broker.calls != 3 {
		t.Errorf("broker calls = %d, want 3", broker.calls)
	}
}

func TestZoneRunWorkflow_PatternSelectsNothing(t *testing.T) {
	var suite testsuite.WorkflowTestSuite
	env := suite.NewTestWorkflowEnvironment()

	pub := &mockPublisher{}
	env.RegisterActivity(newActivities(pub))
	in := writeInputs(t)
	in.Patterns = []string{"^ZZZ"}
	env.ExecuteWorkflow(workflows.ZoneRunWorkflow, in)

	err := env.GetWorkflowError()
	if err == nil || !strings.Contains(err.Error(), domain.ErrNoBoundaries.Error()) {
		t.Fatalf("expected no boundaries error, got %v", err)
	}
	if pub.calls != 0 {
		t.Errorf("publish calls = %d, want 0", pub.calls)
	}
}

func TestZoneRunWorkflow_PublishFailureStopsRun(t *testing.T) {
	var suite testsuite.WorkflowTestSuite
	env := suite.NewTestWorkflowEnvironment()

	pub := &mockPublisher{publishFn: func(ctx context.Context, zone *domain.ZoneResult) error {
		return errors.New("broker down")
	}}
	env.RegisterActivity(newActivities(pub))
	env.ExecuteWorkflow(workflows.ZoneRunWorkflow, writeInputs(t))

	err := env.GetWorkflowError()
	if err == nil || !strings.Contains(err.Error(), "zone b1") {
		t.Fatalf("expected failure on the first zone, got %v", err)
	}
	if !strings.Contains(err.Error(), "broker down") {
		t.Errorf("publisher error lost: %v", err)
	}
}
