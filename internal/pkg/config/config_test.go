package config_test

import (
	"reflect"
	"strings"
	"testing"

	"github.com/spf13/pflag"

	"github.com/samirrijal/zonebuf/internal/pkg/config"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := config.Load("zonebuf-test")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Reduce.Tolerance != 0.0001 || cfg.Select.Grow != 0.0003 || cfg.Select.Shrink != 0.0001 {
		t.Errorf("geometry defaults = %+v %+v", cfg.Reduce, cfg.Select)
	}
	if cfg.Buffer.Width != 0.0001 || cfg.Buffer.QuadSegs != 16 {
		t.Errorf("buffer defaults = %+v", cfg.Buffer)
	}
	if want := []string{"UNNAMED", "STATE HIGHWAY"}; !reflect.DeepEqual(cfg.Labels.Unnamed, want) {
		t.Errorf("unnamed markers = %v, want %v", cfg.Labels.Unnamed, want)
	}
	if cfg.Telemetry.ServiceName != "zonebuf-test" || cfg.Metrics.Job != "zonebuf-test" {
		t.Errorf("service name not applied: %+v %+v", cfg.Telemetry, cfg.Metrics)
	}
	if cfg.Database.Enabled || cfg.NATS.Enabled || cfg.Valkey.Enabled {
		t.Error("adapters should be disabled by default")
	}
}

func TestLoad_EnvOverride(t *testing.T) {
	t.Setenv("ZONEBUF_REDUCE_TOLERANCE", "0.0005")
	t.Setenv("ZONEBUF_INPUT_STREETS", "roads.kml")

	cfg, err := config.Load("zonebuf-test")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Reduce.Tolerance != 0.0005 {
		t.Errorf("tolerance = %v, want 0.0005", cfg.Reduce.Tolerance)
	}
	if cfg.Input.Streets != "roads.kml" {
		t.Errorf("streets = %q", cfg.Input.Streets)
	}
}

func TestLoad_Flags(t *testing.T) {
	t.Setenv("ZONEBUF_INPUT_STREETS", "env.kml")

	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	fs.String("streets", "", "")
	fs.String("boundaries", "", "")
	fs.StringSlice("pattern", nil, "")
	if err := fs.Parse([]string{"--streets", "flag.kml", "--pattern", "^NCO-", "--pattern", "^GRS-"}); err != nil {
		t.Fatal(err)
	}

	cfg, err := config.Load("zonebuf-test", fs)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Input.Streets != "flag.kml" {
		t.Errorf("streets = %q, flag should win over env", cfg.Input.Streets)
	}
	if cfg.Input.Boundaries != "" {
		t.Errorf("unset flag overrode boundaries: %q", cfg.Input.Boundaries)
	}
	if want := []string{"^NCO-", "^GRS-"}; !reflect.DeepEqual(cfg.Select.Patterns, want) {
		t.Errorf("patterns = %v, want %v", cfg.Select.Patterns, want)
	}
}

func TestValidate(t *testing.T) {
	cfg, err := config.Load("zonebuf-test")
	if err != nil {
		t.Fatal(err)
	}

	cfg.Select.Shrink = cfg.Select.Grow
	cfg.Buffer.Width = 0
	cfg.Database.Enabled = true
	cfg.Database.User = ""

	err = cfg.Validate()
	if err == nil {
		t.Fatal("expected validation error")
	}
	for _, want := range []string{"select.shrink", "buffer.width", "database.user"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error %q does not mention %s", err, want)
		}
	}
}
