package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"
	"github.com/spf13/pflag"
	"go.temporal.io/sdk/client"

	zgeojson "github.com/samirrijal/zonebuf/internal/adapters/geojson"
	natsadapter "github.com/samirrijal/zonebuf/internal/adapters/nats"
	"github.com/samirrijal/zonebuf/internal/adapters/postgres"
	"github.com/samirrijal/zonebuf/internal/adapters/sources"
	"github.com/samirrijal/zonebuf/internal/adapters/valkey"
	"github.com/samirrijal/zonebuf/internal/app"
	"github.com/samirrijal/zonebuf/internal/core/ports"
	"github.com/samirrijal/zonebuf/internal/core/usecases"
	"github.com/samirrijal/zonebuf/internal/pkg/config"
	"github.com/samirrijal/zonebuf/internal/pkg/logging"
	"github.com/samirrijal/zonebuf/internal/pkg/metrics"
	"github.com/samirrijal/zonebuf/internal/pkg/telemetry"
	"github.com/samirrijal/zonebuf/internal/workflows"
)

func main() {
	fs := pflag.NewFlagSet("zonebuf", pflag.ExitOnError)
	fs.String("streets", "", "street centerlines (.kml, .geojson or .json)")
	fs.String("boundaries", "", "boundary polygons (.kml, .geojson or .json); the database when empty and enabled")
	fs.StringSlice("name-field", nil, "street name attribute, repeatable, first non-empty wins")
	fs.String("out", "", "write the assignment collection to this file")
	fs.String("split-dir", "", "write one file per folder into this directory")
	fs.StringSlice("pattern", nil, "boundary name regexp, repeatable; all boundaries when omitted")
	fs.Float64("tolerance", 0.0001, "endpoint matching tolerance")
	fs.Float64("width", 0.0001, "buffer half-width")
	fs.StringSlice("debug-name", nil, "trace a street or boundary by name, repeatable")
	fs.String("log-level", "info", "debug, info, warn or error")
	fs.Bool("temporal", false, "submit the run to the zone worker instead of running it here")
	prefix := fs.String("prefix", "", "split file name prefix")
	suffix := fs.String("suffix", "", "split file name suffix, e.g. -2022Mar1")
	_ = fs.Parse(os.Args[1:])

	cfg, err := config.Load("zonebuf", fs)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	logger := logging.Setup(cfg.Log.Level, cfg.Log.Format)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.Telemetry.Enabled {
		shutdown, err := telemetry.InitTracer(ctx, cfg.Telemetry.ServiceName, cfg.Telemetry.TempoAddr)
		if err != nil {
			logger.Warn("telemetry init failed", "error", err)
		} else {
			defer shutdown()
		}
	}

	if cfg.Temporal.Enabled {
		err = submit(ctx, cfg, logger)
	} else {
		err = run(ctx, cfg, logger, *prefix, *suffix)
	}

	if cfg.Metrics.PushURL != "" {
		if perr := metrics.Push(cfg.Metrics.PushURL, cfg.Metrics.Job); perr != nil {
			logger.Warn("metrics push failed", "error", perr)
		}
	}
	if err != nil {
		logger.Error("run failed", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, logger *slog.Logger, prefix, suffix string) error {
	if cfg.Input.Streets == "" {
		return errors.New("no street file given (--streets)")
	}
	streets, err := sources.Open(cfg.Input.Streets, cfg.Input.NameFields)
	if err != nil {
		return err
	}

	var (
		pubs usecases.Publishers
		db   *postgres.DB
	)
	if cfg.Database.Enabled {
		db, err = postgres.New(ctx, cfg.Database.DSN())
		if err != nil {
			return fmt.Errorf("database: %w", err)
		}
		defer db.Close()
		pubs = append(pubs, postgres.NewZoneRepo(db))
	}

	var boundarySrc ports.BoundarySource
	switch {
	case cfg.Input.Boundaries != "":
		src, err := sources.Open(cfg.Input.Boundaries, nil)
		if err != nil {
			return err
		}
		boundarySrc = src
	case db != nil:
		boundarySrc = postgres.NewZoneRepo(db)
	default:
		return errors.New("no boundary file given (--boundaries) and no database enabled")
	}

	var file *zgeojson.Publisher
	if cfg.Output.GeoJSON != "" || cfg.Output.SplitDir != "" {
		file = zgeojson.NewPublisher(cfg.Output.GeoJSON)
		pubs = append(pubs, file)
	}

	if cfg.NATS.Enabled {
		nc, err := natsadapter.NewPublisher(cfg.NATS.URL)
		if err != nil {
			return err
		}
		defer nc.Close()
		pubs = append(pubs, nc)
	}

	if len(pubs) == 0 {
		logger.Warn("no output configured; zones are built and counted only")
	}

	var tracer ports.Tracer
	if len(cfg.Debug.Names) > 0 {
		tracer = logging.NewNameTracer(cfg.Debug.Names, logger)
	}
	svc := app.NewPipeline(cfg, tracer).Service(pubs).WithLogger(logger)

	if cfg.Valkey.Enabled {
		cache, err := valkey.New(cfg.Valkey.Addr)
		if err != nil {
			logger.Warn("valkey unavailable, reducing without cache", "error", err)
		} else {
			defer cache.Close()
			svc.WithCache(usecases.NewChainCache(cache, cfg.Valkey.TTLSeconds))
		}
	}

	store, err := streets.Load(ctx)
	if err != nil {
		return fmt.Errorf("load streets: %w", err)
	}
	boundaries, err := boundarySrc.Boundaries(ctx)
	if err != nil {
		return fmt.Errorf("load boundaries: %w", err)
	}
	boundaries, err = usecases.FilterBoundaries(boundaries, cfg.Select.Patterns)
	if err != nil {
		return err
	}

	results, err := svc.Run(ctx, store, boundaries)
	if err != nil {
		return err
	}

	if file != nil {
		if cfg.Output.GeoJSON != "" {
			if err := file.Close(); err != nil {
				return err
			}
			fmt.Printf("OK  %s\n", cfg.Output.GeoJSON)
		}
		if cfg.Output.SplitDir != "" {
			paths, err := zgeojson.WriteSplit(cfg.Output.SplitDir, prefix, suffix, file.Collection().FeatureCollection())
			if err != nil {
				return err
			}
			for _, p := range paths {
				fmt.Printf("OK  %s\n", p)
			}
		}
	}

	buffered := 0
	for _, r := range results {
		buffered += r.Stats.Buffered
	}
	logger.Info("run complete", "zones", len(results), "buffers", buffered)
	return nil
}

// submit hands the run to the zone worker and waits for it.
func submit(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	c, err := client.Dial(client.Options{
		HostPort:  cfg.Temporal.HostPort,
		Namespace: cfg.Temporal.Namespace,
		Logger:    logger,
	})
	if err != nil {
		return fmt.Errorf("temporal client: %w", err)
	}
	defer c.Close()

	we, err := c.ExecuteWorkflow(ctx, client.StartWorkflowOptions{
		ID:        "zonebuf-" + uuid.NewString(),
		TaskQueue: cfg.Temporal.TaskQueue,
	}, workflows.ZoneRunWorkflow, workflows.ZoneRunInput{
		Streets:    cfg.Input.Streets,
		Boundaries: cfg.Input.Boundaries,
		Patterns:   cfg.Select.Patterns,
	})
	if err != nil {
		return fmt.Errorf("start workflow: %w", err)
	}
	logger.Info("zone run submitted", "workflow_id", we.GetID(), "run_id", we.GetRunID())

	var result workflows.ZoneRunResult
	if err := we.Get(ctx, &result); err != nil {
		return err
	}
	for _, z := range result.Zones {
		logger.Info("zone built", "boundary", z.Folder, "buffers", z.Stats.Buffered)
	}
	logger.Info("run complete", "zones", len(result.Zones))
	return nil
}
