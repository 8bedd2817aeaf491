package main

import (
	"context"
	"log"
	"log/slog"

	"go.temporal.io/sdk/client"
	"go.temporal.io/sdk/worker"

	natsadapter "github.com/samirrijal/zonebuf/internal/adapters/nats"
	"github.com/samirrijal/zonebuf/internal/adapters/postgres"
	"github.com/samirrijal/zonebuf/internal/adapters/valkey"
	"github.com/samirrijal/zonebuf/internal/app"
	"github.com/samirrijal/zonebuf/internal/core/usecases"
	"github.com/samirrijal/zonebuf/internal/pkg/config"
	"github.com/samirrijal/zonebuf/internal/pkg/logging"
	"github.com/samirrijal/zonebuf/internal/workflows"
)

func main() {
	cfg, err := config.Load("zonebuf-worker")
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	logger := logging.Setup(cfg.Log.Level, cfg.Log.Format)
	ctx := context.Background()

	acts := &workflows.ZoneActivities{NameFields: cfg.Input.NameFields}
	svc := app.NewPipeline(cfg, nil).Service(nil).WithLogger(logger)
	var pubs usecases.Publishers

	if cfg.Database.Enabled {
		db, err := postgres.New(ctx, cfg.Database.DSN())
		if err != nil {
			log.Fatalf("database: %v", err)
		}
		defer db.Close()
		repo := postgres.NewZoneRepo(db)
		acts.Stored = repo
		pubs = append(pubs, repo)
	}

	if cfg.NATS.Enabled {
		nc, err := natsadapter.NewPublisher(cfg.NATS.URL)
		if err != nil {
			log.Fatalf("nats: %v", err)
		}
		defer nc.Close()
		pubs = append(pubs, nc)
	}

	// every activity reduces the same streets again; the cache makes that a lookup
	if cfg.Valkey.Enabled {
		cache, err := valkey.New(cfg.Valkey.Addr)
		if err != nil {
			slog.Warn("valkey unavailable", "error", err)
		} else {
			defer cache.Close()
			svc.WithCache(usecases.NewChainCache(cache, cfg.Valkey.TTLSeconds))
		}
	}

	if len(pubs) == 0 {
		logger.Warn("no publisher enabled; zones are built and counted only")
	}
	acts.Service = svc
	acts.Publisher = pubs

	c, err := client.Dial(client.Options{
		HostPort:  cfg.Temporal.HostPort,
		Namespace: cfg.Temporal.Namespace,
		Logger:    logger,
	})
	if err != nil {
		log.Fatalf("temporal client: %v", err)
	}
	defer c.Close()

	w := worker.New(c, cfg.Temporal.TaskQueue, worker.Options{})
	w.RegisterWorkflow(workflows.ZoneRunWorkflow)
	w.RegisterActivity(acts)

	logger.Info("zone worker started", "task_queue", cfg.Temporal.TaskQueue)
	if err := w.Run(worker.InterruptCh()); err != nil {
		log.Fatalf("worker: %v", err)
	}
}
