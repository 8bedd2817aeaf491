package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/spf13/pflag"

	"github.com/samirrijal/zonebuf/internal/adapters/http"
	natsadapter "github.com/samirrijal/zonebuf/internal/adapters/nats"
	"github.com/samirrijal/zonebuf/internal/adapters/postgres"
	"github.com/samirrijal/zonebuf/internal/adapters/valkey"
	"github.com/samirrijal/zonebuf/internal/app"
	"github.com/samirrijal/zonebuf/internal/core/usecases"
	"github.com/samirrijal/zonebuf/internal/pkg/config"
	"github.com/samirrijal/zonebuf/internal/pkg/logging"
	"github.com/samirrijal/zonebuf/internal/pkg/telemetry"
)

func main() {
	fs := pflag.NewFlagSet("zonebuf-api", pflag.ExitOnError)
	fs.Int("port", 8080, "listen port")
	fs.String("log-level", "info", "debug, info, warn or error")
	_ = fs.Parse(os.Args[1:])

	cfg, err := config.Load("zonebuf-api", fs)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	// Structured logging
	logging.Setup(cfg.Log.Level, cfg.Log.Format)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Telemetry
	if cfg.Telemetry.Enabled {
		shutdown, err := telemetry.InitTracer(ctx, cfg.Telemetry.ServiceName, cfg.Telemetry.TempoAddr)
		if err != nil {
			slog.Warn("telemetry init failed", "error", err)
		} else {
			defer shutdown()
		}
	}

	pipeline := app.NewPipeline(cfg, nil)
	deps := &http.Dependencies{
		Reducer:    pipeline.Reducer,
		Selector:   pipeline.Selector,
		Policy:     pipeline.Policy,
		Builder:    pipeline.Builder,
		NameFields: cfg.Input.NameFields,
	}
	var pubs usecases.Publishers

	// Database
	if cfg.Database.Enabled {
		db, err := postgres.New(ctx, cfg.Database.DSN())
		if err != nil {
			log.Fatalf("database: %v", err)
		}
		defer db.Close()
		repo := postgres.NewZoneRepo(db)
		deps.DB = db
		deps.Boundaries = repo
		pubs = append(pubs, repo)
	}

	// Cache
	if cfg.Valkey.Enabled {
		cache, err := valkey.New(cfg.Valkey.Addr)
		if err != nil {
			slog.Warn("valkey unavailable", "error", err)
		} else {
			defer cache.Close()
			deps.Cache = cache
			deps.Chains = usecases.NewChainCache(cache, cfg.Valkey.TTLSeconds)
		}
	}

	// NATS
	if cfg.NATS.Enabled {
		nc, err := natsadapter.NewPublisher(cfg.NATS.URL)
		if err != nil {
			slog.Warn("nats unavailable", "error", err)
		} else {
			defer nc.Close()
			deps.NATS = nc
			deps.Events = nc
			pubs = append(pubs, nc)
		}
	}

	if len(pubs) > 0 {
		deps.Publisher = pubs
	}

	// Fiber
	app := fiber.New(fiber.Config{
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		BodyLimit:    cfg.Server.BodyLimitMB * 1024 * 1024,
		AppName:      "zonebuf API",
	})
	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,OPTIONS",
		AllowHeaders: "Origin, Content-Type, Accept",
		MaxAge:       3600,
	}))

	http.SetupRoutes(app, deps)

	// Graceful shutdown
	go func() {
		addr := fmt.Sprintf(":%d", cfg.Server.Port)
		slog.Info("API server starting", "addr", addr)
		if err := app.Listen(addr); err != nil {
			log.Fatalf("listen: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	slog.Info("shutdown signal received, draining connections...", "signal", sig.String())

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		slog.Error("forced shutdown", "error", err)
	}

	slog.Info("server stopped")
}
