package http

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/gofiber/fiber/v2/middleware/timeout"
	"github.com/gofiber/websocket/v2"

	"github.com/samirrijal/zonebuf/internal/pkg/metrics"
)

// SetupRoutes registers all REST routes.
func SetupRoutes(app *fiber.App, deps *Dependencies) {
	// Prometheus metrics
	app.Use(metrics.Middleware())
	app.Get("/metrics", metrics.Handler())

	app.Use(compress.New(compress.Config{
		Level: compress.LevelBestSpeed,
	}))

	app.Use(requestid.New())
	app.Use(RequestLogMiddleware())
	app.Use(AccessLogMiddleware())

	app.Use(func(c *fiber.Ctx) error {
		c.Set("X-Content-Type-Options", "nosniff")
		c.Set("X-API-Version", "1.0.0")
		return c.Next()
	})

	// Health & readiness
	app.Get("/v1/health", HealthHandler())
	app.Get("/v1/ready", ReadyHandler(deps))

	// Pipeline runs are CPU bound: 30 per minute per IP
	heavy := limiter.New(limiter.Config{
		Max:        30,
		Expiration: 1 * time.Minute,
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return newError(c, fiber.StatusTooManyRequests, "rate_limited", "too many requests, please try again later")
		},
	})

	v1 := app.Group("/v1")
	v1.Post("/zones/buffers", heavy, timeout.NewWithContext(BuildBuffersHandler(deps), 2*time.Minute))
	v1.Post("/chains", heavy, timeout.NewWithContext(ReduceChainsHandler(deps), 2*time.Minute))
	v1.Get("/boundaries", timeout.NewWithContext(ListBoundariesHandler(deps), 15*time.Second))
	v1.Post("/graphql", timeout.NewWithContext(GraphQLHandler(deps), 15*time.Second))

	// Completed zones as they are published
	v1.Use("/zones/ws", zoneEventsGate(deps))
	v1.Get("/zones/ws", websocket.New(ZoneEventsHandler(deps)))
}
