package router

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/soltixdb/clusterview/internal/config"
	"github.com/soltixdb/clusterview/internal/handlers"
	"github.com/soltixdb/clusterview/internal/logging"
	"github.com/soltixdb/clusterview/internal/metrics"
	"github.com/soltixdb/clusterview/internal/middleware"
	"github.com/soltixdb/clusterview/internal/refresh"
	"github.com/soltixdb/clusterview/internal/services"
)

// Deps bundles what the routes are served from
type Deps struct {
	Logger  *logging.Logger
	Cluster *services.ClusterService
	Clock   *refresh.Clock
	Metrics *metrics.Metrics
}

// Setup configures all routes and middlewares
func Setup(app *fiber.App, deps Deps, cfg config.Config) *handlers.Handler {
	h := handlers.New(deps.Logger, deps.Cluster, deps.Clock)

	// Global middlewares
	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,PUT,OPTIONS",
		AllowHeaders: "Origin,Content-Type,Accept,X-Request-ID",
	}))
	app.Use(logging.FiberMiddleware(deps.Logger, logging.DefaultMiddlewareConfig()))

	app.Get("/health", h.Health)

	if cfg.Metrics.Enabled && deps.Metrics != nil {
		app.Get(cfg.Metrics.Path, adaptor.HTTPHandler(deps.Metrics.Handler()))
	}

	v1 := app.Group("/v1")

	// Topology
	v1.Get("/topology", h.GetTopology)
	v1.Get("/topology/summary", h.GetTopologySummary)
	v1.Get("/nodes/:node_id", h.GetNode)
	v1.Get("/indices", h.ListIndices)

	// Operations
	v1.Post("/shards/relocate", h.RelocateShard)
	v1.Post("/indices/bulk", h.BulkOperation)

	// Refresh clock
	v1.Get("/refresh", h.GetRefreshStatus)
	v1.Post("/refresh", h.TriggerRefresh)
	v1.Put("/refresh/interval", h.SetRefreshInterval)

	// Time series
	v1.Get("/timeseries", h.GetTimeSeries)
	v1.Post("/timeseries/reset", h.ResetTimeSeries)

	// 404 handler
	app.Use(h.NotFound)

	return h
}

// New creates a new Fiber app with configuration
func New(deps Deps, cfg config.Config) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:               "ClusterView",
		DisableStartupMessage: true,
		ReadTimeout:           cfg.Server.ReadTimeout,
		WriteTimeout:          cfg.Server.WriteTimeout,
		ErrorHandler:          middleware.ErrorHandler(deps.Logger),
	})

	Setup(app, deps, cfg)

	return app
}
