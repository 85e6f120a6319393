package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/soltixdb/clusterview/internal/config"
	"github.com/soltixdb/clusterview/internal/dispatch"
	"github.com/soltixdb/clusterview/internal/fetch"
	"github.com/soltixdb/clusterview/internal/logging"
	"github.com/soltixdb/clusterview/internal/metadata"
	"github.com/soltixdb/clusterview/internal/metrics"
	"github.com/soltixdb/clusterview/internal/refresh"
	"github.com/soltixdb/clusterview/internal/router"
	"github.com/soltixdb/clusterview/internal/services"
	"github.com/soltixdb/clusterview/internal/timeseries"
)

var (
	Version   = "dev"     // Injected via ldflags during build
	GitCommit = "unknown" // Injected via ldflags during build
	BuildTime = "unknown" // Injected via ldflags during build
)

func main() {
	// Parse command line flags
	configPath := flag.String("config", "", "Path to configuration file")
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Setup logger
	logger, logCloser, err := logging.NewFromConfig(cfg.Logging)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logCloser.Close() }()
	logging.SetGlobal(logger)
	logger.Info("ClusterView starting...",
		"version", Version, "commit", GitCommit, "build time", BuildTime,
		"cluster", cfg.Cluster.Name)

	m := metrics.New(cfg.Metrics.Namespace)

	// Metadata store: source of the published cluster state and home of
	// the persisted refresh interval
	logger.Info("Connecting to metadata store", "backend", cfg.Store.Backend)
	store, err := metadata.NewStore(cfg)
	if err != nil {
		logger.Fatal("Failed to connect to metadata store", "error", err)
	}
	defer func() { _ = store.Close() }()

	source := fetch.NewMetadataSource(store, cfg.Cluster, cfg.Cache, clockwork.NewRealClock(), logger)
	defer source.Close()

	// Command queue
	logger.Info("Connecting to Queue", "type", cfg.Queue.Type, "url", cfg.Queue.URL)
	publisher, err := dispatch.NewPublisher(cfg.Queue)
	if err != nil {
		logger.Fatal("Failed to connect to Queue", "error", err)
	}
	dispatcher := dispatch.NewDispatcher(publisher, dispatch.Options{
		SubjectPrefix: cfg.Queue.SubjectPrefix,
		Cluster:       cfg.Cluster.Name,
		Metrics:       m,
		Logger:        logger,
	})
	defer func() { _ = dispatcher.Close() }()
	logger.Info("Queue connection established")

	cluster := services.NewClusterService(services.ClusterServiceOptions{
		Source:   source,
		Executor: dispatcher,
		Tracker:  timeseries.NewTracker(cfg.TimeSeries.Capacity),
		Metrics:  m,
		Logger:   logger,
	})

	clock := refresh.New(refresh.Options{
		Interval:     cfg.Refresh.Interval,
		SettleWindow: cfg.Refresh.SettleWindow,
		Invalidator:  source,
		Store:        store,
		StoreKey:     cfg.Store.IntervalKey,
		Logger:       logger,
	})
	clock.Subscribe(cluster.OnTick)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	clock.Start(ctx)
	clock.TriggerRefresh("")

	app := router.New(router.Deps{
		Logger:  logger,
		Cluster: cluster,
		Clock:   clock,
		Metrics: m,
	}, *cfg)

	// Start server in goroutine
	go func() {
		addr := cfg.GetServerAddress()
		logger.Info("Server listening", "address", addr)
		if err := app.Listen(addr); err != nil {
			logger.Fatal("Failed to start server", "error", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	clock.Stop()
	cluster.Close()

	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		logger.Error("Server forced to shutdown", "error", err)
	}

	logger.Info("Server exited")
}
