package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/castordeluca/coinwatch/internal/cache"
	"github.com/castordeluca/coinwatch/internal/config"
	"github.com/castordeluca/coinwatch/internal/feed"
	"github.com/castordeluca/coinwatch/internal/ingest"
	"github.com/castordeluca/coinwatch/internal/server"
	"github.com/castordeluca/coinwatch/internal/stats"
	"github.com/castordeluca/coinwatch/internal/store"
	"github.com/castordeluca/coinwatch/internal/version"
)

func main() {
	configPath := flag.String("config", "configs/tracker.yaml", "path to config file")
	flag.Parse()

	// Set up structured logging
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}))
	slog.SetDefault(logger)

	logger.Info("starting tracker",
		"version", version.Version,
		"commit", version.Commit,
		"config", *configPath,
	)

	// Load configuration
	cfg, err := config.LoadAndValidate(*configPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger.Info("configuration loaded",
		"coins", cfg.Coins,
		"feed_url", cfg.Feed.BaseURL,
		"interval", cfg.Scheduler.Interval(),
		"retention", cfg.Retention.Duration(),
	)

	// Create context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle shutdown signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Info("received shutdown signal", "signal", sig)
		cancel()
	}()

	// Connect to database
	logger.Info("connecting to database",
		"host", cfg.Database.Host,
		"port", cfg.Database.Port,
		"database", cfg.Database.Name,
	)

	pool, err := store.Connect(ctx, cfg.Database)
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	snapshots := store.NewPostgres(pool, cfg.Retention.Duration(), logger)
	if err := snapshots.InitSchema(ctx); err != nil {
		logger.Error("failed to init schema", "error", err)
		os.Exit(1)
	}
	logger.Info("database connected")

	// Optional latest-snapshot cache
	var latestCache *cache.Redis
	if cfg.Cache.Addr != "" {
		latestCache, err = cache.NewRedis(ctx, cfg.Cache)
		if err != nil {
			logger.Error("failed to connect to cache", "error", err)
			os.Exit(1)
		}
		defer latestCache.Close()
		logger.Info("latest cache connected", "addr", cfg.Cache.Addr, "ttl", cfg.Cache.TTL)
	}

	// Feed client
	feedClient := feed.NewClient(
		cfg.Feed.BaseURL,
		feed.WithVSCurrency(cfg.Feed.VSCurrency),
		feed.WithTimeout(cfg.Feed.Timeout),
		feed.WithRetries(cfg.Feed.MaxRetries, cfg.Feed.RetryDelay),
		feed.WithLogger(logger),
	)

	// Ingestion pipeline
	var cycleCache ingest.LatestCache
	if latestCache != nil {
		cycleCache = latestCache
	}
	cycle := ingest.NewCycle(cfg.Coins, feedClient, snapshots, cycleCache, logger)
	scheduler := ingest.NewScheduler(cfg.Scheduler.Interval(), cycle, logger)

	if err := scheduler.Start(ctx); err != nil {
		logger.Error("failed to start scheduler", "error", err)
		os.Exit(1)
	}

	// Retention janitor
	snapshots.StartJanitor(ctx)

	// Query engine and HTTP API
	var engineCache stats.LatestCache
	if latestCache != nil {
		engineCache = latestCache
	}
	engine := stats.NewEngine(cfg.Coins, snapshots, engineCache, logger)

	apiServer := server.New(cfg.Server.Port, engine, logger)
	apiServer.Start()

	// Metrics endpoint
	metricsMux := http.NewServeMux()
	metricsMux.Handle(cfg.Metrics.Path, promhttp.Handler())
	metricsServer := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Metrics.Port),
		Handler: metricsMux,
	}
	go func() {
		logger.Info("metrics server listening", "port", cfg.Metrics.Port, "path", cfg.Metrics.Path)
		if err := metricsServer.ListenAndServe(); err != http.ErrServerClosed {
			logger.Error("metrics server error", "error", err)
		}
	}()

	logger.Info("tracker running",
		"api_url", fmt.Sprintf("http://localhost:%d", cfg.Server.Port),
		"metrics_url", fmt.Sprintf("http://localhost:%d%s", cfg.Metrics.Port, cfg.Metrics.Path),
	)

	// Wait for shutdown
	<-ctx.Done()

	logger.Info("shutting down...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := apiServer.Stop(shutdownCtx); err != nil {
		logger.Warn("api server shutdown error", "error", err)
	}
	if err := metricsServer.Shutdown(shutdownCtx); err != nil {
		logger.Warn("metrics server shutdown error", "error", err)
	}

	if err := scheduler.Stop(shutdownCtx); err != nil {
		logger.Warn("scheduler shutdown error", "error", err)
	}
	if err := snapshots.StopJanitor(shutdownCtx); err != nil {
		logger.Warn("janitor shutdown error", "error", err)
	}

	logger.Info("tracker stopped")
}
