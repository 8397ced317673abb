package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/tastefeed/server/internal/cache"
	"github.com/tastefeed/server/internal/db"
	"github.com/tastefeed/server/internal/jobs"
	"github.com/tastefeed/server/internal/views"
	"github.com/tastefeed/server/pkg/config"
	"github.com/tastefeed/server/pkg/logging"
	"github.com/tastefeed/server/pkg/telemetry"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	if err := logging.InitLogger(&cfg.Logging); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logging.GetLogger().Sync()

	logger := logging.GetLogger()
	logger.Info("Starting TasteFeed Worker")

	// Initialize telemetry
	telemetryShutdown, err := telemetry.Init(&cfg.Telemetry)
	if err != nil {
		logger.Fatal("Failed to initialize telemetry", zap.Error(err))
	}
	defer telemetryShutdown()

	database, err := db.New(&cfg.Database, cfg.Logging.Level)
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer database.Close()

	redisCache, err := cache.New(&cfg.Redis)
	if err != nil {
		logger.Fatal("Failed to connect to Redis", zap.Error(err))
	}
	defer redisCache.Close()

	repo := db.NewRepository(database.DB)
	audit := jobs.NewLikeCounterAudit(repo)

	scheduler := jobs.NewScheduler(cfg.Jobs.JobTimeout)
	if err := scheduler.Add(cfg.Jobs.LikeAuditSpec, audit); err != nil {
		logger.Fatal("Failed to schedule like audit", zap.Error(err))
	}
	// Without Redis views are written straight to the posts table
	if redisCache != nil {
		flush := jobs.NewViewFlush(views.NewCounter(repo, redisCache))
		if err := scheduler.Add(cfg.Jobs.ViewFlushSpec, flush); err != nil {
			logger.Fatal("Failed to schedule view flush", zap.Error(err))
		}
	}

	var metricsSrv *http.Server
	if cfg.Telemetry.Enabled && cfg.Telemetry.PrometheusEnabled {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		metricsSrv = &http.Server{
			Addr:              fmt.Sprintf(":%d", cfg.Telemetry.PrometheusPort),
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
		}
		go func() {
			logger.Info("Metrics server starting", zap.String("address", metricsSrv.Addr))
			if err := metricsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("Metrics server failed", zap.Error(err))
			}
		}()
	}

	// Repair drift left by a previous crash before waiting for the first tick
	scheduler.RunOnce(context.Background(), audit)
	scheduler.Start()

	logger.Info("Worker initialized, waiting for interrupt...")

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down worker...")

	select {
	case <-scheduler.Stop().Done():
	case <-time.After(cfg.Jobs.JobTimeout):
		logger.Warn("Jobs still running at shutdown")
	}

	if metricsSrv != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = metricsSrv.Shutdown(ctx)
	}

	logger.Info("Worker exited")
}
