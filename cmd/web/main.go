package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/joho/godotenv"

	"superstore-analytics/internal/config"
	"superstore-analytics/internal/middleware"
	"superstore-analytics/internal/models"
	"superstore-analytics/internal/observability"
	"superstore-analytics/internal/server"
	"superstore-analytics/internal/services"
	"superstore-analytics/internal/ui/templates"
)

const (
	renderTimeout     = 10 * time.Second
	seedRetryInterval = 250 * time.Millisecond
)

// dashboardHandler renders the page with whatever dataset is loaded at
// request time.
func dashboardHandler(analytics *services.Analytics) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), renderTimeout)
		defer cancel()

		var info *models.DatasetInfo
		if ds, err := analytics.Dataset(); err == nil {
			info = &ds
		}
		customers, _ := analytics.Customers()

		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Header().Set("Cache-Control", "no-cache")
		if err := templates.Dashboard(info, customers).Render(ctx, w); err != nil {
			http.Error(w, "render error", http.StatusInternalServerError)
		}
	}
}

// seedDataset preloads the configured CSV. A missing file is retried until
// the seed timeout so a volume mounted after startup is still picked up; bad
// data fails on the first attempt.
func seedDataset(cfg config.DatasetConfig, analytics *services.Analytics, logger *slog.Logger) error {
	if cfg.SeedCSV == "" {
		logger.Info("no seed dataset configured, waiting for an upload")
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.SeedTimeout)
	defer cancel()

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = seedRetryInterval
	bo.MaxElapsedTime = cfg.SeedTimeout

	attempts := 0
	load := func() error {
		attempts++
		err := analytics.LoadFromCSV(ctx, cfg.SeedCSV)
		if err == nil || errors.Is(err, os.ErrNotExist) {
			return err
		}
		return backoff.Permanent(err)
	}
	notify := func(err error, wait time.Duration) {
		logger.Debug("seed dataset not available yet", "file", cfg.SeedCSV, "error", err, "retry_in", wait)
	}

	start := time.Now()
	if err := backoff.RetryNotify(load, backoff.WithContext(bo, ctx), notify); err != nil {
		logger.Warn("failed to load seed dataset", "file", cfg.SeedCSV, "attempts", attempts, "error", err)
		return err
	}
	logger.Info("seed dataset loaded", "file", cfg.SeedCSV, "attempts", attempts, "duration", time.Since(start))
	return nil
}

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		slog.Warn("failed to read .env file", "error", err)
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg.Logger)
	slog.SetDefault(logger)

	logger.Info("starting application",
		"version", "1.0.0",
		"addr", cfg.Address(),
		"strict_columns", cfg.Dataset.StrictColumns,
		"upload_max_mb", cfg.Dataset.UploadLimitMB(),
	)

	analytics := services.NewAnalytics(
		services.WithLogger(logger),
		services.WithIngest(cfg.Dataset.IngestWorkers, cfg.Dataset.IngestBatchSize),
		services.WithStrictColumns(cfg.Dataset.StrictColumns),
	)
	_ = seedDataset(cfg.Dataset, analytics, logger)

	templateHandlers := &server.TemplateHandlers{
		Dashboard: dashboardHandler(analytics),
	}

	srv := server.NewServer(analytics, logger, cfg.Dataset.MaxUploadBytes, templateHandlers)

	limiterCtx, stopLimiter := context.WithCancel(context.Background())
	rateLimiter := middleware.NewRateLimiter(cfg.Security)
	go rateLimiter.Run(limiterCtx)

	middlewareChain := middleware.Chain(
		middleware.Recovery(logger),
		middleware.RequestID(),
		middleware.Logger(logger),
		middleware.Tracing(logger),
		middleware.SecurityHeaders(),
		middleware.CORS(cfg.Security),
		middleware.TrustedProxy(cfg.Security),
		middleware.RateLimit(rateLimiter, logger),
	)

	httpServer := &http.Server{
		Addr:         cfg.Address(),
		Handler:      middlewareChain(srv),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	gracefulServer := server.NewGracefulServer(httpServer, logger, cfg.Server)

	gracefulServer.RegisterShutdownHook("rate-limiter", func(ctx context.Context) error {
		stopLimiter()
		return nil
	})
	gracefulServer.RegisterShutdownHook("analytics", func(ctx context.Context) error {
		logger.Info("releasing analytics session", "stats", analytics.Stats())
		analytics.Reset()
		return nil
	})

	if err := gracefulServer.Run(context.Background()); err != nil {
		logger.Error("server failed", "error", err)
		os.Exit(1)
	}

	logger.Info("application stopped gracefully")
}
