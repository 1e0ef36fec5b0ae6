package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/shopspring/decimal"

	"ecommerce-dashboard/internal/config"
	"ecommerce-dashboard/internal/dataset"
	"ecommerce-dashboard/internal/errors"
	"ecommerce-dashboard/internal/middleware"
	"ecommerce-dashboard/internal/observability"
	"ecommerce-dashboard/internal/server"
	"ecommerce-dashboard/internal/services"
	"ecommerce-dashboard/internal/ui/templates"
)

const (
	version            = "1.0.0"
	renderTimeout      = 10 * time.Second
	cacheMaxAge        = "public, max-age=300"
	limiterSweepPeriod = time.Minute
)

func dashboardHandler(analytics *services.Analytics, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), renderTimeout)
		defer cancel()

		opts, err := analytics.Options()
		if err != nil {
			errors.WriteError(w, logger, err, observability.GetRequestID(ctx))
			return
		}

		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Header().Set("Cache-Control", cacheMaxAge)
		if err := templates.Dashboard(opts).Render(ctx, w); err != nil {
			logger.Error("render dashboard", "error", err)
			http.Error(w, "render error", http.StatusInternalServerError)
		}
	}
}

// newHandler mounts the routes behind the middleware chain.
func newHandler(cfg *config.Config, analytics *services.Analytics, logger *slog.Logger,
	metrics *observability.Metrics, limiter *middleware.RateLimiter) http.Handler {

	srv := server.NewServer(analytics, logger, &server.PageHandlers{
		Dashboard: dashboardHandler(analytics, logger),
		Metrics:   metrics.Handler(),
	})

	middlewareChain := middleware.Chain(
		middleware.Recovery(logger),
		middleware.RequestID(),
		middleware.Logger(logger),
		middleware.Tracing(),
		middleware.Metrics(metrics),
		middleware.SecurityHeaders(),
		middleware.CORS(cfg.Security),
		middleware.TrustedProxy(cfg.Security),
		middleware.RateLimit(limiter, logger),
	)
	return middlewareChain(srv)
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg.Logger)
	slog.SetDefault(logger)
	decimal.MarshalJSONWithoutQuotes = true

	logger.Info("starting application",
		"version", version,
		"addr", cfg.Address(),
		"data_source", cfg.Database.Source,
		"log_level", cfg.Logger.Level,
		"rate_limit", cfg.Security.EnableRateLimit,
	)

	metrics := observability.NewMetrics()
	analytics := services.NewAnalytics(logger, metrics)

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Database.LoadTimeout)
	source, closeSource, err := dataset.Open(ctx, cfg.Database, logger)
	if err != nil {
		cancel()
		logger.Error("failed to open data source", "source", cfg.Database.Source, "error", err)
		os.Exit(1)
	}
	if err := analytics.Load(ctx, source); err != nil {
		cancel()
		closeSource()
		logger.Error("failed to load data", "error", err)
		os.Exit(1)
	}
	cancel()

	rateLimiter := middleware.NewRateLimiter(cfg.Security)
	sweepCtx, stopSweep := context.WithCancel(context.Background())
	go rateLimiter.Cleanup(sweepCtx, limiterSweepPeriod)

	httpServer := &http.Server{
		Addr:         cfg.Address(),
		Handler:      newHandler(cfg, analytics, logger, metrics, rateLimiter),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	gracefulServer := server.NewGracefulServer(httpServer, logger, cfg.Server)

	gracefulServer.RegisterShutdownHook(func(ctx context.Context) error {
		stopSweep()
		return nil
	})
	gracefulServer.RegisterShutdownHook(func(ctx context.Context) error {
		logger.Info("closing data source")
		closeSource()
		return nil
	})

	logger.Info("starting graceful server")
	if err := gracefulServer.ListenAndServe(); err != nil {
		logger.Error("server failed", "error", err)
		os.Exit(1)
	}

	logger.Info("application stopped gracefully")
}
