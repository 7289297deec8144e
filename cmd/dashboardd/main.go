// Command dashboardd serves the malaria dashboard API over the incidence
// store: map overlays, trend and comparison charts, rainfall correlation, and
// KPI aggregates.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"

	"github.com/euphoricking/malaria-incidence-nigeria/internal/adapter/httpapi"
	"github.com/euphoricking/malaria-incidence-nigeria/internal/adapter/postgres"
	"github.com/euphoricking/malaria-incidence-nigeria/internal/config"
	"github.com/euphoricking/malaria-incidence-nigeria/internal/dashboard"
	"github.com/euphoricking/malaria-incidence-nigeria/internal/observability"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	if cfg.DatabaseURL == "" {
		slog.Error("DATABASE_URL is required")
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := postgres.NewPool(ctx, cfg)
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	store := postgres.NewStore(pool)
	builder := dashboard.NewCachedBuilder(
		dashboard.NewBuilder(store, logger, metrics),
		cfg.DashboardCacheSize,
		metrics,
	)

	srv := httpapi.NewServer(cfg.HTTPAddr, builder, store, builder, poolReadiness{pool: pool}, logger, metrics)

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}

	logger.Info("shutdown complete")
}

// poolReadiness reports ready while the database answers pings.
type poolReadiness struct {
	pool *pgxpool.Pool
}

func (r poolReadiness) CheckReadiness(ctx context.Context) error {
	if err := r.pool.Ping(ctx); err != nil {
		return fmt.Errorf("database unreachable: %w", err)
	}
	return nil
}
