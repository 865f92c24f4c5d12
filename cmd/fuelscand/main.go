// fuelscand serves the receipt extraction pipeline over HTTP.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/dmarulanda/fuelscan/internal/common"
	"github.com/dmarulanda/fuelscan/internal/export"
	"github.com/dmarulanda/fuelscan/internal/gateway"
	"github.com/dmarulanda/fuelscan/internal/pipeline"
	"github.com/dmarulanda/fuelscan/internal/provider"
	"github.com/dmarulanda/fuelscan/internal/ratelimit"
	"github.com/dmarulanda/fuelscan/internal/repository"
	"github.com/dmarulanda/fuelscan/internal/server"
)

func main() {
	_ = godotenv.Load()

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	cfg := common.LoadConfig()
	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := repository.Open(ctx, repository.Config{
		Driver:           cfg.Database.Driver,
		DSN:              cfg.Database.DSN,
		MaxConns:         cfg.Database.MaxConns,
		MaxConnLifetime:  cfg.Database.MaxConnLifetime,
		MaxConnIdleTime:  cfg.Database.MaxConnIdleTime,
		DialTimeout:      cfg.Database.DialTimeout,
		StatementTimeout: cfg.Database.StatementTimeout,
	}, logger)
	if err != nil {
		logger.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer repository.Close(db, logger)

	repo := repository.NewFillUpRepository(db, cfg.Database.Driver, logger)
	if err := repo.EnsureSchema(ctx); err != nil {
		logger.Error("failed to ensure schema", "error", err)
		os.Exit(1)
	}

	analyzer := provider.NewAzureClient(provider.AzureConfig{
		Endpoint:     cfg.Provider.Endpoint,
		APIKey:       cfg.Provider.APIKey,
		ModelID:      cfg.Provider.ModelID,
		APIVersion:   cfg.Provider.APIVersion,
		PollInterval: cfg.Provider.PollInterval,
		Timeout:      cfg.Provider.Timeout,
	}, logger)

	limiter := ratelimit.New(ratelimit.Config{
		MaxRequests: cfg.RateLimit.MaxRequests,
		Window:      cfg.RateLimit.Window,
		Enabled:     cfg.RateLimit.Enabled,
	})

	gw := gateway.New(analyzer, limiter, logger)
	pipe := pipeline.New(gw, logger)
	exporter := export.NewService(repo, logger)

	srv := server.New(pipe, repo, exporter, logger,
		server.WithMaxUploadBytes(cfg.Server.MaxUploadBytes),
		server.WithHealthCheck(func(ctx context.Context) error {
			return repository.HealthCheck(ctx, db, cfg.Database.DialTimeout)
		}),
	)

	httpServer := &http.Server{
		Addr:    cfg.Server.HTTPAddr,
		Handler: srv.Handler(),
	}

	go func() {
		logger.Info("http server listening", "addr", cfg.Server.HTTPAddr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http serve failed", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("http shutdown failed", "error", err)
	}
	logger.Info("stopped")
}
