package main

import (
	"context"
	"database/sql"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/dmarulanda/fuelscan/internal/common"
	"github.com/dmarulanda/fuelscan/internal/gateway"
	"github.com/dmarulanda/fuelscan/internal/pipeline"
	"github.com/dmarulanda/fuelscan/internal/provider"
	"github.com/dmarulanda/fuelscan/internal/ratelimit"
	"github.com/dmarulanda/fuelscan/internal/repository"
)

type app struct {
	cfg     *common.Config
	logger  *slog.Logger
	verbose bool
}

func newRootCmd() *cobra.Command {
	a := &app{}

	cmd := &cobra.Command{
		Use:           "fuelscan",
		Short:         "Extract structured data from fuel receipts",
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRun: func(*cobra.Command, []string) {
			_ = godotenv.Load()

			level := slog.LevelInfo
			if a.verbose {
				level = slog.LevelDebug
			}
			a.logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
			slog.SetDefault(a.logger)

			a.cfg = common.LoadConfig()
		},
	}

	cmd.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "enable debug logging")

	cmd.AddCommand(newProcessCmd(a))
	cmd.AddCommand(newBatchCmd(a))
	cmd.AddCommand(newExportCmd(a))
	return cmd
}

// buildPipeline wires the provider client, rate limiter, and gateway into a
// ready pipeline. Requires valid provider configuration.
func (a *app) buildPipeline() (*pipeline.Pipeline, error) {
	if err := a.cfg.Validate(); err != nil {
		return nil, err
	}

	analyzer := provider.NewAzureClient(provider.AzureConfig{
		Endpoint:     a.cfg.Provider.Endpoint,
		APIKey:       a.cfg.Provider.APIKey,
		ModelID:      a.cfg.Provider.ModelID,
		APIVersion:   a.cfg.Provider.APIVersion,
		PollInterval: a.cfg.Provider.PollInterval,
		Timeout:      a.cfg.Provider.Timeout,
	}, a.logger)

	limiter := ratelimit.New(ratelimit.Config{
		MaxRequests: a.cfg.RateLimit.MaxRequests,
		Window:      a.cfg.RateLimit.Window,
		Enabled:     a.cfg.RateLimit.Enabled,
	})

	gw := gateway.New(analyzer, limiter, a.logger)
	return pipeline.New(gw, a.logger), nil
}

// openRepo connects to the configured database and guarantees the schema.
// Callers own closing the returned handle.
func (a *app) openRepo(ctx context.Context) (*sql.DB, repository.FillUpRepository, error) {
	db, err := repository.Open(ctx, repository.Config{
		Driver:           a.cfg.Database.Driver,
		DSN:              a.cfg.Database.DSN,
		MaxConns:         a.cfg.Database.MaxConns,
		MaxConnLifetime:  a.cfg.Database.MaxConnLifetime,
		MaxConnIdleTime:  a.cfg.Database.MaxConnIdleTime,
		DialTimeout:      a.cfg.Database.DialTimeout,
		StatementTimeout: a.cfg.Database.StatementTimeout,
	}, a.logger)
	if err != nil {
		return nil, nil, err
	}

	repo := repository.NewFillUpRepository(db, a.cfg.Database.Driver, a.logger)
	if err := repo.EnsureSchema(ctx); err != nil {
		_ = db.Close()
		return nil, nil, err
	}
	return db, repo, nil
}
