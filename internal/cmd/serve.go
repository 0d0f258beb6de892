package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/rushteam/hybridrec/config"
	"github.com/rushteam/hybridrec/server"
	"github.com/rushteam/hybridrec/store"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	Long: `Run the recommendation HTTP API. With the memory store backend the fixture
configured by store.fixture is loaded at startup.`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer a.Close()

	if err := loadConfiguredFixture(ctx, a); err != nil {
		return err
	}

	srv := server.New(a.engine, server.Options{
		Addr:            cfg.Server.Addr,
		ReadTimeout:     cfg.Server.ReadTimeout,
		WriteTimeout:    cfg.Server.WriteTimeout,
		ShutdownTimeout: cfg.Server.ShutdownTimeout,
		RateLimit:       cfg.Server.RateLimit,
		RateLimitWindow: cfg.Server.RateLimitWindow,
		CORSOrigins:     cfg.Server.CORSOrigins,
		MetricsHandler:  a.metrics,
		MetricsPath:     cfg.Metrics.Path,
	}, logger)
	return srv.Run(ctx)
}

// loadConfiguredFixture 内存存储启动时导入 store.fixture
func loadConfiguredFixture(ctx context.Context, a *app) error {
	if cfg.Store.Fixture == "" || cfg.Store.Backend != config.BackendMemory {
		return nil
	}
	fx, err := store.LoadFixture(cfg.Store.Fixture)
	if err != nil {
		return err
	}
	if err := a.Load(ctx, fx, cfg.Engine.Collection); err != nil {
		return err
	}
	logger.Info().
		Str("fixture", cfg.Store.Fixture).
		Int("items", len(fx.Items)).
		Int("interactions", len(fx.Interactions)).
		Msg("fixture loaded")
	return nil
}
