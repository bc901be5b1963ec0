package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/gophora/engine/internal/config"
	"github.com/gophora/engine/internal/docstore"
	"github.com/gophora/engine/internal/httpapi"
	"github.com/gophora/engine/internal/scheduler"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the ingestion daemon",
	Long:  "Run the scheduled pipelines and the HTTP API; blocks until SIGINT/SIGTERM.",
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	logger := setupLogger(debug)

	cfg, err := loadConfig(cfgPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger.Info("config loaded",
		"store", cfg.Store.Backend,
		"personalized_interval", cfg.Ingest.PersonalizedInterval.String(),
		"general_interval", cfg.Ingest.GeneralInterval.String(),
		"cleanup_at", cfg.Ingest.CleanupAt,
		"job_max_age", cfg.Ingest.JobMaxAge.String(),
		"ai_enabled", cfg.AI.Enabled,
	)

	openCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	store, err := docstore.New(openCtx, cfg.Store)
	cancel()
	if err != nil {
		logger.Error("failed to open store", "error", err)
		os.Exit(1)
	}

	generalOrch, personalOrch, gw := buildPipelines(cfg, store, logger)

	cleanupHour, cleanupMinute, err := config.ParseClock(cfg.Ingest.CleanupAt)
	if err != nil {
		logger.Error("invalid cleanup time", "error", err)
		os.Exit(1)
	}

	sched := scheduler.New(
		func(ctx context.Context) (int, error) {
			reports, err := personalOrch.RunForAllUsers(ctx)
			added := 0
			for _, r := range reports {
				added += r.Added
			}
			return added, err
		},
		func(ctx context.Context) (int, error) {
			report, err := generalOrch.RunGeneral(ctx)
			return report.Added, err
		},
		func(ctx context.Context) (int, error) {
			general, personalized, err := gw.DeactivateOlderThan(ctx, cfg.Ingest.JobMaxAge)
			return general + personalized, err
		},
		scheduler.Config{
			PersonalizedInterval: cfg.Ingest.PersonalizedInterval,
			GeneralInterval:      cfg.Ingest.GeneralInterval,
			CleanupHour:          cleanupHour,
			CleanupMinute:        cleanupMinute,
			MisfireGrace:         cfg.Ingest.MisfireGrace,
		},
		logger,
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := sched.Start(ctx); err != nil {
		logger.Error("scheduler start failed", "error", err)
		os.Exit(1)
	}

	srv := httpapi.New(cfg.HTTP.Addr, store, sched, logger)
	srvErr := make(chan error, 1)
	go func() {
		srvErr <- srv.ListenAndServe()
	}()
	logger.Info("http api listening", "addr", cfg.HTTP.Addr)

	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	case err := <-srvErr:
		logger.Error("http server error", "error", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warn("http shutdown", "error", err)
	}

	sched.Stop()

	if err := store.Close(shutdownCtx); err != nil {
		logger.Warn("store close", "error", err)
	}

	logger.Info("goodbye")
	return nil
}
