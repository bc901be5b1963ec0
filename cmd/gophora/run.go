package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/gophora/engine/internal/docstore"
)

var runUser string

var runCmd = &cobra.Command{
	Use:       "run [general|personalized|cleanup]",
	Short:     "Run one pipeline once and exit",
	Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
	ValidArgs: []string{"general", "personalized", "cleanup"},
	RunE:      runOnce,
}

func init() {
	runCmd.Flags().StringVar(&runUser, "user", "", "run the personalized pipeline for a single user id")
	rootCmd.AddCommand(runCmd)
}

func runOnce(cmd *cobra.Command, args []string) error {
	logger := setupLogger(debug)

	cfg, err := loadConfig(cfgPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	openCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
	store, err := docstore.New(openCtx, cfg.Store)
	cancel()
	if err != nil {
		logger.Error("failed to open store", "error", err)
		os.Exit(1)
	}
	defer store.Close(context.Background())

	generalOrch, personalOrch, gw := buildPipelines(cfg, store, logger)

	switch args[0] {
	case "general":
		report, err := generalOrch.RunGeneral(ctx)
		if err != nil {
			return err
		}
		fmt.Printf("general: fetched %d, added %d, duplicates %d, source errors %d\n",
			report.Fetched, report.Added, report.Duplicates, report.SourceErrs)

	case "personalized":
		if runUser != "" {
			report, err := personalOrch.RunForUser(ctx, runUser)
			if err != nil {
				return err
			}
			fmt.Printf("%s: fetched %d, added %d, duplicates %d, rejected %d\n",
				runUser, report.Fetched, report.Added, report.Duplicates, report.Rejected)
			return nil
		}
		reports, err := personalOrch.RunForAllUsers(ctx)
		if err != nil {
			return err
		}
		for id, report := range reports {
			fmt.Printf("%s: fetched %d, added %d, duplicates %d, rejected %d\n",
				id, report.Fetched, report.Added, report.Duplicates, report.Rejected)
		}

	case "cleanup":
		general, personalized, err := gw.DeactivateOlderThan(ctx, cfg.Ingest.JobMaxAge)
		if err != nil {
			return err
		}
		fmt.Printf("cleanup: deactivated %d general, %d personalized\n", general, personalized)
	}

	return nil
}
