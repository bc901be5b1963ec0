package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/gophora/engine/internal/docstore"
	"github.com/gophora/engine/internal/model"
	"github.com/gophora/engine/internal/review"
)

var (
	jobsUser     string
	jobsCategory string
	jobsAll      bool
	jobsLimit    int
)

var jobsCmd = &cobra.Command{
	Use:   "jobs",
	Short: "Browse stored jobs interactively (TUI)",
	Long:  "Opens the stored general pool, or one user's personalized feed with --user (id or email).",
	RunE:  runJobs,
}

func init() {
	jobsCmd.Flags().StringVar(&jobsUser, "user", "", "show a user's personalized feed (id or email)")
	jobsCmd.Flags().StringVar(&jobsCategory, "category", "", "filter by category")
	jobsCmd.Flags().BoolVar(&jobsAll, "all", false, "include deactivated jobs")
	jobsCmd.Flags().IntVar(&jobsLimit, "limit", 200, "maximum jobs to load")
	rootCmd.AddCommand(jobsCmd)
}

func runJobs(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	store, err := docstore.New(ctx, cfg.Store)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer store.Close(context.Background())

	opts := docstore.ListOptions{
		Category:   jobsCategory,
		ActiveOnly: !jobsAll,
		Limit:      jobsLimit,
	}

	var (
		title string
		jobs  []model.JobPosting
	)
	if jobsUser == "" {
		title = "General Jobs"
		jobs, err = store.ListGeneralJobs(ctx, opts)
	} else {
		var profile *model.UserProfile
		profile, err = resolveUser(ctx, store, jobsUser)
		if err != nil {
			return err
		}
		title = "Jobs for " + displayName(profile)
		jobs, err = store.ListPersonalizedJobs(ctx, profile.UserID, opts)
	}
	if err != nil {
		return fmt.Errorf("list jobs: %w", err)
	}

	if len(jobs) == 0 {
		fmt.Println("No stored jobs. Run `gophora run general` first.")
		return nil
	}

	return review.Run(title, jobs)
}

// resolveUser accepts either a user id or an email address.
func resolveUser(ctx context.Context, store docstore.Store, key string) (*model.UserProfile, error) {
	profile, err := store.GetUser(ctx, key)
	if err == nil {
		return profile, nil
	}
	if !errors.Is(err, docstore.ErrNotFound) {
		return nil, err
	}

	profile, err = store.GetUserByEmail(ctx, key)
	if errors.Is(err, docstore.ErrNotFound) {
		fmt.Fprintf(os.Stderr, "No user %q found.\n", key)
		os.Exit(1)
	}
	return profile, err
}

func displayName(p *model.UserProfile) string {
	if p.Name != "" {
		return p.Name
	}
	if p.Email != "" {
		return p.Email
	}
	return p.UserID
}
