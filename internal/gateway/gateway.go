package gateway

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/gophora/engine/internal/docstore"
	"github.com/gophora/engine/internal/model"
)

// Scope selects which corpus a write targets: the shared general pool or one
// user's personalized feed.
type Scope struct {
	userID string
}

// General is the shared pool scope.
func General() Scope { return Scope{} }

// ForUser scopes writes to one user's feed.
func ForUser(userID string) Scope { return Scope{userID: userID} }

func (s Scope) personalized() bool { return s.userID != "" }

// Gateway is the single write path into the store. It owns the dedup rules:
// general jobs are keyed by source link, personalized jobs by title and
// company within the user's feed. The check and the write are not atomic;
// a racing duplicate is tolerated and aged out with everything else.
type Gateway struct {
	store  docstore.Store
	logger *slog.Logger
}

// New creates a gateway over the given store.
func New(store docstore.Store, logger *slog.Logger) *Gateway {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Gateway{store: store, logger: logger}
}

// Exists reports whether the job's dedup key is already present in the
// scoped corpus. Callers use it to skip expensive work on duplicates; the
// authoritative check still happens inside StoreIfNew.
func (g *Gateway) Exists(ctx context.Context, scope Scope, job model.JobPosting) (bool, error) {
	if scope.personalized() {
		return g.store.HasPersonalizedJob(ctx, scope.userID, job.Title, job.Company)
	}
	return g.store.HasGeneralJob(ctx, job.SourceLink)
}

// StoreIfNew persists job unless its dedup key is already present in the
// scoped corpus. Returns true when the job was written.
func (g *Gateway) StoreIfNew(ctx context.Context, scope Scope, job model.JobPosting) (bool, error) {
	if scope.personalized() {
		exists, err := g.store.HasPersonalizedJob(ctx, scope.userID, job.Title, job.Company)
		if err != nil {
			return false, fmt.Errorf("checking personalized duplicate: %w", err)
		}
		if exists {
			g.logger.Debug("duplicate personalized job skipped",
				slog.String("user", scope.userID),
				slog.String("title", job.Title),
				slog.String("company", job.Company))
			return false, nil
		}
		if _, err := g.store.AddPersonalizedJob(ctx, scope.userID, job); err != nil {
			return false, fmt.Errorf("storing personalized job: %w", err)
		}
		return true, nil
	}

	exists, err := g.store.HasGeneralJob(ctx, job.SourceLink)
	if err != nil {
		return false, fmt.Errorf("checking general duplicate: %w", err)
	}
	if exists {
		g.logger.Debug("duplicate general job skipped", slog.String("link", job.SourceLink))
		return false, nil
	}
	if _, err := g.store.AddGeneralJob(ctx, job); err != nil {
		return false, fmt.Errorf("storing general job: %w", err)
	}
	return true, nil
}

// DeactivateOlderThan marks jobs scraped before now-maxAge as inactive in
// both corpora. Returns the counts of general and personalized jobs touched.
func (g *Gateway) DeactivateOlderThan(ctx context.Context, maxAge time.Duration) (int, int, error) {
	cutoff := time.Now().UTC().Add(-maxAge)

	general, err := g.store.DeactivateGeneralJobs(ctx, cutoff)
	if err != nil {
		return 0, 0, fmt.Errorf("deactivating general jobs: %w", err)
	}

	personalized, err := g.store.DeactivatePersonalizedJobs(ctx, cutoff)
	if err != nil {
		return general, 0, fmt.Errorf("deactivating personalized jobs: %w", err)
	}

	g.logger.Info("old jobs deactivated",
		slog.Int("general", general),
		slog.Int("personalized", personalized),
		slog.Duration("max_age", maxAge))
	return general, personalized, nil
}
