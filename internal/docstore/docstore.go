package docstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gophora/engine/internal/config"
	"github.com/gophora/engine/internal/model"
)

// ErrNotFound is returned when a requested document does not exist.
var ErrNotFound = errors.New("docstore: not found")

// ListOptions narrows a job listing.
type ListOptions struct {
	Category   string
	ActiveOnly bool
	Limit      int
	Offset     int
}

// Store persists user profiles and the two job corpora. General jobs are a
// single shared pool; personalized jobs live per user. Implementations must
// be safe for concurrent use.
type Store interface {
	GetUser(ctx context.Context, userID string) (*model.UserProfile, error)
	GetUserByEmail(ctx context.Context, email string) (*model.UserProfile, error)
	PutUser(ctx context.Context, profile model.UserProfile) error
	ListUserIDs(ctx context.Context) ([]string, error)

	AddGeneralJob(ctx context.Context, job model.JobPosting) (string, error)
	HasGeneralJob(ctx context.Context, sourceLink string) (bool, error)
	ListGeneralJobs(ctx context.Context, opts ListOptions) ([]model.JobPosting, error)
	DeactivateGeneralJobs(ctx context.Context, cutoff time.Time) (int, error)

	AddPersonalizedJob(ctx context.Context, userID string, job model.JobPosting) (string, error)
	HasPersonalizedJob(ctx context.Context, userID, title, company string) (bool, error)
	ListPersonalizedJobs(ctx context.Context, userID string, opts ListOptions) ([]model.JobPosting, error)
	DeactivatePersonalizedJobs(ctx context.Context, cutoff time.Time) (int, error)

	Close(ctx context.Context) error
}

// New creates a store instance based on configuration.
func New(ctx context.Context, cfg config.StoreConfig) (Store, error) {
	switch cfg.Backend {
	case "mongodb":
		return NewMongoStore(ctx, cfg.MongoURI, cfg.MongoDatabase)
	case "sqlite":
		return NewSQLiteStore(cfg.SQLitePath)
	case "memory":
		return NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unsupported store backend: %s", cfg.Backend)
	}
}

// stamp fills the write-time fields every insert path shares.
func stamp(job *model.JobPosting) {
	if job.ScrapedAt.IsZero() {
		job.ScrapedAt = time.Now().UTC()
	}
	job.IsActive = true
}
