package ingest

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/gophora/engine/internal/docstore"
	"github.com/gophora/engine/internal/filter"
	"github.com/gophora/engine/internal/gateway"
	"github.com/gophora/engine/internal/model"
	"github.com/gophora/engine/internal/ratelimit"
	"github.com/gophora/engine/internal/scorer"
)

// Report summarizes one ingest run.
type Report struct {
	Fetched    int
	Added      int
	Duplicates int
	Rejected   int // personalized only: scored below threshold
	SourceErrs int // adapters that failed outright
	ItemErrs   int // per-job score/store failures; those jobs are retried next run
}

// Options tunes orchestrator timing and volume.
type Options struct {
	AdapterTimeout time.Duration // per-adapter fetch deadline
	PerUserDelay   time.Duration // pause between users in a batch run
	FetchLimit     int           // target jobs per adapter
}

// Orchestrator drives the two ingest pipelines: the shared general pool and
// per-user personalized feeds. Adapters run concurrently; a failing adapter
// costs its own results and nothing else.
type Orchestrator struct {
	adapters   []model.SourceAdapter
	entryLevel []model.SourceAdapter // extra boards for entry-level profiles
	gw         *gateway.Gateway
	store      docstore.Store
	scorer     scorer.Scorer
	opts       Options
	logger     *slog.Logger
}

// NewOrchestrator creates an orchestrator over the given adapter set.
func NewOrchestrator(
	adapters, entryLevel []model.SourceAdapter,
	gw *gateway.Gateway,
	store docstore.Store,
	sc scorer.Scorer,
	opts Options,
	logger *slog.Logger,
) *Orchestrator {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Orchestrator{
		adapters:   adapters,
		entryLevel: entryLevel,
		gw:         gw,
		store:      store,
		scorer:     sc,
		opts:       opts,
		logger:     logger,
	}
}

// fetchAll fans out one query across adapters and collects everything that
// arrived. Adapter failures are logged and counted, never propagated; the
// only error returned is context cancellation.
func (o *Orchestrator) fetchAll(ctx context.Context, adapters []model.SourceAdapter, query model.SearchQuery) ([]model.JobPosting, int, error) {
	var (
		mu   sync.Mutex
		jobs []model.JobPosting
		errs int
	)

	g, gctx := errgroup.WithContext(ctx)
	for _, a := range adapters {
		g.Go(func() error {
			fctx := gctx
			if o.opts.AdapterTimeout > 0 {
				var cancel context.CancelFunc
				fctx, cancel = context.WithTimeout(gctx, o.opts.AdapterTimeout)
				defer cancel()
			}

			fetched, err := a.Fetch(fctx, query)
			if err != nil {
				if errors.Is(err, context.Canceled) && gctx.Err() != nil {
					return gctx.Err()
				}
				o.logger.Warn("source fetch failed",
					slog.String("source", a.Name()),
					slog.String("error", err.Error()))
				mu.Lock()
				errs++
				mu.Unlock()
				return nil
			}

			o.logger.Debug("source fetch complete",
				slog.String("source", a.Name()),
				slog.Int("jobs", len(fetched)))
			mu.Lock()
			jobs = append(jobs, fetched...)
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, errs, err
	}
	return jobs, errs, nil
}

// RunGeneral refreshes the shared job pool: fetch everything, keep what is
// valid and unseen. No scoring is involved.
func (o *Orchestrator) RunGeneral(ctx context.Context) (Report, error) {
	started := time.Now()
	query := model.SearchQuery{Limit: o.opts.FetchLimit}

	jobs, errs, err := o.fetchAll(ctx, o.adapters, query)
	if err != nil {
		return Report{SourceErrs: errs}, err
	}

	report := Report{Fetched: len(jobs), SourceErrs: errs}
	for _, job := range jobs {
		if !filter.Valid(job) {
			continue
		}
		job = filter.Normalize(job)
		added, err := o.gw.StoreIfNew(ctx, gateway.General(), job)
		if err != nil {
			if ctx.Err() != nil {
				return report, err
			}
			report.ItemErrs++
			o.logger.Warn("store failed",
				slog.String("title", job.Title),
				slog.String("error", err.Error()))
			continue
		}
		if added {
			report.Added++
		} else {
			report.Duplicates++
		}
	}

	o.logger.Info("general ingest complete",
		slog.Int("fetched", report.Fetched),
		slog.Int("added", report.Added),
		slog.Int("duplicates", report.Duplicates),
		slog.Int("source_errors", report.SourceErrs),
		slog.Int("item_errors", report.ItemErrs),
		slog.Duration("took", time.Since(started)))
	return report, nil
}

// RunForUser builds one user's personalized feed: fetch with keywords derived
// from the profile, then score and store what passes. A profile with no
// skills and no interests yields nothing.
func (o *Orchestrator) RunForUser(ctx context.Context, userID string) (Report, error) {
	profile, err := o.store.GetUser(ctx, userID)
	if err != nil {
		if errors.Is(err, docstore.ErrNotFound) {
			o.logger.Warn("user not found, skipping", slog.String("user", userID))
			return Report{}, nil
		}
		return Report{}, err
	}

	if len(profile.Skills) == 0 && len(profile.Interests) == 0 {
		o.logger.Warn("user has no skills or interests, skipping", slog.String("user", userID))
		return Report{}, nil
	}

	started := time.Now()
	query := model.SearchQuery{
		Keywords: searchKeywords(*profile),
		Location: profile.Location,
		Limit:    o.opts.FetchLimit,
	}

	adapters := o.adapters
	if profile.EntryLevel() && len(o.entryLevel) > 0 {
		adapters = append(append([]model.SourceAdapter{}, adapters...), o.entryLevel...)
	}

	jobs, errs, err := o.fetchAll(ctx, adapters, query)
	if err != nil {
		return Report{SourceErrs: errs}, err
	}

	scope := gateway.ForUser(userID)
	report := Report{Fetched: len(jobs), SourceErrs: errs}
	for _, job := range jobs {
		if !filter.Valid(job) {
			continue
		}
		job = filter.Normalize(job)

		// Dedup before scoring so duplicates cost nothing.
		exists, err := o.gw.Exists(ctx, scope, job)
		if err != nil {
			if ctx.Err() != nil {
				return report, err
			}
			report.ItemErrs++
			o.logger.Warn("dedup check failed",
				slog.String("user", userID),
				slog.String("title", job.Title),
				slog.String("error", err.Error()))
			continue
		}
		if exists {
			report.Duplicates++
			continue
		}

		res, err := o.scorer.Score(ctx, *profile, job)
		if err != nil {
			if ctx.Err() != nil {
				return report, err
			}
			report.ItemErrs++
			o.logger.Warn("scoring failed",
				slog.String("user", userID),
				slog.String("title", job.Title),
				slog.String("error", err.Error()))
			continue
		}
		if !res.Accept {
			report.Rejected++
			continue
		}

		job.Score = res.Score
		job.Reasoning = res.Reasoning
		job.SkillMatches = res.SkillMatches
		job.SkillGaps = res.SkillGaps

		added, err := o.gw.StoreIfNew(ctx, scope, job)
		if err != nil {
			if ctx.Err() != nil {
				return report, err
			}
			report.ItemErrs++
			o.logger.Warn("store failed",
				slog.String("user", userID),
				slog.String("title", job.Title),
				slog.String("error", err.Error()))
			continue
		}
		if added {
			report.Added++
			o.logger.Debug("personalized job added",
				slog.String("user", userID),
				slog.String("title", job.Title),
				slog.Float64("score", res.Score))
		} else {
			report.Duplicates++
		}
	}

	o.logger.Info("personalized ingest complete",
		slog.String("user", userID),
		slog.Int("fetched", report.Fetched),
		slog.Int("added", report.Added),
		slog.Int("duplicates", report.Duplicates),
		slog.Int("rejected", report.Rejected),
		slog.Int("item_errors", report.ItemErrs),
		slog.Duration("took", time.Since(started)))
	return report, nil
}

// RunForAllUsers processes every user sequentially with a pause between
// users so the upstream boards see a steady request rate.
func (o *Orchestrator) RunForAllUsers(ctx context.Context) (map[string]Report, error) {
	ids, err := o.store.ListUserIDs(ctx)
	if err != nil {
		return nil, err
	}

	results := make(map[string]Report, len(ids))
	for i, id := range ids {
		if i > 0 && o.opts.PerUserDelay > 0 {
			if err := ratelimit.Jitter(ctx, o.opts.PerUserDelay, 2*o.opts.PerUserDelay); err != nil {
				return results, err
			}
		}

		report, err := o.RunForUser(ctx, id)
		if err != nil {
			if ctx.Err() != nil {
				return results, err
			}
			// One broken user must not sink the batch. The user still
			// appears in the results with a zero report.
			o.logger.Error("user ingest failed",
				slog.String("user", id),
				slog.String("error", err.Error()))
			results[id] = Report{}
			continue
		}
		results[id] = report
	}

	var total int
	for _, r := range results {
		total += r.Added
	}
	o.logger.Info("batch ingest complete",
		slog.Int("users", len(results)),
		slog.Int("added", total))
	return results, nil
}

// searchKeywords derives the query terms: the first three skills, or the
// first three interests when no skills are set.
func searchKeywords(p model.UserProfile) []string {
	src := p.Skills
	if len(src) == 0 {
		src = p.Interests
	}
	if len(src) > 3 {
		src = src[:3]
	}
	return src
}
