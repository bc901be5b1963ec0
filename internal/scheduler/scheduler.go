package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/robfig/cron/v3"
)

// ErrInFlight is returned by Trigger when the previous run of the job has
// not finished yet.
var ErrInFlight = errors.New("job already running")

// Job names, also used as identifiers in the status endpoint.
const (
	JobPersonalized = "personalized_scraper"
	JobGeneral      = "general_scraper"
	JobCleanup      = "cleanup"
)

// Task is one schedulable unit of work. The returned count is whatever the
// task considers its outcome (jobs added, records deactivated) and is only
// used for status reporting.
type Task func(ctx context.Context) (int, error)

// Config tunes the three recurring jobs.
type Config struct {
	PersonalizedInterval time.Duration
	GeneralInterval      time.Duration
	CleanupHour          int
	CleanupMinute        int
	MisfireGrace         time.Duration // fire this late and the run is skipped
}

// JobStatus is a point-in-time snapshot of one job.
type JobStatus struct {
	Name        string    `json:"name"`
	NextRun     time.Time `json:"nextRun"`
	LastRun     time.Time `json:"lastRun,omitzero"`
	LastAdded   int       `json:"lastAdded"`
	Runs        int       `json:"runs"`
	Skips       int       `json:"skips"`
	Errors      int       `json:"errors"`
	InFlight    bool      `json:"inFlight"`
	LastError   string    `json:"lastError,omitempty"`
	LastErrorAt time.Time `json:"lastErrorAt,omitzero"`
}

// Status is the scheduler snapshot served by the health endpoint.
type Status struct {
	Running bool        `json:"running"`
	Jobs    []JobStatus `json:"jobs"`
}

type jobState struct {
	name    string
	task    Task
	grace   time.Duration
	entryID cron.EntryID

	inFlight atomic.Bool

	mu          sync.Mutex
	next        time.Time // expected fire time of the next activation
	lastRun     time.Time
	lastAdded   int
	runs        int
	skips       int
	errors      int
	lastError   string
	lastErrorAt time.Time
}

// Scheduler runs the personalized, general, and cleanup jobs on their
// configured cadence. At most one instance of each job runs at a time; an
// activation that arrives while the previous run is still going, or later
// than the misfire grace, is skipped.
type Scheduler struct {
	cron   *cron.Cron
	cfg    Config
	logger *slog.Logger

	jobs map[string]*jobState

	mu      sync.Mutex
	baseCtx context.Context
	running bool
	wg      sync.WaitGroup
}

// New creates a scheduler over the three pipeline tasks.
func New(personalized, general, cleanup Task, cfg Config, logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	s := &Scheduler{
		cron:   cron.New(),
		cfg:    cfg,
		logger: logger,
		jobs:   make(map[string]*jobState),
	}
	s.jobs[JobPersonalized] = &jobState{name: JobPersonalized, task: personalized, grace: cfg.MisfireGrace}
	s.jobs[JobGeneral] = &jobState{name: JobGeneral, task: general, grace: cfg.MisfireGrace}
	s.jobs[JobCleanup] = &jobState{name: JobCleanup, task: cleanup}
	return s
}

// Start registers the cron entries and begins scheduling. The general job
// also runs once immediately so the pool is populated without waiting for
// the first tick; the personalized job waits for its interval since it
// depends on user data being present.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return fmt.Errorf("scheduler already started")
	}
	s.baseCtx = ctx

	specs := map[string]string{
		JobPersonalized: fmt.Sprintf("@every %s", s.cfg.PersonalizedInterval),
		JobGeneral:      fmt.Sprintf("@every %s", s.cfg.GeneralInterval),
		JobCleanup:      fmt.Sprintf("%d %d * * *", s.cfg.CleanupMinute, s.cfg.CleanupHour),
	}
	for name, spec := range specs {
		st := s.jobs[name]
		id, err := s.cron.AddFunc(spec, func() { s.fire(st) })
		if err != nil {
			return fmt.Errorf("scheduling %s: %w", name, err)
		}
		st.entryID = id
		s.logger.Info("job scheduled", slog.String("job", name), slog.String("spec", spec))
	}

	s.cron.Start()
	s.running = true

	// Seed expected fire times now that the entries have schedules.
	for _, st := range s.jobs {
		st.mu.Lock()
		st.next = s.cron.Entry(st.entryID).Next
		st.mu.Unlock()
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.run(s.jobs[JobGeneral])
	}()

	s.logger.Info("scheduler started")
	return nil
}

// Stop halts scheduling and waits for in-flight runs to finish.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	s.mu.Unlock()

	<-s.cron.Stop().Done()
	s.wg.Wait()
	s.logger.Info("scheduler stopped")
}

// Trigger launches a job out of band. The single-instance guard is claimed
// before Trigger returns, so a run already in flight surfaces as ErrInFlight
// instead of a silent skip in the background.
func (s *Scheduler) Trigger(name string) error {
	st, ok := s.jobs[name]
	if !ok {
		return fmt.Errorf("unknown job: %s", name)
	}
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return fmt.Errorf("scheduler not running")
	}
	if !st.inFlight.CompareAndSwap(false, true) {
		s.mu.Unlock()
		st.mu.Lock()
		st.skips++
		st.mu.Unlock()
		return fmt.Errorf("%s: %w", name, ErrInFlight)
	}
	s.wg.Add(1)
	s.mu.Unlock()

	go func() {
		defer s.wg.Done()
		s.execute(st)
	}()
	return nil
}

// Status returns a snapshot for the health endpoint.
func (s *Scheduler) Status() Status {
	s.mu.Lock()
	running := s.running
	s.mu.Unlock()

	out := Status{Running: running}
	for _, name := range []string{JobPersonalized, JobGeneral, JobCleanup} {
		st := s.jobs[name]
		st.mu.Lock()
		js := JobStatus{
			Name:        st.name,
			NextRun:     st.next,
			LastRun:     st.lastRun,
			LastAdded:   st.lastAdded,
			Runs:        st.runs,
			Skips:       st.skips,
			Errors:      st.errors,
			InFlight:    st.inFlight.Load(),
			LastError:   st.lastError,
			LastErrorAt: st.lastErrorAt,
		}
		st.mu.Unlock()
		out.Jobs = append(out.Jobs, js)
	}
	return out
}

// fire handles one cron activation: misfire check, then the guarded run.
func (s *Scheduler) fire(st *jobState) {
	now := time.Now()

	st.mu.Lock()
	expected := st.next
	st.next = s.cron.Entry(st.entryID).Next
	st.mu.Unlock()

	if st.grace > 0 && !expected.IsZero() && now.Sub(expected) > st.grace {
		st.mu.Lock()
		st.skips++
		st.mu.Unlock()
		s.logger.Warn("activation past misfire grace, skipping",
			slog.String("job", st.name),
			slog.Duration("late", now.Sub(expected)))
		return
	}

	s.run(st)
}

// run executes the task unless an instance is already in flight.
func (s *Scheduler) run(st *jobState) {
	if !st.inFlight.CompareAndSwap(false, true) {
		st.mu.Lock()
		st.skips++
		st.mu.Unlock()
		s.logger.Warn("previous run still in flight, skipping", slog.String("job", st.name))
		return
	}
	s.execute(st)
}

// execute runs the task. The caller must hold the in-flight flag.
func (s *Scheduler) execute(st *jobState) {
	defer st.inFlight.Store(false)

	s.mu.Lock()
	ctx := s.baseCtx
	s.mu.Unlock()
	if ctx == nil {
		ctx = context.Background()
	}

	started := time.Now()
	added, err := st.task(ctx)

	st.mu.Lock()
	st.lastRun = started
	st.lastAdded = added
	st.runs++
	if err != nil {
		st.errors++
		st.lastError = err.Error()
		st.lastErrorAt = time.Now()
	} else {
		st.lastError = ""
	}
	st.mu.Unlock()

	if err != nil {
		s.logger.Error("job failed",
			slog.String("job", st.name),
			slog.String("error", err.Error()),
			slog.Duration("took", time.Since(started)))
		return
	}
	s.logger.Info("job complete",
		slog.String("job", st.name),
		slog.Int("added", added),
		slog.Duration("took", time.Since(started)))
}
