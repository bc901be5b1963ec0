package httpapi

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gophora/engine/internal/docstore"
	"github.com/gophora/engine/internal/model"
	"github.com/gophora/engine/internal/scheduler"
)

// Server exposes the read API and the operational endpoints: health probes,
// the scheduler status page, and manual scrape triggers.
type Server struct {
	store  docstore.Store
	sched  *scheduler.Scheduler
	logger *slog.Logger
	http   *http.Server
}

// New creates a server listening on addr.
func New(addr string, store docstore.Store, sched *scheduler.Scheduler, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	s := &Server{store: store, sched: sched, logger: logger}
	s.http = &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// Handler builds the route table.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("GET /health/scrapers", s.handleScraperStatus)
	mux.HandleFunc("POST /admin/scrape/general", s.triggerHandler(scheduler.JobGeneral))
	mux.HandleFunc("POST /admin/scrape/personalized", s.triggerHandler(scheduler.JobPersonalized))
	mux.HandleFunc("GET /api/jobs/general", s.handleGeneralJobs)
	return mux
}

// ListenAndServe blocks serving requests until Shutdown.
func (s *Server) ListenAndServe() error {
	s.logger.Info("http server listening", slog.String("addr", s.http.Addr))
	return s.http.ListenAndServe()
}

// Shutdown drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]any{
		"status":    "healthy",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

func (s *Server) handleScraperStatus(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, s.sched.Status())
}

// triggerHandler fires a scrape out of band and returns immediately; the run
// itself happens in the background under the scheduler's instance guard.
func (s *Server) triggerHandler(job string) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		if err := s.sched.Trigger(job); err != nil {
			s.writeJSON(w, http.StatusConflict, map[string]any{"error": err.Error()})
			return
		}
		s.writeJSON(w, http.StatusAccepted, map[string]any{
			"status": "accepted",
			"job":    job,
		})
	}
}

func (s *Server) handleGeneralJobs(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	opts := docstore.ListOptions{
		Category:   q.Get("category"),
		ActiveOnly: true,
		Limit:      50,
	}
	if v := q.Get("active"); v != "" {
		active, err := strconv.ParseBool(v)
		if err != nil {
			s.writeJSON(w, http.StatusBadRequest, map[string]any{"error": "invalid active parameter"})
			return
		}
		opts.ActiveOnly = active
	}
	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > 500 {
			s.writeJSON(w, http.StatusBadRequest, map[string]any{"error": "invalid limit parameter"})
			return
		}
		opts.Limit = n
	}
	if v := q.Get("offset"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			s.writeJSON(w, http.StatusBadRequest, map[string]any{"error": "invalid offset parameter"})
			return
		}
		opts.Offset = n
	}

	jobs, err := s.store.ListGeneralJobs(r.Context(), opts)
	if err != nil {
		s.logger.Error("listing general jobs", slog.String("error", err.Error()))
		s.writeJSON(w, http.StatusInternalServerError, map[string]any{"error": "internal error"})
		return
	}
	if jobs == nil {
		jobs = []model.JobPosting{}
	}
	s.writeJSON(w, http.StatusOK, map[string]any{
		"jobs":  jobs,
		"count": len(jobs),
	})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("encoding response", slog.String("error", err.Error()))
	}
}
