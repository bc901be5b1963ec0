package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gophora/engine/internal/docstore"
	"github.com/gophora/engine/internal/model"
	"github.com/gophora/engine/internal/scheduler"
)

func newTestServer(t *testing.T) (*Server, *docstore.MemoryStore, *scheduler.Scheduler) {
	t.Helper()
	store := docstore.NewMemoryStore()
	noop := func(_ context.Context) (int, error) { return 0, nil }
	sched := scheduler.New(noop, noop, noop, scheduler.Config{
		PersonalizedInterval: time.Hour,
		GeneralInterval:      time.Hour,
		CleanupHour:          3,
	}, nil)
	require.NoError(t, sched.Start(context.Background()))
	t.Cleanup(sched.Stop)

	// Wait out the immediate startup run so trigger tests cannot race it.
	deadline := time.Now().Add(2 * time.Second)
	for !startupRunDone(sched) {
		if time.Now().After(deadline) {
			t.Fatal("startup general run did not finish")
		}
		time.Sleep(5 * time.Millisecond)
	}
	return New("127.0.0.1:0", store, sched, nil), store, sched
}

func startupRunDone(sched *scheduler.Scheduler) bool {
	for _, js := range sched.Status().Jobs {
		if js.Name == scheduler.JobGeneral {
			return js.Runs >= 1 && !js.InFlight
		}
	}
	return false
}

func doRequest(t *testing.T, s *Server, method, target string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, nil)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func TestHealth(t *testing.T) {
	s, _, _ := newTestServer(t)
	rec := doRequest(t, s, http.MethodGet, "/health")

	require.Equal(t, http.StatusOK, rec.Code)
	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "healthy", body["status"])
	assert.NotEmpty(t, body["timestamp"])
}

func TestScraperStatus(t *testing.T) {
	s, _, _ := newTestServer(t)
	rec := doRequest(t, s, http.MethodGet, "/health/scrapers")

	require.Equal(t, http.StatusOK, rec.Code)
	var status scheduler.Status
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &status))
	assert.True(t, status.Running)
	assert.Len(t, status.Jobs, 3)
}

func TestTriggerEndpoints(t *testing.T) {
	s, _, _ := newTestServer(t)

	for _, target := range []string{"/admin/scrape/general", "/admin/scrape/personalized"} {
		rec := doRequest(t, s, http.MethodPost, target)
		require.Equal(t, http.StatusAccepted, rec.Code, target)

		var body map[string]string
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.Equal(t, "accepted", body["status"])
	}
}

func TestTrigger_ConflictWhileInFlight(t *testing.T) {
	store := docstore.NewMemoryStore()
	noop := func(_ context.Context) (int, error) { return 0, nil }
	started := make(chan struct{})
	release := make(chan struct{})
	personalized := func(_ context.Context) (int, error) {
		close(started)
		<-release
		return 0, nil
	}
	sched := scheduler.New(personalized, noop, noop, scheduler.Config{
		PersonalizedInterval: time.Hour,
		GeneralInterval:      time.Hour,
		CleanupHour:          3,
	}, nil)
	require.NoError(t, sched.Start(context.Background()))
	t.Cleanup(func() {
		close(release)
		sched.Stop()
	})
	s := New("127.0.0.1:0", store, sched, nil)

	rec := doRequest(t, s, http.MethodPost, "/admin/scrape/personalized")
	require.Equal(t, http.StatusAccepted, rec.Code)
	<-started

	rec = doRequest(t, s, http.MethodPost, "/admin/scrape/personalized")
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestTrigger_WrongMethod(t *testing.T) {
	s, _, _ := newTestServer(t)
	rec := doRequest(t, s, http.MethodGet, "/admin/scrape/general")
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestGeneralJobs_DefaultsToActiveOnly(t *testing.T) {
	s, store, _ := newTestServer(t)
	ctx := context.Background()

	_, err := store.AddGeneralJob(ctx, model.JobPosting{
		Title: "Active Role", SourceLink: "https://example.com/active",
	})
	require.NoError(t, err)

	old := model.JobPosting{
		Title:      "Stale Role",
		SourceLink: "https://example.com/stale",
		ScrapedAt:  time.Now().UTC().Add(-30 * 24 * time.Hour),
	}
	_, err = store.AddGeneralJob(ctx, old)
	require.NoError(t, err)
	_, err = store.DeactivateGeneralJobs(ctx, time.Now().UTC().Add(-7*24*time.Hour))
	require.NoError(t, err)

	rec := doRequest(t, s, http.MethodGet, "/api/jobs/general")
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Jobs  []model.JobPosting `json:"jobs"`
		Count int                `json:"count"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, 1, body.Count)
	assert.Equal(t, "Active Role", body.Jobs[0].Title)
}

func TestGeneralJobs_CategoryFilter(t *testing.T) {
	s, store, _ := newTestServer(t)
	ctx := context.Background()

	for _, j := range []model.JobPosting{
		{Title: "Dev", SourceLink: "https://example.com/1", Category: "Technology & IT"},
		{Title: "Survey", SourceLink: "https://example.com/2", Category: "Survey & Research"},
	} {
		_, err := store.AddGeneralJob(ctx, j)
		require.NoError(t, err)
	}

	rec := doRequest(t, s, http.MethodGet, "/api/jobs/general?category=Survey+%26+Research")
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Jobs []model.JobPosting `json:"jobs"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.Jobs, 1)
	assert.Equal(t, "Survey", body.Jobs[0].Title)
}

func TestGeneralJobs_Pagination(t *testing.T) {
	s, store, _ := newTestServer(t)
	ctx := context.Background()

	base := time.Now().UTC()
	for i, link := range []string{"https://example.com/1", "https://example.com/2", "https://example.com/3"} {
		_, err := store.AddGeneralJob(ctx, model.JobPosting{
			Title:      "Role",
			SourceLink: link,
			ScrapedAt:  base.Add(-time.Duration(i) * time.Minute),
		})
		require.NoError(t, err)
	}

	rec := doRequest(t, s, http.MethodGet, "/api/jobs/general?limit=2")
	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		Count int `json:"count"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, 2, body.Count)

	rec = doRequest(t, s, http.MethodGet, "/api/jobs/general?limit=2&offset=2")
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, 1, body.Count)
}

func TestGeneralJobs_BadParams(t *testing.T) {
	s, _, _ := newTestServer(t)

	for _, target := range []string{
		"/api/jobs/general?limit=0",
		"/api/jobs/general?limit=9999",
		"/api/jobs/general?limit=abc",
		"/api/jobs/general?offset=-1",
		"/api/jobs/general?active=maybe",
	} {
		rec := doRequest(t, s, http.MethodGet, target)
		assert.Equal(t, http.StatusBadRequest, rec.Code, target)
	}
}

func TestGeneralJobs_EmptyStoreReturnsEmptyList(t *testing.T) {
	s, _, _ := newTestServer(t)
	rec := doRequest(t, s, http.MethodGet, "/api/jobs/general")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"jobs":[],"count":0}`, rec.Body.String())
}
