package adapter

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gophora/engine/internal/model"
)

// testClient returns a Client with pacing disabled.
func testClient() *Client {
	return NewClient(&http.Client{}, nil, 0, 0)
}

func TestRemoteOK_Fetch(t *testing.T) {
	payload := `[
		{"legal": "API terms of service notice"},
		{
			"id": "1001",
			"position": "Backend Engineer",
			"company": "Acme",
			"location": "Worldwide",
			"description": "<p>Build &amp; run Go services</p>",
			"tags": ["go", "postgres"],
			"url": "https://remoteok.com/remote-jobs/1001",
			"salary_min": 60000,
			"salary_max": 90000
		},
		{
			"id": "1002",
			"position": "",
			"company": "NoTitle Inc",
			"url": "https://remoteok.com/remote-jobs/1002"
		},
		{
			"id": "1003",
			"position": "Data Entry Clerk",
			"company": "Paperless",
			"url": "https://remoteok.com/remote-jobs/1003"
		}
	]`
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(payload))
	}))
	defer srv.Close()

	a := NewRemoteOKAdapter(srv.URL, testClient())
	jobs, err := a.Fetch(context.Background(), model.SearchQuery{Limit: 10})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Metadata element skipped, title-less record dropped.
	if len(jobs) != 2 {
		t.Fatalf("expected 2 jobs, got %d", len(jobs))
	}

	j := jobs[0]
	if j.Title != "Backend Engineer" {
		t.Errorf("Title = %q", j.Title)
	}
	if j.Company != "Acme" {
		t.Errorf("Company = %q", j.Company)
	}
	if j.Source != "RemoteOK" {
		t.Errorf("Source = %q", j.Source)
	}
	if j.SourceLink != "https://remoteok.com/remote-jobs/1001" {
		t.Errorf("SourceLink = %q", j.SourceLink)
	}
	if j.Description != "Build & run Go services" {
		t.Errorf("Description = %q (want tags stripped, entities unescaped)", j.Description)
	}
	if j.Salary != "$60000-90000" {
		t.Errorf("Salary = %q", j.Salary)
	}
	if j.Requirements != "go, postgres" {
		t.Errorf("Requirements = %q", j.Requirements)
	}
}

func TestRemoteOK_KeywordFilter(t *testing.T) {
	payload := `[
		{"legal": "notice"},
		{"id": "1", "position": "Python Developer", "url": "https://remoteok.com/l/1"},
		{"id": "2", "position": "Chef", "url": "https://remoteok.com/l/2"}
	]`
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(payload))
	}))
	defer srv.Close()

	a := NewRemoteOKAdapter(srv.URL, testClient())
	jobs, err := a.Fetch(context.Background(), model.SearchQuery{Keywords: []string{"Python"}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(jobs) != 1 || jobs[0].Title != "Python Developer" {
		t.Fatalf("unexpected jobs: %+v", jobs)
	}
}

func TestRemoteOK_Limit(t *testing.T) {
	payload := `[
		{"legal": "notice"},
		{"id": "1", "position": "A", "url": "https://remoteok.com/l/1"},
		{"id": "2", "position": "B", "url": "https://remoteok.com/l/2"},
		{"id": "3", "position": "C", "url": "https://remoteok.com/l/3"}
	]`
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(payload))
	}))
	defer srv.Close()

	a := NewRemoteOKAdapter(srv.URL, testClient())
	jobs, err := a.Fetch(context.Background(), model.SearchQuery{Limit: 2})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(jobs) != 2 {
		t.Fatalf("expected 2 jobs, got %d", len(jobs))
	}
}

func TestRemoteOK_UpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Retry-After", "30")
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	a := NewRemoteOKAdapter(srv.URL, testClient())
	_, err := a.Fetch(context.Background(), model.SearchQuery{})
	if err == nil {
		t.Fatal("expected error, got nil")
	}

	var httpErr *model.HTTPError
	if !errors.As(err, &httpErr) {
		t.Fatalf("expected HTTPError, got %T: %v", err, err)
	}
	if httpErr.StatusCode != http.StatusTooManyRequests {
		t.Errorf("StatusCode = %d, want 429", httpErr.StatusCode)
	}
	if httpErr.RetryAfter.Seconds() != 30 {
		t.Errorf("RetryAfter = %v, want 30s", httpErr.RetryAfter)
	}
}
