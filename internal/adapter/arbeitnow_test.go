package adapter

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gophora/engine/internal/model"
)

func TestArbeitnow_Fetch(t *testing.T) {
	payload := `{
		"data": [
			{
				"slug": "golang-developer-berlin",
				"company_name": "Initech",
				"title": "Golang Developer",
				"description": "<h2>About</h2><p>Ship backend services</p>",
				"remote": true,
				"url": "https://www.arbeitnow.com/jobs/golang-developer-berlin",
				"tags": ["golang", "docker"],
				"job_types": ["full-time"],
				"location": ""
			},
			{
				"slug": "untitled",
				"company_name": "Broken",
				"title": "",
				"url": "https://www.arbeitnow.com/jobs/untitled"
			}
		]
	}`
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(payload))
	}))
	defer srv.Close()

	a := NewArbeitnowAdapter(srv.URL, testClient())
	jobs, err := a.Fetch(context.Background(), model.SearchQuery{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(jobs) != 1 {
		t.Fatalf("expected 1 job (title-less dropped), got %d", len(jobs))
	}

	j := jobs[0]
	if j.Title != "Golang Developer" {
		t.Errorf("Title = %q", j.Title)
	}
	if j.Company != "Initech" {
		t.Errorf("Company = %q", j.Company)
	}
	if j.Location != "Remote" {
		t.Errorf("Location = %q, want Remote for remote job with empty location", j.Location)
	}
	if j.Description != "About Ship backend services" {
		t.Errorf("Description = %q", j.Description)
	}
	if j.Source != "Arbeitnow" {
		t.Errorf("Source = %q", j.Source)
	}
}

func TestArbeitnow_KeywordFilter(t *testing.T) {
	payload := `{"data": [
		{"title": "React Engineer", "url": "https://www.arbeitnow.com/jobs/r"},
		{"title": "Truck Driver", "url": "https://www.arbeitnow.com/jobs/t"}
	]}`
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(payload))
	}))
	defer srv.Close()

	a := NewArbeitnowAdapter(srv.URL, testClient())
	jobs, err := a.Fetch(context.Background(), model.SearchQuery{Keywords: []string{"react"}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(jobs) != 1 || jobs[0].Title != "React Engineer" {
		t.Fatalf("unexpected jobs: %+v", jobs)
	}
}
