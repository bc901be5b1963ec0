package adapter

import (
	"context"
	"strings"
	"testing"

	"github.com/gophora/engine/internal/model"
)

func TestCatalog_Fetch_All(t *testing.T) {
	a := NewCatalogAdapter()
	jobs, err := a.Fetch(context.Background(), model.SearchQuery{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(jobs) != len(catalogEntries) {
		t.Fatalf("expected %d jobs, got %d", len(catalogEntries), len(jobs))
	}
	for _, j := range jobs {
		if j.Source != "Catalog" {
			t.Errorf("Source = %q for %q", j.Source, j.Title)
		}
	}
}

func TestCatalog_Fetch_KeywordFilter(t *testing.T) {
	a := NewCatalogAdapter()
	jobs, err := a.Fetch(context.Background(), model.SearchQuery{Keywords: []string{"survey"}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(jobs) == 0 {
		t.Fatal("expected survey entries")
	}
	for _, j := range jobs {
		blob := strings.ToLower(j.Title + " " + j.Description + " " + j.Category)
		if !strings.Contains(blob, "survey") {
			t.Errorf("job %q does not mention surveys", j.Title)
		}
	}
}

func TestCatalog_Fetch_Limit(t *testing.T) {
	a := NewCatalogAdapter()
	jobs, err := a.Fetch(context.Background(), model.SearchQuery{Limit: 2})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(jobs) != 2 {
		t.Fatalf("expected 2 jobs, got %d", len(jobs))
	}
}

func TestCatalog_Fetch_CustomEntries(t *testing.T) {
	a := NewCatalogAdapterWith([]model.JobPosting{
		{Title: "Good", SourceLink: "https://example.com/good"},
		{Title: "", SourceLink: "https://example.com/no-title"},
	})
	jobs, err := a.Fetch(context.Background(), model.SearchQuery{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(jobs) != 1 || jobs[0].Title != "Good" {
		t.Fatalf("expected only the valid entry, got %+v", jobs)
	}
}
