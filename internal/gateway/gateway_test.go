package gateway

import (
	"context"
	"testing"
	"time"

	"github.com/gophora/engine/internal/docstore"
	"github.com/gophora/engine/internal/model"
)

func sampleJob(link string) model.JobPosting {
	return model.JobPosting{
		Title:      "Backend Engineer",
		Company:    "Acme",
		Source:     "RemoteOK",
		SourceLink: link,
	}
}

func TestStoreIfNew_GeneralDedupBySourceLink(t *testing.T) {
	g := New(docstore.NewMemoryStore(), nil)
	ctx := context.Background()

	added, err := g.StoreIfNew(ctx, General(), sampleJob("https://example.com/1"))
	if err != nil {
		t.Fatalf("StoreIfNew: %v", err)
	}
	if !added {
		t.Error("first write should add")
	}

	// Same link with a different title is still a duplicate.
	dup := sampleJob("https://example.com/1")
	dup.Title = "Senior Backend Engineer"
	added, err = g.StoreIfNew(ctx, General(), dup)
	if err != nil {
		t.Fatalf("StoreIfNew duplicate: %v", err)
	}
	if added {
		t.Error("same source link must not be stored twice")
	}

	// A different link is new.
	added, err = g.StoreIfNew(ctx, General(), sampleJob("https://example.com/2"))
	if err != nil {
		t.Fatalf("StoreIfNew: %v", err)
	}
	if !added {
		t.Error("distinct link should add")
	}
}

func TestStoreIfNew_PersonalizedDedupByTitleCompany(t *testing.T) {
	store := docstore.NewMemoryStore()
	g := New(store, nil)
	ctx := context.Background()

	added, err := g.StoreIfNew(ctx, ForUser("u1"), sampleJob("https://example.com/1"))
	if err != nil {
		t.Fatalf("StoreIfNew: %v", err)
	}
	if !added {
		t.Error("first write should add")
	}

	// Same title and company from a different source link is a duplicate.
	dup := sampleJob("https://example.com/other-board")
	added, err = g.StoreIfNew(ctx, ForUser("u1"), dup)
	if err != nil {
		t.Fatalf("StoreIfNew duplicate: %v", err)
	}
	if added {
		t.Error("same title and company must not be stored twice for one user")
	}

	// Another user gets their own copy.
	added, err = g.StoreIfNew(ctx, ForUser("u2"), sampleJob("https://example.com/1"))
	if err != nil {
		t.Fatalf("StoreIfNew other user: %v", err)
	}
	if !added {
		t.Error("dedup must not leak across users")
	}
}

func TestStoreIfNew_Idempotent(t *testing.T) {
	ctx := context.Background()
	store := docstore.NewMemoryStore()
	g := New(store, nil)
	for i := 0; i < 3; i++ {
		if _, err := g.StoreIfNew(ctx, General(), sampleJob("https://example.com/1")); err != nil {
			t.Fatalf("StoreIfNew round %d: %v", i, err)
		}
	}
	jobs, err := store.ListGeneralJobs(ctx, docstore.ListOptions{})
	if err != nil {
		t.Fatalf("ListGeneralJobs: %v", err)
	}
	if len(jobs) != 1 {
		t.Fatalf("expected exactly 1 stored job, got %d", len(jobs))
	}
}

func TestDeactivateOlderThan(t *testing.T) {
	store := docstore.NewMemoryStore()
	g := New(store, nil)
	ctx := context.Background()

	old := sampleJob("https://example.com/old")
	old.ScrapedAt = time.Now().UTC().Add(-8 * 24 * time.Hour)
	fresh := sampleJob("https://example.com/fresh")

	if _, err := store.AddGeneralJob(ctx, old); err != nil {
		t.Fatalf("AddGeneralJob: %v", err)
	}
	if _, err := store.AddGeneralJob(ctx, fresh); err != nil {
		t.Fatalf("AddGeneralJob: %v", err)
	}
	oldP := old
	oldP.Title = "Another Role"
	if _, err := store.AddPersonalizedJob(ctx, "u1", oldP); err != nil {
		t.Fatalf("AddPersonalizedJob: %v", err)
	}

	general, personalized, err := g.DeactivateOlderThan(ctx, 7*24*time.Hour)
	if err != nil {
		t.Fatalf("DeactivateOlderThan: %v", err)
	}
	if general != 1 {
		t.Errorf("general = %d, want 1", general)
	}
	if personalized != 1 {
		t.Errorf("personalized = %d, want 1", personalized)
	}

	active, err := store.ListGeneralJobs(ctx, docstore.ListOptions{ActiveOnly: true})
	if err != nil {
		t.Fatalf("ListGeneralJobs: %v", err)
	}
	if len(active) != 1 || active[0].SourceLink != "https://example.com/fresh" {
		t.Errorf("active = %+v", active)
	}
}
