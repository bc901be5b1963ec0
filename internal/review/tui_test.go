package review

import (
	"strings"
	"testing"
	"time"

	"github.com/gophora/engine/internal/model"
)

func TestWordWrap(t *testing.T) {
	got := wordWrap("the quick brown fox jumps over", 15)
	for _, line := range strings.Split(got, "\n") {
		if len(line) > 15 {
			t.Errorf("line exceeds width: %q", line)
		}
	}
	if strings.ReplaceAll(got, "\n", " ") != "the quick brown fox jumps over" {
		t.Errorf("wrap lost words: %q", got)
	}
}

func TestWordWrap_Empty(t *testing.T) {
	if got := wordWrap("   ", 10); got != "" {
		t.Errorf("expected empty string, got %q", got)
	}
}

func TestClamp(t *testing.T) {
	cases := []struct{ v, lo, hi, want int }{
		{5, 0, 10, 5},
		{-3, 0, 10, 0},
		{42, 0, 10, 10},
	}
	for _, c := range cases {
		if got := clamp(c.v, c.lo, c.hi); got != c.want {
			t.Errorf("clamp(%d, %d, %d) = %d, want %d", c.v, c.lo, c.hi, got, c.want)
		}
	}
}

func TestJoinNonEmpty(t *testing.T) {
	got := joinNonEmpty([]string{"Acme", "", "Berlin", ""}, " · ")
	if got != "Acme · Berlin" {
		t.Errorf("got %q", got)
	}
}

func TestSortJobsByDate_NewestFirst(t *testing.T) {
	now := time.Now()
	jobs := []model.JobPosting{
		{Title: "old", ScrapedAt: now.Add(-48 * time.Hour)},
		{Title: "new", ScrapedAt: now},
		{Title: "mid", ScrapedAt: now.Add(-24 * time.Hour)},
	}
	sortJobsByDate(jobs)

	want := []string{"new", "mid", "old"}
	for i, w := range want {
		if jobs[i].Title != w {
			t.Fatalf("position %d: got %q, want %q", i, jobs[i].Title, w)
		}
	}
}

func TestRenderJobs_Empty(t *testing.T) {
	if got := renderJobs(nil, 0); !strings.Contains(got, "no jobs") {
		t.Errorf("got %q", got)
	}
}

func TestRenderJobs_MarksCursor(t *testing.T) {
	jobs := []model.JobPosting{
		{Title: "First Role", Company: "Acme"},
		{Title: "Second Role", Company: "Globex"},
	}
	got := renderJobs(jobs, 1)

	lines := strings.Split(got, "\n")
	var marked string
	for _, l := range lines {
		if strings.HasPrefix(l, "> ") {
			marked = l
			break
		}
	}
	if !strings.Contains(marked, "Second Role") {
		t.Errorf("cursor not on second job: %q", got)
	}
}
