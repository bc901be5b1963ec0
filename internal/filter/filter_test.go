package filter

import (
	"testing"

	"github.com/gophora/engine/internal/model"
)

func TestKeywordMatch(t *testing.T) {
	tests := []struct {
		name     string
		job      model.JobPosting
		keywords []string
		want     bool
	}{
		{
			name:     "empty keywords match all",
			job:      model.JobPosting{Title: "Anything"},
			keywords: nil,
			want:     true,
		},
		{
			name:     "title match case-insensitive",
			job:      model.JobPosting{Title: "Senior Python Developer"},
			keywords: []string{"python"},
			want:     true,
		},
		{
			name:     "description match",
			job:      model.JobPosting{Title: "Engineer", Description: "We use Go and Kubernetes"},
			keywords: []string{"kubernetes"},
			want:     true,
		},
		{
			name:     "category match",
			job:      model.JobPosting{Title: "Task", Category: "Data Entry & Admin"},
			keywords: []string{"data entry"},
			want:     true,
		},
		{
			name:     "any keyword suffices",
			job:      model.JobPosting{Title: "React Developer"},
			keywords: []string{"python", "react"},
			want:     true,
		},
		{
			name:     "no match",
			job:      model.JobPosting{Title: "Forklift Operator", Description: "warehouse work"},
			keywords: []string{"python"},
			want:     false,
		},
		{
			name:     "blank keywords are skipped",
			job:      model.JobPosting{Title: "Forklift Operator"},
			keywords: []string{"  ", ""},
			want:     false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := KeywordMatch(tt.job, tt.keywords); got != tt.want {
				t.Errorf("KeywordMatch() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestValid(t *testing.T) {
	ok := model.JobPosting{Title: "Backend Engineer", SourceLink: "https://x/1"}
	if !Valid(ok) {
		t.Error("expected job with title and link to be valid")
	}

	if Valid(model.JobPosting{SourceLink: "https://x/1"}) {
		t.Error("expected job without title to be invalid")
	}
	if Valid(model.JobPosting{Title: "Engineer"}) {
		t.Error("expected job without source link to be invalid")
	}
	if Valid(model.JobPosting{Title: "   ", SourceLink: "https://x/1"}) {
		t.Error("expected whitespace title to be invalid")
	}
}

func TestNormalize_BackfillsEmptyFields(t *testing.T) {
	job := Normalize(model.JobPosting{
		Title:      "Engineer",
		Source:     "RemoteOK",
		SourceLink: "https://x/1",
	})

	if job.Company != "RemoteOK" {
		t.Errorf("Company = %q, want source name", job.Company)
	}
	if job.Location != "Remote" {
		t.Errorf("Location = %q, want Remote", job.Location)
	}
	if job.Category != "General" {
		t.Errorf("Category = %q, want General", job.Category)
	}
	if job.Requirements == "" {
		t.Error("Requirements not back-filled")
	}
}

func TestNormalize_KeepsPopulatedFields(t *testing.T) {
	in := model.JobPosting{
		Title:        "Engineer",
		Company:      "Acme",
		Location:     "Berlin",
		Category:     "Backend",
		Requirements: "5 years of Go",
		Source:       "RemoteOK",
		SourceLink:   "https://x/1",
	}
	got := Normalize(in)
	if got.Company != "Acme" || got.Location != "Berlin" ||
		got.Category != "Backend" || got.Requirements != "5 years of Go" {
		t.Errorf("Normalize changed populated fields: %+v", got)
	}
}
