package model

import (
	"context"
	"time"
)

// JobPosting is the normalized representation of a job from any source.
// General jobs are deduplicated by SourceLink; personalized jobs by
// (Title, Company) within one user's collection.
type JobPosting struct {
	ID           string    `json:"jobId,omitempty" bson:"_id,omitempty"`
	Title        string    `json:"jobTitle" bson:"jobTitle"`
	Company      string    `json:"company,omitempty" bson:"company,omitempty"`
	Location     string    `json:"location,omitempty" bson:"location,omitempty"`
	Description  string    `json:"description,omitempty" bson:"description,omitempty"`
	Requirements string    `json:"requirements,omitempty" bson:"requirements,omitempty"`
	Salary       string    `json:"salary,omitempty" bson:"salary,omitempty"` // free-form ("$15-20/hour", "Varies")
	Category     string    `json:"category,omitempty" bson:"category,omitempty"`
	Source       string    `json:"source" bson:"source"`         // originating adapter name
	SourceLink   string    `json:"sourceLink" bson:"sourceLink"` // direct link to the posting
	ScrapedAt    time.Time `json:"scrapedAt,omitempty" bson:"scrapedAt,omitempty"`
	IsActive     bool      `json:"isActive" bson:"isActive"`

	// Relevance fields, populated only on personalized jobs.
	Score        float64  `json:"aiValidationScore,omitempty" bson:"aiValidationScore,omitempty"`
	Reasoning    string   `json:"aiReasoning,omitempty" bson:"aiReasoning,omitempty"`
	SkillMatches []string `json:"skillMatches,omitempty" bson:"skillMatches,omitempty"`
	SkillGaps    []string `json:"skillGaps,omitempty" bson:"skillGaps,omitempty"`
}

// UserProfile is the slice of the user document the ingestion pipeline reads:
// search keywords come from Skills/Interests, the scorer reads all of it.
type UserProfile struct {
	UserID     string   `json:"userId" bson:"_id,omitempty"`
	Email      string   `json:"email,omitempty" bson:"email,omitempty"`
	Name       string   `json:"name,omitempty" bson:"name,omitempty"`
	Skills     []string `json:"skills,omitempty" bson:"skills,omitempty"`
	Interests  []string `json:"interests,omitempty" bson:"interests,omitempty"`
	Experience string   `json:"experience,omitempty" bson:"experience,omitempty"`
	Location   string   `json:"location,omitempty" bson:"location,omitempty"`
}

// EntryLevel reports whether the profile should also be searched against
// entry-level boards. An unset experience counts as entry-level.
func (p UserProfile) EntryLevel() bool {
	switch p.Experience {
	case "", "Entry Level", "Student", "Intern":
		return true
	}
	return false
}

// SearchQuery parametrizes one adapter fetch.
type SearchQuery struct {
	Keywords []string
	Location string
	Limit    int // target count; adapters may return fewer
}

// SourceAdapter fetches postings from one external source. Fetch errors are
// per-adapter: the orchestrator logs them and continues with the others.
type SourceAdapter interface {
	Name() string
	Fetch(ctx context.Context, query SearchQuery) ([]JobPosting, error)
}
