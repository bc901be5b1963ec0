package filter

import (
	"strings"

	"github.com/gophora/engine/internal/model"
)

// KeywordMatch reports whether the job's title, description or category
// contains any of the keywords (case-insensitive substring). An empty keyword
// list matches everything; sources without server-side search return their
// whole feed and this is the client-side narrowing step.
func KeywordMatch(job model.JobPosting, keywords []string) bool {
	if len(keywords) == 0 {
		return true
	}

	haystack := strings.ToLower(job.Title + " " + job.Description + " " + job.Category)
	for _, kw := range keywords {
		kw = strings.TrimSpace(kw)
		if kw == "" {
			continue
		}
		if strings.Contains(haystack, strings.ToLower(kw)) {
			return true
		}
	}
	return false
}

// Valid reports whether a candidate carries the minimum fields the pipeline
// stores: a title and a source link. Adapters drop invalid records at their
// boundary so downstream stages never see them.
func Valid(job model.JobPosting) bool {
	return strings.TrimSpace(job.Title) != "" && strings.TrimSpace(job.SourceLink) != ""
}

// Normalize back-fills the optional fields a sparse source left empty so
// stored records always render sensibly: company falls back to the source
// name, location to "Remote", category to "General".
func Normalize(job model.JobPosting) model.JobPosting {
	if strings.TrimSpace(job.Company) == "" {
		job.Company = job.Source
	}
	if strings.TrimSpace(job.Location) == "" {
		job.Location = "Remote"
	}
	if strings.TrimSpace(job.Category) == "" {
		job.Category = "General"
	}
	if strings.TrimSpace(job.Requirements) == "" {
		job.Requirements = "See job description"
	}
	return job
}
