package adapter

import (
	"context"

	"github.com/gophora/engine/internal/filter"
	"github.com/gophora/engine/internal/model"
)

// CatalogAdapter serves a curated, operator-maintained list of evergreen gig
// and survey opportunities. It makes no network calls, so the general feed is
// never empty even when every live source is down.
type CatalogAdapter struct {
	entries []model.JobPosting
}

// NewCatalogAdapter returns an adapter over the built-in catalog.
func NewCatalogAdapter() *CatalogAdapter {
	return &CatalogAdapter{entries: catalogEntries}
}

// NewCatalogAdapterWith returns an adapter over a custom entry list.
func NewCatalogAdapterWith(entries []model.JobPosting) *CatalogAdapter {
	return &CatalogAdapter{entries: entries}
}

func (a *CatalogAdapter) Name() string { return "Catalog" }

// Fetch returns catalog entries matching the query.
func (a *CatalogAdapter) Fetch(_ context.Context, query model.SearchQuery) ([]model.JobPosting, error) {
	jobs := make([]model.JobPosting, 0, len(a.entries))
	for _, e := range a.entries {
		e.Source = a.Name()
		if !filter.Valid(e) {
			continue
		}
		if !filter.KeywordMatch(e, query.Keywords) {
			continue
		}
		jobs = append(jobs, e)
		if query.Limit > 0 && len(jobs) >= query.Limit {
			break
		}
	}
	return jobs, nil
}

var catalogEntries = []model.JobPosting{
	{
		Title:       "Amazon MTurk - Data Labeling Tasks",
		Company:     "Amazon Mechanical Turk",
		Location:    "Remote",
		Description: "Simple data labeling, categorization, and transcription tasks.",
		Salary:      "$0.05 - $5 per HIT",
		Category:    "Data Entry & Admin",
		SourceLink:  "https://www.mturk.com/",
	},
	{
		Title:       "Amazon MTurk - Survey Participation",
		Company:     "Amazon Mechanical Turk",
		Location:    "Remote",
		Description: "Participate in academic and market research surveys.",
		Salary:      "$0.50 - $10 per survey",
		Category:    "Survey & Research",
		SourceLink:  "https://www.mturk.com/worker",
	},
	{
		Title:       "Swagbucks - Surveys & Tasks",
		Company:     "Swagbucks",
		Location:    "Remote",
		Description: "Earn money by taking surveys, watching videos, and shopping online.",
		Salary:      "$0.40 - $2 per survey",
		Category:    "Survey & Research",
		SourceLink:  "https://www.swagbucks.com/",
	},
	{
		Title:       "Survey Junkie - Paid Surveys",
		Company:     "Survey Junkie",
		Location:    "Remote",
		Description: "Share your opinion and get paid for completing surveys.",
		Salary:      "$1 - $3 per survey",
		Category:    "Survey & Research",
		SourceLink:  "https://www.surveyjunkie.com/",
	},
	{
		Title:       "Clickworker - Micro Tasks",
		Company:     "Clickworker",
		Location:    "Remote",
		Description: "Data entry, web research, and content creation micro-tasks.",
		Salary:      "$0.05 - $5 per task",
		Category:    "Data Entry & Admin",
		SourceLink:  "https://www.clickworker.com/",
	},
	{
		Title:       "UserTesting - Website Testing",
		Company:     "UserTesting",
		Location:    "Remote",
		Description: "Get paid to test websites and apps and give feedback on user experience.",
		Salary:      "$10 per test",
		Category:    "Testing & QA",
		SourceLink:  "https://www.usertesting.com/",
	},
	{
		Title:       "Respondent - Research Studies",
		Company:     "Respondent",
		Location:    "Remote",
		Description: "Participate in high-paying research studies and interviews.",
		Salary:      "$50 - $200 per study",
		Category:    "Survey & Research",
		SourceLink:  "https://www.respondent.io/",
	},
}
