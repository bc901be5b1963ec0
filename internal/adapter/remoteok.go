package adapter

import (
	"context"
	"fmt"
	"strings"

	"github.com/gophora/engine/internal/filter"
	"github.com/gophora/engine/internal/model"
)

const defaultRemoteOKURL = "https://remoteok.com/api"

// remoteOKJob is one entry in the RemoteOK API response. The response is a
// flat array whose first element is a legal-notice blob, not a job.
type remoteOKJob struct {
	ID          string   `json:"id"`
	Position    string   `json:"position"`
	Company     string   `json:"company"`
	Location    string   `json:"location"`
	Description string   `json:"description"`
	Tags        []string `json:"tags"`
	URL         string   `json:"url"`
	SalaryMin   int      `json:"salary_min"`
	SalaryMax   int      `json:"salary_max"`
}

// RemoteOKAdapter fetches remote jobs from the public RemoteOK API.
// The API has no search parameter, so keyword narrowing happens client-side.
type RemoteOKAdapter struct {
	baseURL string
	client  *Client
}

// NewRemoteOKAdapter creates an adapter for the RemoteOK feed. baseURL is
// overridable for tests; pass "" for the production endpoint.
func NewRemoteOKAdapter(baseURL string, client *Client) *RemoteOKAdapter {
	if baseURL == "" {
		baseURL = defaultRemoteOKURL
	}
	return &RemoteOKAdapter{baseURL: baseURL, client: client}
}

func (a *RemoteOKAdapter) Name() string { return "RemoteOK" }

// Fetch retrieves the feed and normalizes entries into JobPosting records.
// Entries without a position or link are dropped at this boundary.
func (a *RemoteOKAdapter) Fetch(ctx context.Context, query model.SearchQuery) ([]model.JobPosting, error) {
	var raw []remoteOKJob
	if err := a.client.GetJSON(ctx, a.baseURL, &raw); err != nil {
		return nil, fmt.Errorf("remoteok fetch: %w", err)
	}

	jobs := make([]model.JobPosting, 0, len(raw))
	for i, rj := range raw {
		if i == 0 && rj.Position == "" {
			// Leading metadata element.
			continue
		}

		job := model.JobPosting{
			Title:       rj.Position,
			Company:     rj.Company,
			Location:    orDefault(rj.Location, "Remote"),
			Description: truncate(extractText(rj.Description), 500),
			Salary:      formatSalaryRange(rj.SalaryMin, rj.SalaryMax),
			Category:    "Remote",
			Source:      a.Name(),
			SourceLink:  rj.URL,
		}
		if len(rj.Tags) > 0 {
			job.Requirements = strings.Join(rj.Tags, ", ")
		}

		if !filter.Valid(job) {
			continue
		}
		if !filter.KeywordMatch(job, query.Keywords) {
			continue
		}

		jobs = append(jobs, job)
		if query.Limit > 0 && len(jobs) >= query.Limit {
			break
		}
	}

	return jobs, nil
}

func formatSalaryRange(min, max int) string {
	if min <= 0 && max <= 0 {
		return ""
	}
	if max <= 0 {
		return fmt.Sprintf("$%d+", min)
	}
	return fmt.Sprintf("$%d-%d", min, max)
}

func orDefault(s, def string) string {
	if strings.TrimSpace(s) == "" {
		return def
	}
	return s
}
