package adapter

import (
	"context"
	"fmt"
	"strings"

	"github.com/gophora/engine/internal/filter"
	"github.com/gophora/engine/internal/model"
)

const defaultArbeitnowURL = "https://www.arbeitnow.com/api/job-board-api"

type arbeitnowResponse struct {
	Data []arbeitnowJob `json:"data"`
}

type arbeitnowJob struct {
	Slug        string   `json:"slug"`
	CompanyName string   `json:"company_name"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Remote      bool     `json:"remote"`
	URL         string   `json:"url"`
	Tags        []string `json:"tags"`
	JobTypes    []string `json:"job_types"`
	Location    string   `json:"location"`
}

// ArbeitnowAdapter fetches tech jobs from the public Arbeitnow job board API.
type ArbeitnowAdapter struct {
	baseURL string
	client  *Client
}

// NewArbeitnowAdapter creates an adapter for the Arbeitnow feed.
func NewArbeitnowAdapter(baseURL string, client *Client) *ArbeitnowAdapter {
	if baseURL == "" {
		baseURL = defaultArbeitnowURL
	}
	return &ArbeitnowAdapter{baseURL: baseURL, client: client}
}

func (a *ArbeitnowAdapter) Name() string { return "Arbeitnow" }

// Fetch retrieves the first feed page and normalizes it. The API has no
// search parameter; keyword narrowing happens client-side.
func (a *ArbeitnowAdapter) Fetch(ctx context.Context, query model.SearchQuery) ([]model.JobPosting, error) {
	var raw arbeitnowResponse
	if err := a.client.GetJSON(ctx, a.baseURL, &raw); err != nil {
		return nil, fmt.Errorf("arbeitnow fetch: %w", err)
	}

	jobs := make([]model.JobPosting, 0, len(raw.Data))
	for _, aj := range raw.Data {
		location := aj.Location
		if aj.Remote {
			location = orDefault(location, "Remote")
		}

		job := model.JobPosting{
			Title:       aj.Title,
			Company:     aj.CompanyName,
			Location:    location,
			Description: truncate(extractText(aj.Description), 500),
			Category:    "Technology & IT",
			Source:      a.Name(),
			SourceLink:  aj.URL,
		}
		if len(aj.Tags) > 0 {
			job.Requirements = strings.Join(aj.Tags, ", ")
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
