package adapter

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/gophora/engine/internal/filter"
	"github.com/gophora/engine/internal/model"
)

const defaultRemotiveURL = "https://remotive.com/api/remote-jobs"

type remotiveResponse struct {
	Jobs []remotiveJob `json:"jobs"`
}

type remotiveJob struct {
	ID          int64  `json:"id"`
	URL         string `json:"url"`
	Title       string `json:"title"`
	CompanyName string `json:"company_name"`
	Category    string `json:"category"`
	JobType     string `json:"job_type"`
	Location    string `json:"candidate_required_location"`
	Salary      string `json:"salary"`
	Description string `json:"description"`
}

// RemotiveAdapter fetches jobs from the Remotive public API. Unlike the feed
// sources, Remotive supports server-side keyword search.
type RemotiveAdapter struct {
	baseURL string
	client  *Client
}

// NewRemotiveAdapter creates an adapter for the Remotive API.
func NewRemotiveAdapter(baseURL string, client *Client) *RemotiveAdapter {
	if baseURL == "" {
		baseURL = defaultRemotiveURL
	}
	return &RemotiveAdapter{baseURL: baseURL, client: client}
}

func (a *RemotiveAdapter) Name() string { return "Remotive" }

// Fetch queries the API with the joined keywords and normalizes the result.
func (a *RemotiveAdapter) Fetch(ctx context.Context, query model.SearchQuery) ([]model.JobPosting, error) {
	u := a.baseURL
	params := url.Values{}
	if len(query.Keywords) > 0 {
		params.Set("search", strings.Join(query.Keywords, " "))
	}
	if query.Limit > 0 {
		params.Set("limit", fmt.Sprintf("%d", query.Limit))
	}
	if encoded := params.Encode(); encoded != "" {
		u += "?" + encoded
	}

	var raw remotiveResponse
	if err := a.client.GetJSON(ctx, u, &raw); err != nil {
		return nil, fmt.Errorf("remotive fetch: %w", err)
	}

	jobs := make([]model.JobPosting, 0, len(raw.Jobs))
	for _, rj := range raw.Jobs {
		job := model.JobPosting{
			Title:       rj.Title,
			Company:     rj.CompanyName,
			Location:    orDefault(rj.Location, "Remote"),
			Description: truncate(extractText(rj.Description), 500),
			Salary:      rj.Salary,
			Category:    orDefault(rj.Category, "Remote"),
			Source:      a.Name(),
			SourceLink:  rj.URL,
		}

		if !filter.Valid(job) {
			continue
		}

		jobs = append(jobs, job)
		if query.Limit > 0 && len(jobs) >= query.Limit {
			break
		}
	}

	return jobs, nil
}
