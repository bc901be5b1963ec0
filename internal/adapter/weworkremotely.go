package adapter

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/gophora/engine/internal/filter"
	"github.com/gophora/engine/internal/model"
)

const defaultWWRBaseURL = "https://weworkremotely.com"

// WeWorkRemotelyAdapter scrapes the We Work Remotely search page. Site markup
// is unstable by nature; any parse miss simply yields fewer records, never an
// error, and the whole fetch is isolated by the orchestrator anyway.
type WeWorkRemotelyAdapter struct {
	baseURL string
	client  *Client
}

// NewWeWorkRemotelyAdapter creates an adapter for the WWR job board.
func NewWeWorkRemotelyAdapter(baseURL string, client *Client) *WeWorkRemotelyAdapter {
	if baseURL == "" {
		baseURL = defaultWWRBaseURL
	}
	return &WeWorkRemotelyAdapter{baseURL: baseURL, client: client}
}

func (a *WeWorkRemotelyAdapter) Name() string { return "WeWorkRemotely" }

// Fetch scrapes the search result listing for the joined keywords.
func (a *WeWorkRemotelyAdapter) Fetch(ctx context.Context, query model.SearchQuery) ([]model.JobPosting, error) {
	searchURL := a.baseURL + "/remote-jobs/search"
	if len(query.Keywords) > 0 {
		searchURL += "?term=" + url.QueryEscape(strings.Join(query.Keywords, " "))
	}

	resp, err := a.client.Get(ctx, searchURL)
	if err != nil {
		return nil, fmt.Errorf("weworkremotely fetch: %w", err)
	}
	defer resp.Body.Close()

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("weworkremotely parse html: %w", err)
	}

	seen := map[string]bool{}

	var jobs []model.JobPosting
	doc.Find("section.jobs li").EachWithBreak(func(_ int, li *goquery.Selection) bool {
		a2 := li.Find("a[href^='/remote-jobs/']").First()
		href, ok := a2.Attr("href")
		if !ok || href == "" {
			return true
		}

		link := a.baseURL + href
		if seen[link] {
			return true
		}
		seen[link] = true

		job := model.JobPosting{
			Title:      strings.TrimSpace(li.Find("span.title").First().Text()),
			Company:    strings.TrimSpace(li.Find("span.company").First().Text()),
			Location:   orDefault(strings.TrimSpace(li.Find("span.region").First().Text()), "Remote"),
			Category:   "Remote",
			Source:     a.Name(),
			SourceLink: link,
		}
		job.Description = fmt.Sprintf("%s position at %s", job.Title, orDefault(job.Company, "a remote company"))

		if !filter.Valid(job) {
			return true
		}

		jobs = append(jobs, job)
		return query.Limit <= 0 || len(jobs) < query.Limit
	})

	return jobs, nil
}
