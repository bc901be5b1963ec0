package scorer

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"text/template"

	"github.com/gophora/engine/internal/model"
)

// LLMScorer rates jobs with a reasoning backend. Providers are tried in
// order; when one fails the next takes over, and when all fail the job gets
// a zero-score rejection instead of an error so a provider outage never
// stalls the ingest run.
type LLMScorer struct {
	providers []Provider
	tmpl      *template.Template
	threshold float64
	logger    *slog.Logger
}

// NewLLMScorer creates a scorer over the given ordered providers.
func NewLLMScorer(providers []Provider, tmpl *template.Template, threshold float64, logger *slog.Logger) *LLMScorer {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &LLMScorer{
		providers: providers,
		tmpl:      tmpl,
		threshold: threshold,
		logger:    logger,
	}
}

// promptData feeds the relevance template.
type promptData struct {
	Skills       string
	Interests    string
	Experience   string
	Title        string
	Description  string
	Requirements string
	Threshold    float64
}

// fallbackResult is returned when no provider produced a usable answer.
func (s *LLMScorer) fallbackResult() Result {
	return Result{
		Score:     0,
		Accept:    false,
		Reasoning: "Unable to analyze",
	}
}

// Score renders the prompt and asks each provider in turn. The returned
// error is non-nil only for context cancellation; every other failure mode
// degrades to the fallback result.
func (s *LLMScorer) Score(ctx context.Context, profile model.UserProfile, job model.JobPosting) (Result, error) {
	data := promptData{
		Skills:       orNotSpecified(strings.Join(profile.Skills, ", ")),
		Interests:    orNotSpecified(strings.Join(profile.Interests, ", ")),
		Experience:   orNotSpecified(profile.Experience),
		Title:        job.Title,
		Description:  job.Description,
		Requirements: job.Requirements,
		Threshold:    s.threshold,
	}

	var promptBuf bytes.Buffer
	if err := s.tmpl.Execute(&promptBuf, data); err != nil {
		return Result{}, fmt.Errorf("render prompt: %w", err)
	}

	for _, p := range s.providers {
		raw, err := p.Complete(ctx, promptBuf.String())
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return Result{}, err
			}
			s.logger.Warn("scorer provider failed",
				slog.String("provider", p.Name()),
				slog.String("error", err.Error()))
			continue
		}

		res, err := parseResult(raw, s.threshold)
		if err != nil {
			s.logger.Warn("scorer response unparseable",
				slog.String("provider", p.Name()),
				slog.String("error", err.Error()))
			continue
		}
		return res, nil
	}

	return s.fallbackResult(), nil
}

// rawResult is the JSON shape the prompt asks the model to produce.
type rawResult struct {
	RelevanceScore float64  `json:"relevance_score"`
	Reasoning      string   `json:"reasoning"`
	IsRelevant     bool     `json:"is_relevant"`
	SkillMatches   []string `json:"skill_matches"`
	SkillGaps      []string `json:"skill_gaps"`
}

// parseResult deserializes a model response. Providers without structured
// output wrap JSON in markdown fences, so those are stripped first. The
// accept decision is recomputed from the score; the model's own is_relevant
// flag is advisory only.
func parseResult(raw string, threshold float64) (Result, error) {
	cleaned := stripFences(raw)

	var rr rawResult
	if err := json.Unmarshal([]byte(cleaned), &rr); err != nil {
		return Result{}, fmt.Errorf("unmarshal score JSON: %w", err)
	}

	if rr.RelevanceScore < 0 {
		rr.RelevanceScore = 0
	}
	if rr.RelevanceScore > 100 {
		rr.RelevanceScore = 100
	}

	return Result{
		Score:        rr.RelevanceScore,
		Accept:       rr.RelevanceScore >= threshold,
		Reasoning:    rr.Reasoning,
		SkillMatches: rr.SkillMatches,
		SkillGaps:    rr.SkillGaps,
	}, nil
}

// stripFences extracts the body of a ```json or ``` fenced block, or returns
// the trimmed input when no fence is present.
func stripFences(s string) string {
	s = strings.TrimSpace(s)

	for _, marker := range []string{"```json", "```"} {
		start := strings.Index(s, marker)
		if start < 0 {
			continue
		}
		rest := s[start+len(marker):]
		end := strings.Index(rest, "```")
		if end < 0 {
			break
		}
		return strings.TrimSpace(rest[:end])
	}

	return s
}

func orNotSpecified(s string) string {
	if strings.TrimSpace(s) == "" {
		return "Not specified"
	}
	return s
}
