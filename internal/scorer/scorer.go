package scorer

import (
	"context"

	"github.com/gophora/engine/internal/model"
)

// Result is the outcome of scoring one job against one user profile.
type Result struct {
	Score        float64
	Accept       bool
	Reasoning    string
	SkillMatches []string
	SkillGaps    []string
}

// Scorer rates how relevant a job posting is for a user.
type Scorer interface {
	Score(ctx context.Context, profile model.UserProfile, job model.JobPosting) (Result, error)
}

// FastScorer assigns a fixed optimistic score without calling any reasoning
// backend. Used when ai.enabled is false so the pipeline keeps producing
// personalized results at zero cost.
type FastScorer struct {
	score      float64
	maxMatches int
}

// NewFastScorer creates a scorer that always accepts with the given score.
func NewFastScorer(score float64, maxMatches int) *FastScorer {
	return &FastScorer{score: score, maxMatches: maxMatches}
}

// Score accepts every job, echoing a prefix of the user's skills as matches.
func (s *FastScorer) Score(_ context.Context, profile model.UserProfile, _ model.JobPosting) (Result, error) {
	matches := profile.Skills
	if s.maxMatches > 0 && len(matches) > s.maxMatches {
		matches = matches[:s.maxMatches]
	}
	return Result{
		Score:        s.score,
		Accept:       true,
		Reasoning:    "Matched based on your profile",
		SkillMatches: matches,
		SkillGaps:    nil,
	}, nil
}
