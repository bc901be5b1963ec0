package scorer

import (
	_ "embed"
	"text/template"
)

//go:embed prompts/relevance.md
var relevancePromptRaw string

// RelevanceTemplate is the parsed prompt template for relevance scoring.
// Parsed once at package init; reused on every Score call.
var RelevanceTemplate = template.Must(template.New("relevance").Parse(relevancePromptRaw))
