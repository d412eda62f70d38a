// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package score

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"

	"github.com/pdiddy/draft-engine/internal/backend"
	"github.com/pdiddy/draft-engine/pkg/types"
)

// A Judge rates the qualitative categories a heuristic cannot: grammar
// correctness and argument strength. Scores are in [0,1].
type Judge interface {
	Assess(ctx context.Context, title, text string) (grammar, argument float64, feedback string, err error)
}

// Fallback scores when no judge is configured or a judge call fails. A
// failed judge call degrades the score slightly below the no-judge
// baseline but never fails the draft.
const (
	noJudgeScore     = 0.80
	judgeErrorScore  = 0.75
	judgeTemperature = 0.0
)

const judgePromptFmt = `You are an exacting copy editor. Rate the following draft titled %q on two axes, each from 0 to 100:

- grammar: correctness of grammar, spelling, and punctuation
- argument: strength, coherence, and support of the central argument

Respond with ONLY a JSON object of the form
{"grammar": <int>, "argument": <int>, "feedback": "<one sentence>"}

Draft:
%s`

var jsonObjectPattern = regexp.MustCompile(`\{[^{}]*\}`)

// LLMJudge asks a backend to rate a draft and parses the JSON verdict.
type LLMJudge struct {
	Backend backend.Backend
}

func (j *LLMJudge) Assess(ctx context.Context, title, text string) (float64, float64, string, error) {
	req := types.GenerationRequest{
		Prompt:      fmt.Sprintf(judgePromptFmt, title, text),
		Temperature: judgeTemperature,
		MaxTokens:   300,
	}
	gen, err := j.Backend.Generate(ctx, req)
	if err != nil {
		return 0, 0, "", fmt.Errorf("judge call: %w", err)
	}

	var verdict struct {
		Grammar  float64 `json:"grammar"`
		Argument float64 `json:"argument"`
		Feedback string  `json:"feedback"`
	}
	raw := jsonObjectPattern.FindString(gen.Text)
	if raw == "" {
		return 0, 0, "", fmt.Errorf("judge returned no JSON object: %q", gen.Text)
	}
	if err := json.Unmarshal([]byte(raw), &verdict); err != nil {
		return 0, 0, "", fmt.Errorf("parse judge verdict: %w", err)
	}

	return clamp(verdict.Grammar / 100.0), clamp(verdict.Argument / 100.0), verdict.Feedback, nil
}
