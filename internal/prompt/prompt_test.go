// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package prompt

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/pdiddy/draft-engine/pkg/types"
)

func TestStrategyFor(t *testing.T) {
	tests := []struct {
		cycle, slot int
		want        string
	}{
		{0, 0, StrategyTechnical},
		{0, 1, StrategyBusiness},
		{0, 2, StrategyDataDriven},
		{0, 3, StrategyTechnical},
		{1, 0, StrategyRefined},
		{1, 1, StrategyExpanded},
		{1, 2, StrategyRefined},
		{2, 0, StrategyPolished},
		{5, 4, StrategyPolished},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, StrategyFor(tt.cycle, tt.slot), "cycle %d slot %d", tt.cycle, tt.slot)
	}
}

func TestStyleGuide_Defaults(t *testing.T) {
	b := Builder{}
	guide := b.StyleGuide()
	assert.Contains(t, guide, "Around 500 words, never more than 600")
	assert.Contains(t, guide, "at most 4 sentences")
}

func TestStyleGuide_CustomOptions(t *testing.T) {
	b := Builder{Style: types.StyleOptions{
		Tone:                 "conversational but precise",
		TargetWords:          800,
		MaxWords:             900,
		VoiceCharacteristics: []string{"first person", "skeptical of hype"},
		ConclusionStyle:      "end on a forward-looking question",
	}}
	guide := b.StyleGuide()
	assert.Contains(t, guide, "Around 800 words, never more than 900")
	assert.Contains(t, guide, "Tone: conversational but precise")
	assert.Contains(t, guide, "Voice: skeptical of hype")
	assert.Contains(t, guide, "Conclusion: end on a forward-looking question")
}

func TestInitial(t *testing.T) {
	b := Builder{}
	req := b.Initial("the economics of serverless", "Cold Starts and Cold Cash", 0, 1)

	assert.Contains(t, req.Prompt, "the economics of serverless")
	assert.Contains(t, req.Prompt, "Cold Starts and Cold Cash")
	assert.Contains(t, req.Prompt, "business angle")
	assert.Contains(t, req.Prompt, "Style requirements")
	assert.Equal(t, StrategyBusiness, req.Strategy)
	assert.Equal(t, 0, req.Cycle)
}

func TestRefinement_EmbedsWinnerAndWeakness(t *testing.T) {
	winner := types.ScoredDraft{
		Draft: types.Draft{Text: "The original winning draft text.", OK: true},
		Report: types.ScoreReport{
			Composite: 0.84,
			Grade:     "B",
			Weakest:   "brevity",
			Feedback:  map[string]string{"brevity": "720 words (target 500, max 600)"},
		},
	}
	b := Builder{}
	req := b.Refinement("topic", "Title", winner, 1, 0)

	assert.Contains(t, req.Prompt, "The original winning draft text.")
	assert.Contains(t, req.Prompt, "weakest area is brevity")
	assert.Contains(t, req.Prompt, "720 words")
	assert.Contains(t, req.Prompt, "scored 0.84, grade B")
	assert.Equal(t, StrategyRefined, req.Strategy)
	assert.Equal(t, 1, req.Cycle)
}
