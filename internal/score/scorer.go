// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package score

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/pdiddy/draft-engine/pkg/types"
)

// Scorer evaluates drafts against a rubric. The judge is optional; without
// one the grammar and argument categories take a fixed baseline score.
type Scorer struct {
	rubric types.Rubric
	style  types.StyleOptions
	judge  Judge
	out    io.Writer
}

// New builds a Scorer. The rubric must already be validated.
func New(rubric types.Rubric, style types.StyleOptions, judge Judge, out io.Writer) *Scorer {
	if out == nil {
		out = io.Discard
	}
	return &Scorer{rubric: rubric, style: style, judge: judge, out: out}
}

// Score evaluates one draft. A failed or empty draft scores zero in every
// category without consulting the evaluators. Judge failures are reported
// but never abort scoring.
func (s *Scorer) Score(ctx context.Context, title string, d types.Draft) types.ScoreReport {
	if d.Failed() {
		return s.zeroReport(d)
	}

	categories := make(map[string]float64, len(Categories))
	feedback := make(map[string]string, len(Categories))

	categories[CategoryStyle], feedback[CategoryStyle] = evaluateStyle(d.Text, s.style)
	categories[CategoryCliche], feedback[CategoryCliche] = evaluateCliches(d.Text)
	categories[CategoryBrevity], feedback[CategoryBrevity] = evaluateBrevity(d.Text, s.style)

	grammar, argument, judgeNote := s.assess(ctx, title, d.Text)
	categories[CategoryGrammar] = grammar
	categories[CategoryArgument] = argument
	if judgeNote != "" {
		feedback[CategoryGrammar] = judgeNote
		feedback[CategoryArgument] = judgeNote
	}

	composite := 0.0
	for name, w := range s.rubric.Weights {
		composite += w * categories[name]
	}
	composite = clamp(composite)

	return types.ScoreReport{
		Categories: categories,
		Composite:  composite,
		Grade:      letterGrade(composite),
		Pass:       composite >= s.rubric.Threshold,
		Weakest:    weakestCategory(categories),
		Feedback:   feedback,
	}
}

// ScoreAll evaluates a batch in dispatch order, preserving indices.
func (s *Scorer) ScoreAll(ctx context.Context, title string, drafts []types.Draft) []types.ScoredDraft {
	scored := make([]types.ScoredDraft, len(drafts))
	for i, d := range drafts {
		scored[i] = types.ScoredDraft{Draft: d, Report: s.Score(ctx, title, d)}
	}
	return scored
}

func (s *Scorer) assess(ctx context.Context, title, text string) (float64, float64, string) {
	if s.judge == nil {
		return noJudgeScore, noJudgeScore, "no judge configured, baseline score"
	}
	grammar, argument, note, err := s.judge.Assess(ctx, title, text)
	if err != nil {
		fmt.Fprintf(s.out, "warning: judge unavailable, using fallback scores: %v\n", err)
		return judgeErrorScore, judgeErrorScore, "judge unavailable, fallback score"
	}
	return grammar, argument, note
}

func (s *Scorer) zeroReport(d types.Draft) types.ScoreReport {
	categories := make(map[string]float64, len(Categories))
	for _, c := range Categories {
		categories[c] = 0
	}
	reason := "empty draft"
	if d.Err != "" {
		reason = "generation failed: " + d.Err
	}
	return types.ScoreReport{
		Categories: categories,
		Composite:  0,
		Grade:      letterGrade(0),
		Pass:       false,
		Weakest:    Categories[0],
		Feedback:   map[string]string{Categories[0]: reason},
	}
}

// weakestCategory returns the lowest-scoring category. Ties resolve to the
// earliest category in canonical order so repeated scoring of the same
// draft always names the same weakness.
func weakestCategory(categories map[string]float64) string {
	weakest := Categories[0]
	low := categories[weakest]
	for _, c := range Categories[1:] {
		if categories[c] < low {
			weakest = c
			low = categories[c]
		}
	}
	return weakest
}

// Summarize renders a short human-readable report line per category.
func Summarize(r types.ScoreReport) string {
	var b strings.Builder
	fmt.Fprintf(&b, "composite %.3f (%s)", r.Composite, r.Grade)
	for _, c := range Categories {
		fmt.Fprintf(&b, "  %s %.2f", c, r.Categories[c])
	}
	return b.String()
}
