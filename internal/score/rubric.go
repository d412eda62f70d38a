// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package score evaluates drafts against a weighted rubric. Each category
// is computed by an independent sub-evaluator; the composite is the
// weighted sum. Scoring is deterministic for a fixed rubric and judge.
package score

import (
	"fmt"
	"math"

	"github.com/pdiddy/draft-engine/pkg/types"
)

// Rubric category names. Categories lists them in canonical order, which
// also breaks ties when picking the weakest category.
const (
	CategoryGrammar  = "grammar"
	CategoryArgument = "argument"
	CategoryStyle    = "style"
	CategoryCliche   = "cliche"
	CategoryBrevity  = "brevity"
)

// Categories is the fixed rubric category set in canonical order.
var Categories = []string{
	CategoryGrammar,
	CategoryArgument,
	CategoryStyle,
	CategoryCliche,
	CategoryBrevity,
}

// weightEpsilon is the tolerance when checking that weights sum to 1.0.
const weightEpsilon = 1e-6

// DefaultRubric returns the standard editorial rubric: argument strength
// weighted heaviest, pass mark at 0.87 (a B+).
func DefaultRubric() types.Rubric {
	return types.Rubric{
		Weights: map[string]float64{
			CategoryGrammar:  0.20,
			CategoryArgument: 0.30,
			CategoryStyle:    0.20,
			CategoryCliche:   0.15,
			CategoryBrevity:  0.15,
		},
		Threshold: 0.87,
	}
}

// ValidateRubric checks a rubric once at session start: every category must
// carry a weight, no unknown categories, weights must sum to 1.0, and the
// threshold and ceiling must sit in [0,1].
func ValidateRubric(r types.Rubric) error {
	if len(r.Weights) == 0 {
		return fmt.Errorf("rubric has no weights")
	}

	known := make(map[string]bool, len(Categories))
	for _, c := range Categories {
		known[c] = true
		if _, ok := r.Weights[c]; !ok {
			return fmt.Errorf("rubric missing weight for category %q", c)
		}
	}

	sum := 0.0
	for name, w := range r.Weights {
		if !known[name] {
			return fmt.Errorf("unknown rubric category %q", name)
		}
		if w < 0 {
			return fmt.Errorf("category %q has negative weight %f", name, w)
		}
		sum += w
	}
	if math.Abs(sum-1.0) > weightEpsilon {
		return fmt.Errorf("rubric weights sum to %f, want 1.0", sum)
	}

	if r.Threshold < 0 || r.Threshold > 1 {
		return fmt.Errorf("threshold %f out of range [0,1]", r.Threshold)
	}
	if r.Ceiling < 0 || r.Ceiling > 1 {
		return fmt.Errorf("ceiling %f out of range [0,1]", r.Ceiling)
	}
	return nil
}

// letterGrade converts a composite score in [0,1] to a letter grade.
func letterGrade(score float64) string {
	switch {
	case score >= 0.97:
		return "A+"
	case score >= 0.93:
		return "A"
	case score >= 0.90:
		return "A-"
	case score >= 0.87:
		return "B+"
	case score >= 0.83:
		return "B"
	case score >= 0.80:
		return "B-"
	case score >= 0.77:
		return "C+"
	case score >= 0.73:
		return "C"
	case score >= 0.70:
		return "C-"
	case score >= 0.67:
		return "D+"
	case score >= 0.63:
		return "D"
	case score >= 0.60:
		return "D-"
	default:
		return "F"
	}
}

// clamp pins a score into [0,1].
func clamp(v float64) float64 {
	return math.Max(0.0, math.Min(1.0, v))
}
