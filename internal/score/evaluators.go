// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package score

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/pdiddy/draft-engine/pkg/types"
)

// cliches are stock phrases that mark lazy writing. Each occurrence costs
// a fixed penalty against the cliche category.
var cliches = []string{
	"game-changer",
	"game changer",
	"revolutionary",
	"disruptive",
	"paradigm shift",
	"cutting-edge",
	"cutting edge",
	"state-of-the-art",
	"state of the art",
	"next-generation",
	"leverage synergies",
	"low-hanging fruit",
	"move the needle",
	"think outside the box",
	"at the end of the day",
	"double-edged sword",
	"the elephant in the room",
	"unlock the potential",
	"in today's fast-paced world",
	"in this day and age",
	"delve into",
	"dive deep",
	"landscape is evolving",
	"rapidly evolving",
	"transformative",
	"seamlessly",
	"robust solution",
	"best-in-class",
	"win-win",
}

const clichePenalty = 0.10

var (
	dataPattern   = regexp.MustCompile(`\d+[%x]|\$\d+|\d+\.\d+`)
	h2Pattern     = regexp.MustCompile(`(?m)^##\s`)
	wordPattern   = regexp.MustCompile(`\S+`)
	sentenceSplit = regexp.MustCompile(`[.!?]+\s`)
)

// evaluateCliches scores the text on freedom from stock phrases. A clean
// draft scores 1.0; each distinct occurrence deducts a fixed penalty.
func evaluateCliches(text string) (float64, string) {
	lower := strings.ToLower(text)
	var found []string
	for _, c := range cliches {
		if n := strings.Count(lower, c); n > 0 {
			found = append(found, fmt.Sprintf("%q x%d", c, n))
		}
	}
	if len(found) == 0 {
		return 1.0, "no cliches detected"
	}
	hits := 0
	for _, c := range cliches {
		hits += strings.Count(lower, c)
	}
	score := clamp(1.0 - clichePenalty*float64(hits))
	return score, "cliches found: " + strings.Join(found, ", ")
}

// evaluateStyle checks structural conventions: paragraph length, colon
// budget, heading usage, concrete data, and the strength of the opening.
func evaluateStyle(text string, style types.StyleOptions) (float64, string) {
	score := 1.0
	var issues []string

	maxSentences := style.MaxSentencesPerParagraph
	if maxSentences <= 0 {
		maxSentences = 4
	}
	long := 0
	for _, p := range paragraphs(text) {
		if countSentences(p) > maxSentences {
			long++
		}
	}
	if long > 0 {
		score -= 0.15 * float64(long)
		issues = append(issues, fmt.Sprintf("%d paragraphs exceed %d sentences", long, maxSentences))
	}

	if n := strings.Count(text, ":"); n > 2 {
		score -= 0.10
		issues = append(issues, fmt.Sprintf("%d colons, want at most 2", n))
	}

	if h2Pattern.MatchString(text) {
		score -= 0.15
		issues = append(issues, "uses section headings")
	}

	if !dataPattern.MatchString(text) {
		score -= 0.15
		issues = append(issues, "no concrete data or statistics")
	}

	if opening := firstSentence(text); wordCount(opening) < 8 {
		score -= 0.10
		issues = append(issues, "weak opening sentence")
	}

	if len(issues) == 0 {
		return clamp(score), "style conventions met"
	}
	return clamp(score), strings.Join(issues, "; ")
}

// evaluateBrevity scores word count against the target length. The curve
// is flat at 1.0 inside the acceptable band and falls off piecewise on
// either side, dropping faster past the hard maximum.
func evaluateBrevity(text string, style types.StyleOptions) (float64, string) {
	target := style.TargetWords
	if target <= 0 {
		target = 500
	}
	max := style.MaxWords
	if max <= 0 {
		max = target + 100
	}
	min := target - 100
	if min < 0 {
		min = 0
	}

	n := wordCount(text)
	feedback := fmt.Sprintf("%d words (target %d, max %d)", n, target, max)

	switch {
	case n >= min && n <= target:
		return 1.0, feedback
	case n > target && n <= max:
		// Linear slide from 1.0 at target down to 0.8 at max.
		frac := float64(n-target) / float64(max-target)
		return clamp(1.0 - 0.2*frac), feedback
	case n > max:
		// Past the cap the penalty steepens.
		over := float64(n-max) / float64(max)
		return clamp(0.8 - over), feedback
	default: // n < min
		if min == 0 {
			return 0.0, feedback
		}
		frac := float64(min-n) / float64(min)
		return clamp(1.0 - frac), feedback
	}
}

func wordCount(s string) int {
	return len(wordPattern.FindAllString(s, -1))
}

func paragraphs(s string) []string {
	var out []string
	for _, p := range strings.Split(s, "\n\n") {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		// Markdown headings and list items are not prose paragraphs.
		if strings.HasPrefix(p, "#") || strings.HasPrefix(p, "-") || strings.HasPrefix(p, "*") {
			continue
		}
		out = append(out, p)
	}
	return out
}

func countSentences(p string) int {
	p = strings.TrimSpace(p)
	if p == "" {
		return 0
	}
	return len(sentenceSplit.Split(p, -1))
}

func firstSentence(s string) string {
	s = strings.TrimSpace(s)
	// Skip a leading title line.
	if strings.HasPrefix(s, "#") {
		if i := strings.Index(s, "\n"); i >= 0 {
			s = strings.TrimSpace(s[i+1:])
		}
	}
	parts := sentenceSplit.Split(s, 2)
	return parts[0]
}
