// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package prompt renders generation and refinement prompts. Each backend
// in a batch gets a different strategic angle so the drafts diverge
// enough to make selection meaningful.
package prompt

import (
	"fmt"
	"strings"

	"github.com/pdiddy/draft-engine/pkg/types"
)

// Strategy names. The first cycle spreads the opening strategies across
// backends; later cycles narrow toward polish.
const (
	StrategyTechnical  = "technical"
	StrategyBusiness   = "business"
	StrategyDataDriven = "data-driven"
	StrategyRefined    = "refined"
	StrategyExpanded   = "expanded"
	StrategyPolished   = "polished"
)

var openingStrategies = []string{StrategyTechnical, StrategyBusiness, StrategyDataDriven}
var secondStrategies = []string{StrategyRefined, StrategyExpanded}

var strategyAngles = map[string]string{
	StrategyTechnical:  "Take a technical angle. Explain the underlying mechanics and why they matter.",
	StrategyBusiness:   "Take a business angle. Focus on costs, incentives, and who wins or loses.",
	StrategyDataDriven: "Take a data-driven angle. Anchor every claim in specific numbers.",
	StrategyRefined:    "Refine the strongest ideas into a tighter, more confident piece.",
	StrategyExpanded:   "Expand the most promising thread with deeper supporting detail.",
	StrategyPolished:   "Polish the piece. Sharpen word choice and smooth every transition.",
}

// StrategyFor maps a batch slot to a strategy for the given cycle. Cycle 0
// rotates the opening strategies, cycle 1 alternates refinement angles,
// and every later cycle polishes.
func StrategyFor(cycle, slot int) string {
	switch cycle {
	case 0:
		return openingStrategies[slot%len(openingStrategies)]
	case 1:
		return secondStrategies[slot%len(secondStrategies)]
	default:
		return StrategyPolished
	}
}

// Builder renders prompts according to a fixed style guide.
type Builder struct {
	Style types.StyleOptions
}

// StyleGuide renders the writing constraints as an instruction block.
func (b Builder) StyleGuide() string {
	style := b.Style
	target := style.TargetWords
	if target <= 0 {
		target = 500
	}
	max := style.MaxWords
	if max <= 0 {
		max = target + 100
	}
	maxSentences := style.MaxSentencesPerParagraph
	if maxSentences <= 0 {
		maxSentences = 4
	}

	var sb strings.Builder
	sb.WriteString("Style requirements:\n")
	fmt.Fprintf(&sb, "- Around %d words, never more than %d.\n", target, max)
	fmt.Fprintf(&sb, "- Paragraphs of at most %d sentences.\n", maxSentences)
	sb.WriteString("- Open with a strong, specific first sentence.\n")
	sb.WriteString("- Include concrete numbers or statistics.\n")
	sb.WriteString("- No section headings, at most two colons, no stock phrases or cliches.\n")
	if style.Tone != "" {
		fmt.Fprintf(&sb, "- Tone: %s.\n", style.Tone)
	}
	for _, v := range style.VoiceCharacteristics {
		fmt.Fprintf(&sb, "- Voice: %s.\n", v)
	}
	if style.ConclusionStyle != "" {
		fmt.Fprintf(&sb, "- Conclusion: %s.\n", style.ConclusionStyle)
	}
	return sb.String()
}

// Initial builds the first-cycle generation request for one batch slot.
func (b Builder) Initial(topic, title string, cycle, slot int) types.GenerationRequest {
	strategy := StrategyFor(cycle, slot)

	var sb strings.Builder
	fmt.Fprintf(&sb, "Write a blog post about: %s\n\n", topic)
	if title != "" {
		fmt.Fprintf(&sb, "Title: %s\n\n", title)
	}
	sb.WriteString(strategyAngles[strategy])
	sb.WriteString("\n\n")
	sb.WriteString(b.StyleGuide())

	return types.GenerationRequest{
		Prompt:   sb.String(),
		Title:    title,
		Style:    b.Style,
		Strategy: strategy,
		Cycle:    cycle,
	}
}

// Refinement builds a request that embeds the current winner and directs
// the rewrite at its weakest rubric category.
func (b Builder) Refinement(topic, title string, winner types.ScoredDraft, cycle, slot int) types.GenerationRequest {
	strategy := StrategyFor(cycle, slot)

	var sb strings.Builder
	fmt.Fprintf(&sb, "Improve the following blog post about: %s\n\n", topic)
	fmt.Fprintf(&sb, "Current draft (scored %.2f, grade %s):\n\n%s\n\n",
		winner.Report.Composite, winner.Report.Grade, winner.Draft.Text)
	fmt.Fprintf(&sb, "The weakest area is %s.", winner.Report.Weakest)
	if note := winner.Report.Feedback[winner.Report.Weakest]; note != "" {
		fmt.Fprintf(&sb, " Reviewer notes: %s.", note)
	}
	sb.WriteString("\n\n")
	sb.WriteString(strategyAngles[strategy])
	sb.WriteString("\n\nRewrite the full post. Keep what already works.\n\n")
	sb.WriteString(b.StyleGuide())

	return types.GenerationRequest{
		Prompt:   sb.String(),
		Title:    title,
		Style:    b.Style,
		Strategy: strategy,
		Cycle:    cycle,
	}
}
