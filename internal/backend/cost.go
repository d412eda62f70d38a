// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package backend

// modelRate holds USD prices per 1K tokens for one model.
type modelRate struct {
	input  float64
	output float64
}

// pricing maps model identifiers to per-1K-token rates. Models missing from
// the table cost 0.0 so an unknown model never aborts a session; the totals
// just undercount.
var pricing = map[string]modelRate{
	// Anthropic
	"claude-sonnet-4-20250514":  {input: 0.003, output: 0.015},
	"claude-opus-4-20250805":    {input: 0.015, output: 0.075},
	"claude-3-5-sonnet-latest":  {input: 0.003, output: 0.015},
	"claude-3-5-haiku-20241022": {input: 0.00025, output: 0.00125},

	// OpenAI
	"gpt-4.1":      {input: 0.002, output: 0.008},
	"gpt-4.1-mini": {input: 0.0004, output: 0.0016},
	"gpt-4.1-nano": {input: 0.0001, output: 0.0004},
	"gpt-4o":       {input: 0.005, output: 0.015},
	"gpt-4o-mini":  {input: 0.00015, output: 0.0006},

	// Google
	"gemini-2.5-pro":   {input: 0.002, output: 0.008},
	"gemini-1.5-flash": {input: 0.000075, output: 0.0003},
}

// estimateCost returns the estimated USD cost for a call's token usage.
func estimateCost(model string, inputTokens, outputTokens int) float64 {
	rate, ok := pricing[model]
	if !ok {
		return 0.0
	}
	return float64(inputTokens)/1000.0*rate.input + float64(outputTokens)/1000.0*rate.output
}

// estimateTokens approximates token count for text when the API does not
// report usage. Roughly 4 characters per token.
func estimateTokens(text string) int {
	return len(text) / 4
}
