// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types holds the shared data model for the draft-engine pipeline:
// generation requests, drafts, score reports, cycles, and configuration.
package types

import "time"

// StyleOptions carries named style parameters for a generation call.
type StyleOptions struct {
	// Tone is the requested writing tone (e.g. "analytical").
	Tone string `json:"tone" yaml:"tone"`

	// TargetWords is the ideal word count for a draft (e.g. 500).
	TargetWords int `json:"target_words" yaml:"target_words"`

	// MaxWords is the upper bound before length penalties apply (e.g. 600).
	MaxWords int `json:"max_words" yaml:"max_words"`

	// MaxSentencesPerParagraph caps long sentences per paragraph.
	MaxSentencesPerParagraph int `json:"max_sentences_per_paragraph" yaml:"max_sentences_per_paragraph"`

	// VoiceCharacteristics lists author voice traits woven into the prompt.
	VoiceCharacteristics []string `json:"voice_characteristics,omitempty" yaml:"voice_characteristics,omitempty"`

	// ConclusionStyle describes the expected closing (e.g. "forward-looking").
	ConclusionStyle string `json:"conclusion_style,omitempty" yaml:"conclusion_style,omitempty"`
}

// GenerationRequest describes one generation call. A request is immutable
// once dispatched; refinement rounds build a new request.
type GenerationRequest struct {
	// Prompt is the topic or the fully built refinement prompt.
	Prompt string `json:"prompt" yaml:"prompt"`

	// Title is an optional working title passed for context.
	Title string `json:"title,omitempty" yaml:"title,omitempty"`

	// Style holds the style parameters rendered into the prompt.
	Style StyleOptions `json:"style" yaml:"style"`

	// Strategy labels the prompt variant (e.g. "technical", "refined").
	Strategy string `json:"strategy,omitempty" yaml:"strategy,omitempty"`

	// Cycle is the cycle index the request belongs to, starting at 0.
	Cycle int `json:"cycle" yaml:"cycle"`

	// Temperature is the sampling temperature for the backend call.
	Temperature float64 `json:"temperature,omitempty" yaml:"temperature,omitempty"`

	// MaxTokens bounds the generated output length.
	MaxTokens int `json:"max_tokens,omitempty" yaml:"max_tokens,omitempty"`
}

// Draft is one backend's output for a request. Drafts are never mutated
// after creation; a refined version of a draft is a new Draft.
type Draft struct {
	// Backend is the backend identifier that produced the draft.
	Backend string `json:"backend" yaml:"backend"`

	// Model is the concrete model identifier reported by the backend.
	Model string `json:"model,omitempty" yaml:"model,omitempty"`

	// Text is the raw generated text. Empty when the call failed.
	Text string `json:"text" yaml:"text"`

	// Strategy echoes the request's strategy label.
	Strategy string `json:"strategy,omitempty" yaml:"strategy,omitempty"`

	// Cycle is the cycle index the draft was generated in.
	Cycle int `json:"cycle" yaml:"cycle"`

	// Latency is the wall-clock duration of the backend call.
	Latency time.Duration `json:"latency" yaml:"latency"`

	// Tokens is the total token usage reported by the backend.
	Tokens int `json:"tokens" yaml:"tokens"`

	// Cost is the estimated call cost in USD.
	Cost float64 `json:"cost" yaml:"cost"`

	// OK reports whether the call succeeded. When false, Err holds the cause.
	OK bool `json:"ok" yaml:"ok"`

	// Err describes the backend failure, including timeouts.
	Err string `json:"err,omitempty" yaml:"err,omitempty"`
}

// Failed reports whether the draft is unusable for scoring and selection.
func (d Draft) Failed() bool {
	return !d.OK || d.Text == ""
}

// ScoreReport is the rubric evaluation of one draft. One report exists per
// draft before any selection decision; reports are immutable.
type ScoreReport struct {
	// Categories maps rubric category name to sub-score in [0,1].
	Categories map[string]float64 `json:"categories" yaml:"categories"`

	// Composite is the weighted sum of category scores, in [0,1].
	Composite float64 `json:"composite" yaml:"composite"`

	// Grade is the letter grade for the composite (A+ through F).
	Grade string `json:"grade" yaml:"grade"`

	// Pass reports whether the composite met the rubric threshold.
	Pass bool `json:"pass" yaml:"pass"`

	// Weakest names the lowest-scoring category, used as refinement feedback.
	Weakest string `json:"weakest" yaml:"weakest"`

	// Feedback maps category name to a short explanation of its score.
	Feedback map[string]string `json:"feedback,omitempty" yaml:"feedback,omitempty"`
}

// ScoredDraft pairs a draft with its report, preserving dispatch order.
type ScoredDraft struct {
	Draft  Draft       `json:"draft" yaml:"draft"`
	Report ScoreReport `json:"report" yaml:"report"`
}

// CycleResult holds one round of dispatch, scoring, and selection. The
// Drafts slice preserves backend dispatch order.
type CycleResult struct {
	// Index is the cycle number, starting at 0 for the opening batch.
	Index int `json:"index" yaml:"index"`

	// Drafts lists the scored drafts in dispatch order.
	Drafts []ScoredDraft `json:"drafts" yaml:"drafts"`

	// WinnerIdx is the index into Drafts of the cycle winner, or -1 when
	// every draft in the cycle failed.
	WinnerIdx int `json:"winner_idx" yaml:"winner_idx"`
}

// Winner returns the cycle's winning pair, or false when the cycle produced
// no viable draft.
func (c CycleResult) Winner() (ScoredDraft, bool) {
	if c.WinnerIdx < 0 || c.WinnerIdx >= len(c.Drafts) {
		return ScoredDraft{}, false
	}
	return c.Drafts[c.WinnerIdx], true
}

// SessionState identifies where a session is in its lifecycle.
type SessionState string

const (
	StateDispatching SessionState = "DISPATCHING"
	StateCollecting  SessionState = "COLLECTING"
	StateScoring     SessionState = "SCORING"
	StateSelecting   SessionState = "SELECTING"
	StateRefining    SessionState = "REFINING"
	StateDone        SessionState = "DONE"
	StateFailed      SessionState = "FAILED"
)

// Terminal reports whether the state ends the session.
func (s SessionState) Terminal() bool {
	return s == StateDone || s == StateFailed
}

// SessionTotals accumulates cost, latency, and token usage across a session.
// Totals are added once per cycle after the parallel gather completes.
type SessionTotals struct {
	Drafts  int           `json:"drafts" yaml:"drafts"`
	Tokens  int           `json:"tokens" yaml:"tokens"`
	Cost    float64       `json:"cost" yaml:"cost"`
	Latency time.Duration `json:"latency" yaml:"latency"`
}

// Add folds one draft's usage into the totals.
func (t *SessionTotals) Add(d Draft) {
	t.Drafts++
	t.Tokens += d.Tokens
	t.Cost += d.Cost
	t.Latency += d.Latency
}

// SessionResult is the full outcome of one generation session.
type SessionResult struct {
	// ID is the session identifier (UUID).
	ID string `json:"id" yaml:"id"`

	// Topic is the original topic prompt.
	Topic string `json:"topic" yaml:"topic"`

	// Title is the optional working title.
	Title string `json:"title,omitempty" yaml:"title,omitempty"`

	// State is the terminal state: DONE or FAILED.
	State SessionState `json:"state" yaml:"state"`

	// Cycles is the full per-cycle history in order.
	Cycles []CycleResult `json:"cycles" yaml:"cycles"`

	// Best is the best-of-history winner. Zero-valued when the opening
	// round produced no viable draft.
	Best ScoredDraft `json:"best" yaml:"best"`

	// Totals aggregates usage across every dispatched call.
	Totals SessionTotals `json:"totals" yaml:"totals"`

	// StartedAt and FinishedAt bound the session wall-clock time.
	StartedAt  time.Time `json:"started_at" yaml:"started_at"`
	FinishedAt time.Time `json:"finished_at" yaml:"finished_at"`

	// FailureReason explains a FAILED state for the final report.
	FailureReason string `json:"failure_reason,omitempty" yaml:"failure_reason,omitempty"`
}
