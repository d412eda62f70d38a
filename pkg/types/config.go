// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// HTTPConfig holds shared HTTP settings for backends that make network requests.
type HTTPConfig struct {
	// Timeout is the HTTP request timeout.
	Timeout time.Duration `json:"timeout" yaml:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests
	// (e.g. "draft-engine/0.1").
	UserAgent string `json:"user_agent" yaml:"user_agent"`
}

// BackendProvider identifies the generation API behind a backend.
type BackendProvider string

const (
	ProviderOpenAI    BackendProvider = "openai"
	ProviderAnthropic BackendProvider = "anthropic"
	ProviderGemini    BackendProvider = "gemini"
	ProviderMock      BackendProvider = "mock"
)

// BackendConfig describes one generation backend. Model identity is a
// backend-level detail; the pipeline treats every backend as the same
// opaque contract.
type BackendConfig struct {
	// Name is the backend identifier used in drafts and reports
	// (e.g. "claude", "gpt4", "gemini").
	Name string `json:"name" yaml:"name"`

	// Provider selects the API implementation.
	Provider BackendProvider `json:"provider" yaml:"provider"`

	// Model is the concrete model identifier (e.g. "gpt-4.1").
	Model string `json:"model" yaml:"model"`

	// APIKey authenticates against the provider. Usually filled from the
	// secrets directory rather than the config file.
	APIKey string `json:"api_key,omitempty" yaml:"api_key,omitempty"`

	// BaseURL overrides the provider endpoint (for tests and proxies).
	BaseURL string `json:"base_url,omitempty" yaml:"base_url,omitempty"`

	// MaxRetries is the number of retry attempts for rate-limited calls
	// (default 3).
	MaxRetries int `json:"max_retries" yaml:"max_retries"`
}

// Rubric is the immutable scoring configuration for a session. Weights are
// validated once at session start: they must cover the fixed category set
// and sum to 1.0.
type Rubric struct {
	// Weights maps category name to its share of the composite score.
	Weights map[string]float64 `json:"weights" yaml:"weights"`

	// Threshold is the pass mark for a composite score, in [0,1]
	// (e.g. 0.87, a B+).
	Threshold float64 `json:"threshold" yaml:"threshold"`

	// Ceiling is the good-enough composite at which refinement stops early,
	// in [0,1]. Zero disables the early stop.
	Ceiling float64 `json:"ceiling,omitempty" yaml:"ceiling,omitempty"`
}

// DispatchConfig holds settings for the parallel dispatch stage.
type DispatchConfig struct {
	// CallTimeout bounds each individual backend call (default 60s).
	CallTimeout time.Duration `json:"call_timeout" yaml:"call_timeout"`
}

// SessionConfig holds settings for the session loop.
type SessionConfig struct {
	// RefinementCycles is the number of refinement rounds after the first
	// dispatch. Zero means one round and no refinement.
	RefinementCycles int `json:"refinement_cycles" yaml:"refinement_cycles"`

	// StagnationThreshold stops refinement when the winning composite
	// improves by less than this amount for MaxStagnation consecutive
	// rounds (default 0.02).
	StagnationThreshold float64 `json:"stagnation_threshold,omitempty" yaml:"stagnation_threshold,omitempty"`

	// MaxStagnation is the number of consecutive low-improvement rounds
	// tolerated before stopping (default 3).
	MaxStagnation int `json:"max_stagnation,omitempty" yaml:"max_stagnation,omitempty"`
}

// HistoryConfig holds settings for the session history store.
type HistoryConfig struct {
	// Dir is the base directory for session output (contains index/ and
	// per-session subdirectories).
	Dir string `json:"dir" yaml:"dir"`

	// MaxResults is the default maximum number of list results (default 20).
	MaxResults int `json:"max_results" yaml:"max_results"`
}

// PublishConfig holds settings for final output rendering.
type PublishConfig struct {
	// Dir is the directory final posts are written to.
	Dir string `json:"dir" yaml:"dir"`

	// RenderHTML controls whether an HTML rendering is written next to the
	// Markdown output.
	RenderHTML bool `json:"render_html" yaml:"render_html"`
}

// PipelineConfig groups all stage configurations for one session.
type PipelineConfig struct {
	HTTP     HTTPConfig      `json:"http" yaml:"http"`
	Backends []BackendConfig `json:"backends" yaml:"backends"`
	Rubric   Rubric          `json:"rubric" yaml:"rubric"`
	Style    StyleOptions    `json:"style" yaml:"style"`
	Dispatch DispatchConfig  `json:"dispatch" yaml:"dispatch"`
	Session  SessionConfig   `json:"session" yaml:"session"`
	History  HistoryConfig   `json:"history" yaml:"history"`
	Publish  PublishConfig   `json:"publish" yaml:"publish"`
}
