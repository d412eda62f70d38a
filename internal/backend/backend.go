// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package backend implements the generation backends. Each provider
// (OpenAI, Anthropic, Gemini) satisfies the same Backend contract per the
// Strategy pattern; the pipeline never inspects provider identity.
package backend

import (
	"context"
	"fmt"
	"net/http"

	"github.com/pdiddy/draft-engine/pkg/types"
)

// Generation is the normalized result of one backend call.
type Generation struct {
	// Text is the generated draft text.
	Text string

	// Model is the concrete model identifier reported by the API.
	Model string

	// InputTokens and OutputTokens are the usage counts reported by the API.
	InputTokens  int
	OutputTokens int

	// Cost is the estimated call cost in USD, from the provider price table.
	Cost float64
}

// Tokens returns the total token usage for the call.
func (g Generation) Tokens() int {
	return g.InputTokens + g.OutputTokens
}

// Backend generates one draft per request. Implementations must honor
// context cancellation so abandoned calls stop promptly.
type Backend interface {
	Name() string
	Generate(ctx context.Context, req types.GenerationRequest) (Generation, error)
}

// New builds a backend from its configuration. The shared HTTP settings
// apply to providers called over plain HTTP.
func New(cfg types.BackendConfig, httpCfg types.HTTPConfig) (Backend, error) {
	if cfg.Name == "" {
		return nil, fmt.Errorf("backend name is required")
	}

	switch cfg.Provider {
	case types.ProviderOpenAI:
		return newOpenAIBackend(cfg)
	case types.ProviderAnthropic:
		return newAnthropicBackend(cfg, httpCfg)
	case types.ProviderGemini:
		return newGeminiBackend(cfg, httpCfg)
	case types.ProviderMock:
		return &Mock{BackendName: cfg.Name, Model: cfg.Model, Text: mockDryRunText}, nil
	default:
		return nil, fmt.Errorf("unknown backend provider %q", cfg.Provider)
	}
}

// NewAll builds every configured backend, preserving configuration order.
// Dispatch order (and therefore selection tie-breaking) follows this order.
func NewAll(cfgs []types.BackendConfig, httpCfg types.HTTPConfig) ([]Backend, error) {
	if len(cfgs) == 0 {
		return nil, fmt.Errorf("no generation backends configured")
	}

	backends := make([]Backend, 0, len(cfgs))
	seen := make(map[string]bool)
	for _, cfg := range cfgs {
		if seen[cfg.Name] {
			return nil, fmt.Errorf("duplicate backend name %q", cfg.Name)
		}
		seen[cfg.Name] = true

		b, err := New(cfg, httpCfg)
		if err != nil {
			return nil, fmt.Errorf("backend %s: %w", cfg.Name, err)
		}
		backends = append(backends, b)
	}
	return backends, nil
}

// httpClient returns a client honoring the configured timeout. The per-call
// context still bounds each request; the client timeout is a backstop.
func httpClient(httpCfg types.HTTPConfig) *http.Client {
	return &http.Client{Timeout: httpCfg.Timeout}
}

// systemMessage is the shared system prompt for conversational providers.
const systemMessage = "You are a thoughtful technology analyst and writer."
