// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/pdiddy/draft-engine/internal/httputil"
	"github.com/pdiddy/draft-engine/pkg/types"
)

// anthropicAPIBase is the Anthropic messages endpoint. Declared as a var so
// tests can substitute an httptest server.
var anthropicAPIBase = "https://api.anthropic.com/v1/messages"

const anthropicVersion = "2023-06-01"

// anthropicBackend calls the Anthropic messages API over plain HTTP.
type anthropicBackend struct {
	name       string
	model      string
	apiKey     string
	baseURL    string
	maxRetries int
	userAgent  string
	client     *http.Client
}

func newAnthropicBackend(cfg types.BackendConfig, httpCfg types.HTTPConfig) (*anthropicBackend, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("Anthropic API key required")
	}
	if cfg.Model == "" {
		return nil, fmt.Errorf("model identifier required")
	}

	base := cfg.BaseURL
	if base == "" {
		base = anthropicAPIBase
	}

	return &anthropicBackend{
		name:       cfg.Name,
		model:      cfg.Model,
		apiKey:     cfg.APIKey,
		baseURL:    base,
		maxRetries: cfg.MaxRetries,
		userAgent:  httpCfg.UserAgent,
		client:     httpClient(httpCfg),
	}, nil
}

// Name returns the backend identifier.
func (b *anthropicBackend) Name() string { return b.name }

type anthropicRequest struct {
	Model       string             `json:"model"`
	MaxTokens   int                `json:"max_tokens"`
	Temperature float64            `json:"temperature,omitempty"`
	System      string             `json:"system,omitempty"`
	Messages    []anthropicMessage `json:"messages"`
}

type anthropicMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type anthropicResponse struct {
	Model   string `json:"model"`
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	Usage struct {
		InputTokens  int `json:"input_tokens"`
		OutputTokens int `json:"output_tokens"`
	} `json:"usage"`
	Error *struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error"`
}

// Generate sends one messages request and normalizes the response.
func (b *anthropicBackend) Generate(ctx context.Context, req types.GenerationRequest) (Generation, error) {
	maxTokens := req.MaxTokens
	if maxTokens <= 0 {
		maxTokens = 2000
	}

	body := anthropicRequest{
		Model:       b.model,
		MaxTokens:   maxTokens,
		Temperature: req.Temperature,
		System:      systemMessage,
		Messages:    []anthropicMessage{{Role: "user", Content: req.Prompt}},
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return Generation{}, fmt.Errorf("encoding request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, b.baseURL, bytes.NewReader(payload))
	if err != nil {
		return Generation{}, fmt.Errorf("creating request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-api-key", b.apiKey)
	httpReq.Header.Set("anthropic-version", anthropicVersion)
	if b.userAgent != "" {
		httpReq.Header.Set("User-Agent", b.userAgent)
	}

	resp, err := httputil.DoWithRetry(ctx, b.client, httpReq, b.maxRetries)
	if err != nil {
		return Generation{}, fmt.Errorf("Anthropic API request: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return Generation{}, fmt.Errorf("reading response: %w", err)
	}

	var parsed anthropicResponse
	if err := json.Unmarshal(data, &parsed); err != nil {
		return Generation{}, fmt.Errorf("parsing Anthropic response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		if parsed.Error != nil {
			return Generation{}, fmt.Errorf("Anthropic API %s: %s", parsed.Error.Type, parsed.Error.Message)
		}
		return Generation{}, fmt.Errorf("Anthropic API returned HTTP %d", resp.StatusCode)
	}

	var text string
	for _, block := range parsed.Content {
		if block.Type == "text" {
			text += block.Text
		}
	}
	if text == "" {
		return Generation{}, fmt.Errorf("Anthropic API returned no text content")
	}

	model := parsed.Model
	if model == "" {
		model = b.model
	}
	return Generation{
		Text:         text,
		Model:        model,
		InputTokens:  parsed.Usage.InputTokens,
		OutputTokens: parsed.Usage.OutputTokens,
		Cost:         estimateCost(b.model, parsed.Usage.InputTokens, parsed.Usage.OutputTokens),
	}, nil
}
