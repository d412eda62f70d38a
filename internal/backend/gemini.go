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

// geminiAPIBase is the Generative Language API root. Declared as a var so
// tests can substitute an httptest server.
var geminiAPIBase = "https://generativelanguage.googleapis.com/v1beta"

// geminiBackend calls the Google generateContent API over plain HTTP.
type geminiBackend struct {
	name       string
	model      string
	apiKey     string
	baseURL    string
	maxRetries int
	userAgent  string
	client     *http.Client
}

func newGeminiBackend(cfg types.BackendConfig, httpCfg types.HTTPConfig) (*geminiBackend, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("Google API key required")
	}
	if cfg.Model == "" {
		return nil, fmt.Errorf("model identifier required")
	}

	base := cfg.BaseURL
	if base == "" {
		base = geminiAPIBase
	}

	return &geminiBackend{
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
func (b *geminiBackend) Name() string { return b.name }

type geminiRequest struct {
	Contents         []geminiContent `json:"contents"`
	GenerationConfig geminiGenConfig `json:"generationConfig"`
}

type geminiContent struct {
	Parts []geminiPart `json:"parts"`
}

type geminiPart struct {
	Text string `json:"text"`
}

type geminiGenConfig struct {
	Temperature     float64 `json:"temperature,omitempty"`
	MaxOutputTokens int     `json:"maxOutputTokens,omitempty"`
}

type geminiResponse struct {
	Candidates []struct {
		Content struct {
			Parts []geminiPart `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
	UsageMetadata struct {
		PromptTokenCount     int `json:"promptTokenCount"`
		CandidatesTokenCount int `json:"candidatesTokenCount"`
	} `json:"usageMetadata"`
	Error *struct {
		Message string `json:"message"`
		Status  string `json:"status"`
	} `json:"error"`
}

// Generate sends one generateContent request and normalizes the response.
func (b *geminiBackend) Generate(ctx context.Context, req types.GenerationRequest) (Generation, error) {
	body := geminiRequest{
		Contents: []geminiContent{
			{Parts: []geminiPart{{Text: systemMessage + "\n\n" + req.Prompt}}},
		},
		GenerationConfig: geminiGenConfig{
			Temperature:     req.Temperature,
			MaxOutputTokens: req.MaxTokens,
		},
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return Generation{}, fmt.Errorf("encoding request: %w", err)
	}

	url := fmt.Sprintf("%s/models/%s:generateContent?key=%s", b.baseURL, b.model, b.apiKey)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return Generation{}, fmt.Errorf("creating request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if b.userAgent != "" {
		httpReq.Header.Set("User-Agent", b.userAgent)
	}

	resp, err := httputil.DoWithRetry(ctx, b.client, httpReq, b.maxRetries)
	if err != nil {
		return Generation{}, fmt.Errorf("Gemini API request: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return Generation{}, fmt.Errorf("reading response: %w", err)
	}

	var parsed geminiResponse
	if err := json.Unmarshal(data, &parsed); err != nil {
		return Generation{}, fmt.Errorf("parsing Gemini response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		if parsed.Error != nil {
			return Generation{}, fmt.Errorf("Gemini API %s: %s", parsed.Error.Status, parsed.Error.Message)
		}
		return Generation{}, fmt.Errorf("Gemini API returned HTTP %d", resp.StatusCode)
	}

	if len(parsed.Candidates) == 0 || len(parsed.Candidates[0].Content.Parts) == 0 {
		return Generation{}, fmt.Errorf("Gemini API returned no candidates")
	}

	var text string
	for _, part := range parsed.Candidates[0].Content.Parts {
		text += part.Text
	}

	in := parsed.UsageMetadata.PromptTokenCount
	out := parsed.UsageMetadata.CandidatesTokenCount
	if in == 0 && out == 0 {
		out = estimateTokens(text)
	}
	return Generation{
		Text:         text,
		Model:        b.model,
		InputTokens:  in,
		OutputTokens: out,
		Cost:         estimateCost(b.model, in, out),
	}, nil
}
