// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package backend

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/draft-engine/pkg/types"
)

func TestNew_UnknownProvider(t *testing.T) {
	_, err := New(types.BackendConfig{Name: "x", Provider: "watson"}, types.HTTPConfig{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown backend provider")
}

func TestNew_RequiresName(t *testing.T) {
	_, err := New(types.BackendConfig{Provider: types.ProviderMock}, types.HTTPConfig{})
	assert.Error(t, err)
}

func TestNew_RequiresAPIKey(t *testing.T) {
	for _, provider := range []types.BackendProvider{types.ProviderAnthropic, types.ProviderGemini} {
		_, err := New(types.BackendConfig{Name: "x", Provider: provider, Model: "m"}, types.HTTPConfig{})
		assert.Error(t, err, "provider %s", provider)
	}
}

func TestNewAll_PreservesOrder(t *testing.T) {
	cfgs := []types.BackendConfig{
		{Name: "first", Provider: types.ProviderMock, Model: "m1"},
		{Name: "second", Provider: types.ProviderMock, Model: "m2"},
		{Name: "third", Provider: types.ProviderMock, Model: "m3"},
	}
	backends, err := NewAll(cfgs, types.HTTPConfig{})
	require.NoError(t, err)
	require.Len(t, backends, 3)
	assert.Equal(t, "first", backends[0].Name())
	assert.Equal(t, "second", backends[1].Name())
	assert.Equal(t, "third", backends[2].Name())
}

func TestNewAll_RejectsDuplicateNames(t *testing.T) {
	cfgs := []types.BackendConfig{
		{Name: "same", Provider: types.ProviderMock},
		{Name: "same", Provider: types.ProviderMock},
	}
	_, err := NewAll(cfgs, types.HTTPConfig{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate backend name")
}

func TestNewAll_Empty(t *testing.T) {
	_, err := NewAll(nil, types.HTTPConfig{})
	assert.Error(t, err)
}

func TestMockFromConfig_GeneratesScorableText(t *testing.T) {
	b, err := New(types.BackendConfig{Name: "dry", Provider: types.ProviderMock, Model: "mock-1"}, types.HTTPConfig{})
	require.NoError(t, err)

	gen, err := b.Generate(context.Background(), types.GenerationRequest{Prompt: "anything"})
	require.NoError(t, err)
	assert.NotEmpty(t, gen.Text)
	assert.Greater(t, gen.Tokens(), 0)
}

func TestAnthropicBackend_Generate(t *testing.T) {
	var gotAuth, gotVersion string
	var gotReq anthropicRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("x-api-key")
		gotVersion = r.Header.Get("anthropic-version")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotReq))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"model": "claude-sonnet-4-20250514",
			"content": [{"type": "text", "text": "Part one. "}, {"type": "text", "text": "Part two."}],
			"usage": {"input_tokens": 120, "output_tokens": 80}
		}`))
	}))
	defer server.Close()

	b, err := newAnthropicBackend(types.BackendConfig{
		Name: "claude", Provider: types.ProviderAnthropic,
		Model: "claude-sonnet-4-20250514", APIKey: "test-key", BaseURL: server.URL,
	}, types.HTTPConfig{Timeout: 5 * time.Second})
	require.NoError(t, err)

	gen, err := b.Generate(context.Background(), types.GenerationRequest{Prompt: "write about caching", Temperature: 0.7})
	require.NoError(t, err)

	assert.Equal(t, "test-key", gotAuth)
	assert.Equal(t, anthropicVersion, gotVersion)
	assert.Equal(t, "write about caching", gotReq.Messages[0].Content)
	assert.Equal(t, 2000, gotReq.MaxTokens)
	assert.InDelta(t, 0.7, gotReq.Temperature, 1e-9)

	assert.Equal(t, "Part one. Part two.", gen.Text)
	assert.Equal(t, "claude-sonnet-4-20250514", gen.Model)
	assert.Equal(t, 200, gen.Tokens())
	assert.InDelta(t, 120*0.003/1000+80*0.015/1000, gen.Cost, 1e-9)
}

func TestAnthropicBackend_APIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error": {"type": "invalid_request_error", "message": "max_tokens required"}}`))
	}))
	defer server.Close()

	b, err := newAnthropicBackend(types.BackendConfig{
		Name: "claude", Model: "claude-sonnet-4-20250514", APIKey: "k", BaseURL: server.URL,
	}, types.HTTPConfig{})
	require.NoError(t, err)

	_, err = b.Generate(context.Background(), types.GenerationRequest{Prompt: "p"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid_request_error")
	assert.Contains(t, err.Error(), "max_tokens required")
}

func TestAnthropicBackend_EmptyContent(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"content": [], "usage": {"input_tokens": 1, "output_tokens": 0}}`))
	}))
	defer server.Close()

	b, err := newAnthropicBackend(types.BackendConfig{
		Name: "claude", Model: "m", APIKey: "k", BaseURL: server.URL,
	}, types.HTTPConfig{})
	require.NoError(t, err)

	_, err = b.Generate(context.Background(), types.GenerationRequest{Prompt: "p"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no text content")
}

func TestOpenAIBackend_Generate(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"id": "chatcmpl-1",
			"model": "gpt-4.1",
			"choices": [{"index": 0, "message": {"role": "assistant", "content": "OpenAI draft."}, "finish_reason": "stop"}],
			"usage": {"prompt_tokens": 40, "completion_tokens": 25, "total_tokens": 65}
		}`))
	}))
	defer server.Close()

	b, err := newOpenAIBackend(types.BackendConfig{
		Name: "gpt", Model: "gpt-4.1", APIKey: "k", BaseURL: server.URL,
	})
	require.NoError(t, err)

	gen, err := b.Generate(context.Background(), types.GenerationRequest{Prompt: "p", Temperature: 0.8, MaxTokens: 800})
	require.NoError(t, err)
	assert.Equal(t, "OpenAI draft.", gen.Text)
	assert.Equal(t, "gpt-4.1", gen.Model)
	assert.Equal(t, 65, gen.Tokens())
	assert.InDelta(t, 40*0.002/1000+25*0.008/1000, gen.Cost, 1e-9)
}

func TestGeminiBackend_Generate(t *testing.T) {
	var gotPath, gotKey string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotKey = r.URL.Query().Get("key")
		w.Write([]byte(`{
			"candidates": [{"content": {"parts": [{"text": "Gemini draft text."}]}}],
			"usageMetadata": {"promptTokenCount": 50, "candidatesTokenCount": 30}
		}`))
	}))
	defer server.Close()

	b, err := newGeminiBackend(types.BackendConfig{
		Name: "gemini", Model: "gemini-2.5-pro", APIKey: "g-key", BaseURL: server.URL,
	}, types.HTTPConfig{})
	require.NoError(t, err)

	gen, err := b.Generate(context.Background(), types.GenerationRequest{Prompt: "p"})
	require.NoError(t, err)

	assert.Equal(t, "/models/gemini-2.5-pro:generateContent", gotPath)
	assert.Equal(t, "g-key", gotKey)
	assert.Equal(t, "Gemini draft text.", gen.Text)
	assert.Equal(t, 80, gen.Tokens())
}

func TestGeminiBackend_EstimatesMissingUsage(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"candidates": [{"content": {"parts": [{"text": "twelve chars"}]}}]}`))
	}))
	defer server.Close()

	b, err := newGeminiBackend(types.BackendConfig{
		Name: "gemini", Model: "m", APIKey: "k", BaseURL: server.URL,
	}, types.HTTPConfig{})
	require.NoError(t, err)

	gen, err := b.Generate(context.Background(), types.GenerationRequest{Prompt: "p"})
	require.NoError(t, err)
	assert.Equal(t, estimateTokens("twelve chars"), gen.Tokens())
}

func TestGeminiBackend_NoCandidates(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"candidates": []}`))
	}))
	defer server.Close()

	b, err := newGeminiBackend(types.BackendConfig{
		Name: "gemini", Model: "m", APIKey: "k", BaseURL: server.URL,
	}, types.HTTPConfig{})
	require.NoError(t, err)

	_, err = b.Generate(context.Background(), types.GenerationRequest{Prompt: "p"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no candidates")
}

func TestEstimateCost(t *testing.T) {
	tests := []struct {
		model   string
		in, out int
		want    float64
	}{
		{"claude-sonnet-4-20250514", 1000, 1000, 0.003 + 0.015},
		{"gpt-4.1", 1000, 1000, 0.002 + 0.008},
		{"unknown-model", 1000, 1000, 0},
	}
	for _, tt := range tests {
		assert.InDelta(t, tt.want, estimateCost(tt.model, tt.in, tt.out), 1e-9, tt.model)
	}
}

func TestEstimateTokens(t *testing.T) {
	assert.Equal(t, 3, estimateTokens("twelve chars"))
	assert.Equal(t, 0, estimateTokens(""))
}

func TestMock_ResponsesSequence(t *testing.T) {
	m := &Mock{BackendName: "m", Responses: []string{"first", "second"}}
	ctx := context.Background()

	for _, want := range []string{"first", "second", "second"} {
		gen, err := m.Generate(ctx, types.GenerationRequest{})
		require.NoError(t, err)
		assert.Equal(t, want, gen.Text)
	}
	assert.Equal(t, 3, m.Calls())
}

func TestMock_DelayHonorsCancellation(t *testing.T) {
	m := &Mock{BackendName: "m", Text: "t", Delay: time.Second}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, err := m.Generate(ctx, types.GenerationRequest{})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, time.Since(start), 500*time.Millisecond)
}
