// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package backend

import (
	"context"
	"fmt"

	openai "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/pdiddy/draft-engine/pkg/types"
)

// openaiBackend generates drafts through the official openai-go SDK
// (chat completions).
type openaiBackend struct {
	name   string
	model  string
	client openai.Client
}

func newOpenAIBackend(cfg types.BackendConfig) (*openaiBackend, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("OpenAI API key required")
	}
	if cfg.Model == "" {
		return nil, fmt.Errorf("model identifier required")
	}

	opts := []option.RequestOption{option.WithAPIKey(cfg.APIKey)}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	if cfg.MaxRetries > 0 {
		opts = append(opts, option.WithMaxRetries(cfg.MaxRetries))
	}

	return &openaiBackend{
		name:   cfg.Name,
		model:  cfg.Model,
		client: openai.NewClient(opts...),
	}, nil
}

// Name returns the backend identifier.
func (b *openaiBackend) Name() string { return b.name }

// Generate sends one chat-completion request and normalizes the response.
func (b *openaiBackend) Generate(ctx context.Context, req types.GenerationRequest) (Generation, error) {
	params := openai.ChatCompletionNewParams{
		Model: openai.ChatModel(b.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(systemMessage),
			openai.UserMessage(req.Prompt),
		},
	}
	if req.Temperature > 0 {
		params.Temperature = openai.Float(req.Temperature)
	}
	if req.MaxTokens > 0 {
		params.MaxTokens = openai.Int(int64(req.MaxTokens))
	}

	resp, err := b.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return Generation{}, fmt.Errorf("openai chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return Generation{}, fmt.Errorf("openai: empty choices")
	}

	in := int(resp.Usage.PromptTokens)
	out := int(resp.Usage.CompletionTokens)
	return Generation{
		Text:         resp.Choices[0].Message.Content,
		Model:        resp.Model,
		InputTokens:  in,
		OutputTokens: out,
		Cost:         estimateCost(b.model, in, out),
	}, nil
}
