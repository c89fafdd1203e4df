package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"
)

type openAIConfig struct {
	APIKey  string `json:"api_key"`
	BaseURL string `json:"base_url"`
}

// openAIProvider also serves any OpenAI-compatible endpoint via base_url.
type openAIProvider struct {
	apiKey  string
	baseURL string
}

func init() {
	Register("openai", func(args interface{}) (IProvider, error) {
		cfg := &openAIConfig{}
		data, err := json.Marshal(args)
		if err != nil {
			return nil, fmt.Errorf("encode openai config: %w", err)
		}
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("decode openai config: %w", err)
		}
		return &openAIProvider{apiKey: cfg.APIKey, baseURL: cfg.BaseURL}, nil
	})
}

func (p *openAIProvider) Name() string {
	return "openai"
}

func (p *openAIProvider) client() *openai.Client {
	cfg := openai.DefaultConfig(p.apiKey)
	if p.baseURL != "" {
		cfg.BaseURL = p.baseURL
	}
	return openai.NewClientWithConfig(cfg)
}

func (p *openAIProvider) Generate(ctx context.Context, model string, prompt string) (string, error) {
	if p.apiKey == "" {
		return "", ErrUnavailable
	}
	resp, err := p.client().CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
	})
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("openai returned no choices")
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

func (p *openAIProvider) Embed(ctx context.Context, model string, text string, taskType string) ([]float32, error) {
	_ = taskType // openai embeddings are task-agnostic
	if p.apiKey == "" {
		return nil, ErrUnavailable
	}
	resp, err := p.client().CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Model: openai.EmbeddingModel(model),
		Input: []string{text},
	})
	if err != nil {
		return nil, err
	}
	if len(resp.Data) == 0 {
		return nil, fmt.Errorf("openai returned no embedding")
	}
	return resp.Data[0].Embedding, nil
}
