package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/sashabaranov/go-openai"
	"go.uber.org/zap"
)

// ProviderConfig holds the settings shared by provider adapters. Model
// and sampling parameters are fixed per server configuration.
type ProviderConfig struct {
	BaseURL     string // Optional override for OpenAI-compatible endpoints
	Model       string
	APIKey      string
	Temperature float64
	MaxTokens   int
}

// OpenAIProvider forwards conversations to an OpenAI-compatible chat
// completion endpoint.
type OpenAIProvider struct {
	client    *openai.Client
	model     string
	temp      float32
	maxTokens int
	logger    *zap.Logger
}

// NewOpenAIProvider creates an adapter for OpenAI-compatible endpoints.
func NewOpenAIProvider(cfg *ProviderConfig, logger *zap.Logger) (*OpenAIProvider, error) {
	if cfg.Model == "" {
		return nil, fmt.Errorf("model is required")
	}

	clientConfig := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientConfig.BaseURL = strings.TrimSuffix(cfg.BaseURL, "/")
	}

	return &OpenAIProvider{
		client:    openai.NewClientWithConfig(clientConfig),
		model:     cfg.Model,
		temp:      float32(cfg.Temperature),
		maxTokens: cfg.MaxTokens,
		logger:    logger.Named("openai"),
	}, nil
}

// Name implements CompletionProvider.
func (p *OpenAIProvider) Name() string { return "openai" }

// Complete implements CompletionProvider. An empty completion returns
// ("", nil); the caller decides the fallback text.
func (p *OpenAIProvider) Complete(ctx context.Context, messages []ChatMessage) (string, error) {
	req := openai.ChatCompletionRequest{
		Model:       p.model,
		Temperature: p.temp,
		MaxTokens:   p.maxTokens,
		Messages:    make([]openai.ChatCompletionMessage, len(messages)),
	}
	for i, m := range messages {
		req.Messages[i] = openai.ChatCompletionMessage{Role: m.Role, Content: m.Content}
	}

	resp, err := p.client.CreateChatCompletion(ctx, req)
	if err != nil {
		p.logger.Error("completion failed", zap.Error(err))
		return "", p.classify(err)
	}

	if len(resp.Choices) == 0 {
		return "", nil
	}
	return resp.Choices[0].Message.Content, nil
}

// classify maps go-openai errors onto the proxy error taxonomy.
func (p *OpenAIProvider) classify(err error) *Error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return classifyProviderStatus(apiErr.HTTPStatusCode, apiErr.Message, err)
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return classifyProviderStatus(reqErr.HTTPStatusCode, reqErr.Error(), err)
	}
	return ClassifyTransport(err)
}
