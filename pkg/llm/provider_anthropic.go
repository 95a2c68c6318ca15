package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/liushuangls/go-anthropic/v2"
	"go.uber.org/zap"
)

// AnthropicProvider forwards conversations to the Anthropic Messages API.
type AnthropicProvider struct {
	client    *anthropic.Client
	model     string
	temp      float32
	maxTokens int
	logger    *zap.Logger
}

// NewAnthropicProvider creates an adapter for the Anthropic API.
func NewAnthropicProvider(cfg *ProviderConfig, logger *zap.Logger) (*AnthropicProvider, error) {
	if cfg.Model == "" {
		return nil, fmt.Errorf("model is required")
	}
	return &AnthropicProvider{
		client:    anthropic.NewClient(cfg.APIKey),
		model:     cfg.Model,
		temp:      float32(cfg.Temperature),
		maxTokens: cfg.MaxTokens,
		logger:    logger.Named("anthropic"),
	}, nil
}

// Name implements CompletionProvider.
func (p *AnthropicProvider) Name() string { return "anthropic" }

// Complete implements CompletionProvider. System turns become the request
// System field; the Messages API only accepts user/assistant turns.
func (p *AnthropicProvider) Complete(ctx context.Context, messages []ChatMessage) (string, error) {
	var system []string
	turns := make([]anthropic.Message, 0, len(messages))
	for _, m := range messages {
		switch m.Role {
		case "system":
			system = append(system, m.Content)
		case "assistant":
			turns = append(turns, anthropic.NewAssistantTextMessage(m.Content))
		default:
			turns = append(turns, anthropic.NewUserTextMessage(m.Content))
		}
	}

	temp := p.temp
	resp, err := p.client.CreateMessages(ctx, anthropic.MessagesRequest{
		Model:       anthropic.Model(p.model),
		System:      strings.Join(system, "\n\n"),
		Messages:    turns,
		MaxTokens:   p.maxTokens,
		Temperature: &temp,
	})
	if err != nil {
		p.logger.Error("completion failed", zap.Error(err))
		return "", p.classify(err)
	}

	return resp.GetFirstContentText(), nil
}

// classify maps go-anthropic errors onto the proxy error taxonomy.
func (p *AnthropicProvider) classify(err error) *Error {
	var reqErr *anthropic.RequestError
	if errors.As(err, &reqErr) {
		return classifyProviderStatus(reqErr.StatusCode, reqErr.Error(), err)
	}
	var apiErr *anthropic.APIError
	if errors.As(err, &apiErr) {
		return classifyProviderStatus(anthropicStatus(apiErr), apiErr.Message, err)
	}
	return ClassifyTransport(err)
}

// anthropicStatus maps Anthropic error types onto HTTP statuses when the
// transport layer did not surface one.
func anthropicStatus(apiErr *anthropic.APIError) int {
	switch {
	case apiErr.IsAuthenticationErr():
		return http.StatusUnauthorized
	case apiErr.IsRateLimitErr():
		return http.StatusTooManyRequests
	case apiErr.IsInvalidRequestErr():
		return http.StatusBadRequest
	case apiErr.IsApiErr(), apiErr.IsOverloadedErr():
		return http.StatusInternalServerError
	}
	return 0
}
