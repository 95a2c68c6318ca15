package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"
)

// Client posts conversation turns to the chat proxy endpoint. The model
// identifier and sampling parameters are fixed at construction; callers
// only supply the ordered message list.
type Client struct {
	httpClient  *http.Client
	endpoint    string
	model       string
	temperature float64
	maxTokens   int
	logger      *zap.Logger
}

// Config holds configuration for creating a proxy client.
type Config struct {
	Endpoint    string        // Proxy URL, e.g. "http://localhost:8080/api/chat"
	Model       string        // Fixed model identifier sent on every request
	Temperature float64       // Fixed sampling temperature
	MaxTokens   int           // Fixed completion token cap
	Timeout     time.Duration // Transport timeout; 0 means 60s
}

// chatRequest is the outbound body. The proxy reads messages and keeps
// the fixed parameters authoritative server-side.
type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []ChatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens"`
}

type chatResponse struct {
	Message string `json:"message"`
}

type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// NewClient creates a new chat proxy client.
func NewClient(cfg *Config, logger *zap.Logger) (*Client, error) {
	if cfg.Endpoint == "" {
		return nil, fmt.Errorf("endpoint is required")
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 60 * time.Second
	}
	return &Client{
		httpClient:  &http.Client{Timeout: timeout},
		endpoint:    cfg.Endpoint,
		model:       cfg.Model,
		temperature: cfg.Temperature,
		maxTokens:   cfg.MaxTokens,
		logger:      logger.Named("llm"),
	}, nil
}

// Send posts the ordered messages to the proxy and returns the reply
// text. Failures come back as *Error values: transport problems map to
// upstream-unavailable, non-2xx responses are classified from the status
// and the body's error code.
func (c *Client) Send(ctx context.Context, messages []ChatMessage) (string, error) {
	body, err := json.Marshal(chatRequest{
		Model:       c.model,
		Messages:    messages,
		Temperature: c.temperature,
		MaxTokens:   c.maxTokens,
	})
	if err != nil {
		return "", NewError(CategoryBadRequest, "could not encode request", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return "", NewError(CategoryBadRequest, "could not build request", err)
	}
	req.Header.Set("Content-Type", "application/json")

	c.logger.Debug("proxy request",
		zap.String("model", c.model),
		zap.Int("messages", len(messages)))

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error("proxy request failed",
			zap.Duration("elapsed", time.Since(start)),
			zap.Error(err))
		return "", ClassifyTransport(err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var errResp errorResponse
		_ = json.NewDecoder(resp.Body).Decode(&errResp)
		classified := ClassifyStatus(resp.StatusCode, errResp.Error, errResp.Message)
		c.logger.Warn("proxy returned error",
			zap.Int("status", resp.StatusCode),
			zap.String("category", string(classified.Category)))
		return "", classified
	}

	var okResp chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&okResp); err != nil {
		return "", NewError(CategoryUnknown, "could not decode reply", err)
	}

	c.logger.Debug("proxy request completed",
		zap.Duration("elapsed", time.Since(start)),
		zap.Int("reply_len", len(okResp.Message)))

	return okResp.Message, nil
}
