// Package llm provides the chat-proxy client, its error taxonomy, and the
// upstream completion provider adapters used by the proxy service.
package llm

import "context"

// ChatMessage is the wire shape of one conversation turn, used both on
// the client-to-proxy request and the proxy-to-provider request.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatClient sends an ordered message list through the chat proxy and
// returns the assistant's reply text. Failures are *Error values carrying
// a Category. Use this interface for dependency injection to enable
// mocking in tests.
type ChatClient interface {
	Send(ctx context.Context, messages []ChatMessage) (string, error)
}

// CompletionProvider is the proxy service's boundary to the external
// completion API. An empty reply with a nil error means the provider
// returned no completion text; the service substitutes its fallback.
type CompletionProvider interface {
	// Complete forwards the ordered messages and returns the reply text.
	Complete(ctx context.Context, messages []ChatMessage) (string, error)

	// Name returns the adapter name for logging.
	Name() string
}

// Ensure implementations satisfy the interfaces at compile time.
var (
	_ ChatClient         = (*Client)(nil)
	_ CompletionProvider = (*OpenAIProvider)(nil)
	_ CompletionProvider = (*AnthropicProvider)(nil)
)
