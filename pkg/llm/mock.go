package llm

import "context"

// MockChatClient is a configurable mock for testing conversation
// functionality. Set SendFunc to control behavior in tests.
type MockChatClient struct {
	// SendFunc is called when Send is invoked. If nil, returns "" and nil.
	SendFunc func(ctx context.Context, messages []ChatMessage) (string, error)

	// Call tracking for verification
	SendCalls    int
	LastMessages []ChatMessage
}

// Send implements ChatClient.
func (m *MockChatClient) Send(ctx context.Context, messages []ChatMessage) (string, error) {
	m.SendCalls++
	m.LastMessages = messages
	if m.SendFunc != nil {
		return m.SendFunc(ctx, messages)
	}
	return "", nil
}

// MockCompletionProvider is a configurable mock for testing the proxy
// service handler.
type MockCompletionProvider struct {
	// CompleteFunc is called when Complete is invoked. If nil, returns
	// "" and nil.
	CompleteFunc func(ctx context.Context, messages []ChatMessage) (string, error)

	// Call tracking for verification
	CompleteCalls int
	LastMessages  []ChatMessage
}

// Complete implements CompletionProvider.
func (m *MockCompletionProvider) Complete(ctx context.Context, messages []ChatMessage) (string, error) {
	m.CompleteCalls++
	m.LastMessages = messages
	if m.CompleteFunc != nil {
		return m.CompleteFunc(ctx, messages)
	}
	return "", nil
}

// Name implements CompletionProvider.
func (m *MockCompletionProvider) Name() string { return "mock" }
