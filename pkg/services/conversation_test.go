package services

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/optiflow-ai/optiflow-engine/pkg/apperrors"
	"github.com/optiflow-ai/optiflow-engine/pkg/llm"
	"github.com/optiflow-ai/optiflow-engine/pkg/models"
)

func testDataset() *models.TabularDataset {
	return &models.TabularDataset{
		SourceName: "sales.csv",
		SizeBytes:  64,
		Headers:    []string{"date", "sku", "qty"},
		Rows:       [][]string{{"2024-01-01", "SKU-1", "10"}},
	}
}

func newTestEngine(client llm.ChatClient, createModel CreateModelFunc) *ConversationEngine {
	if createModel == nil {
		createModel = func(models.OptimizationType, *models.TabularDataset) CreateModelResult {
			return CreateModelResult{Success: true}
		}
	}
	return NewConversationEngine(NewConversationState(), client, NewCreationGuard(), createModel, zap.NewNop())
}

func TestSubmitUserMessage_AppendsUserAndAssistantTurns(t *testing.T) {
	client := &llm.MockChatClient{
		SendFunc: func(ctx context.Context, messages []llm.ChatMessage) (string, error) {
			return "try price optimization", nil
		},
	}
	e := newTestEngine(client, nil)

	msg, err := e.SubmitUserMessage(context.Background(), "what should I optimize?")
	require.NoError(t, err)
	assert.Equal(t, models.ChatRoleAssistant, msg.Role)
	assert.Equal(t, "try price optimization", msg.Content)

	history := e.History()
	require.Len(t, history, 2)
	assert.Equal(t, models.ChatRoleUser, history[0].Role)
	assert.Equal(t, "what should I optimize?", history[0].Content)
	assert.Equal(t, int64(1), history[0].ID)
	assert.Equal(t, int64(2), history[1].ID)
	assert.False(t, e.AwaitingReply())
}

func TestSubmitUserMessage_RejectsBlankText(t *testing.T) {
	client := &llm.MockChatClient{}
	e := newTestEngine(client, nil)

	for _, text := range []string{"", "   ", "\n\t"} {
		_, err := e.SubmitUserMessage(context.Background(), text)
		assert.True(t, errors.Is(err, apperrors.ErrEmptyMessage))
	}
	assert.Equal(t, 0, client.SendCalls)
	assert.Empty(t, e.History())
}

func TestSubmitUserMessage_PayloadOrderingAndSystemPrompt(t *testing.T) {
	client := &llm.MockChatClient{}
	replies := []string{"first reply", "second reply"}
	client.SendFunc = func(ctx context.Context, messages []llm.ChatMessage) (string, error) {
		return replies[client.SendCalls-1], nil
	}
	e := newTestEngine(client, nil)
	e.RecordUpload(testDataset())

	_, err := e.SubmitUserMessage(context.Background(), "price")
	require.NoError(t, err)
	_, err = e.SubmitUserMessage(context.Background(), "trend")
	require.NoError(t, err)

	payload := client.LastMessages
	require.Len(t, payload, 4)

	// System message first, synthesized fresh, with every header verbatim.
	assert.Equal(t, "system", payload[0].Role)
	for _, header := range []string{"date", "sku", "qty"} {
		assert.Contains(t, payload[0].Content, header)
	}

	// Then prior turns in call order; the upload notice and the analysis
	// announcement never reach the provider.
	assert.Equal(t, []llm.ChatMessage{
		{Role: "user", Content: "price"},
		{Role: "assistant", Content: "first reply"},
		{Role: "user", Content: "trend"},
	}, payload[1:])

	// The visible log still holds the annotation turns.
	history := e.History()
	require.Len(t, history, 6)
	assert.Equal(t, models.KindUploadNotice, history[0].Kind)
	assert.Equal(t, models.KindAnalysisNotice, history[1].Kind)
}

func TestSubmitUserMessage_BusyGateRejectsSecondSend(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	client := &llm.MockChatClient{
		SendFunc: func(ctx context.Context, messages []llm.ChatMessage) (string, error) {
			close(started)
			<-release
			return "done", nil
		},
	}
	e := newTestEngine(client, nil)

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, err := e.SubmitUserMessage(context.Background(), "slow question")
		assert.NoError(t, err)
	}()

	<-started
	assert.True(t, e.AwaitingReply())
	_, err := e.SubmitUserMessage(context.Background(), "impatient follow-up")
	assert.True(t, errors.Is(err, apperrors.ErrAwaitingReply))

	close(release)
	<-done

	// The rejected send left no trace; the slow one resolved normally.
	history := e.History()
	require.Len(t, history, 2)
	assert.Equal(t, "done", history[1].Content)
	assert.False(t, e.AwaitingReply())
}

func TestSubmitUserMessage_ErrorsBecomeDistinctReplies(t *testing.T) {
	categories := []llm.Category{
		llm.CategoryRateLimited,
		llm.CategoryUnauthorized,
		llm.CategoryUpstreamUnavailable,
	}

	replies := make(map[llm.Category]string)
	for _, category := range categories {
		cat := category
		client := &llm.MockChatClient{
			SendFunc: func(ctx context.Context, messages []llm.ChatMessage) (string, error) {
				return "", llm.NewError(cat, "provider detail that must stay hidden", nil)
			},
		}
		e := newTestEngine(client, nil)

		msg, err := e.SubmitUserMessage(context.Background(), "hello")
		require.NoError(t, err)
		assert.Equal(t, models.ChatRoleAssistant, msg.Role)
		assert.NotContains(t, msg.Content, "provider detail")
		assert.False(t, e.AwaitingReply())
		replies[cat] = msg.Content
	}

	assert.NotEqual(t, replies[llm.CategoryRateLimited], replies[llm.CategoryUnauthorized])
	assert.NotEqual(t, replies[llm.CategoryRateLimited], replies[llm.CategoryUpstreamUnavailable])
	assert.NotEqual(t, replies[llm.CategoryUnauthorized], replies[llm.CategoryUpstreamUnavailable])
}

func TestRecordUpload_IdempotentOnSameReference(t *testing.T) {
	e := newTestEngine(&llm.MockChatClient{}, nil)
	ds := testDataset()

	e.RecordUpload(ds)
	e.RecordUpload(ds)

	history := e.History()
	require.Len(t, history, 2)
	assert.Equal(t, models.KindUploadNotice, history[0].Kind)
	assert.Contains(t, history[0].Content, "sales.csv")
	assert.Equal(t, models.KindAnalysisNotice, history[1].Kind)
	assert.Same(t, ds, e.Dataset())
}

func TestRecordUpload_NewDatasetReplaces(t *testing.T) {
	e := newTestEngine(&llm.MockChatClient{}, nil)
	first := testDataset()
	second := &models.TabularDataset{SourceName: "returns.csv", Headers: []string{"id"}}

	e.RecordUpload(first)
	e.RecordUpload(second)

	assert.Same(t, second, e.Dataset())
	assert.Len(t, e.History(), 4)
}

func TestChooseOptimization_CreatesExactlyOnce(t *testing.T) {
	created := 0
	e := newTestEngine(&llm.MockChatClient{}, func(t models.OptimizationType, ds *models.TabularDataset) CreateModelResult {
		created++
		return CreateModelResult{Success: true}
	})

	msg, err := e.ChooseOptimization(models.OptimizationInventory, "")
	require.NoError(t, err)
	assert.Contains(t, msg.Content, "being created")

	msg, err = e.ChooseOptimization(models.OptimizationInventory, "")
	require.NoError(t, err)
	assert.Contains(t, msg.Content, "already have")

	assert.Equal(t, 1, created)
}

func TestChooseOptimization_RetryAfterFailure(t *testing.T) {
	attempts := 0
	e := newTestEngine(&llm.MockChatClient{}, func(t models.OptimizationType, ds *models.TabularDataset) CreateModelResult {
		attempts++
		if attempts == 1 {
			return CreateModelResult{Success: false, Message: "Creation is unavailable right now."}
		}
		return CreateModelResult{Success: true}
	})

	msg, err := e.ChooseOptimization(models.OptimizationPrice, "")
	require.NoError(t, err)
	assert.Equal(t, "Creation is unavailable right now.", msg.Content)

	msg, err = e.ChooseOptimization(models.OptimizationPrice, "")
	require.NoError(t, err)
	assert.Contains(t, msg.Content, "being created")
	assert.Equal(t, 2, attempts)
}

func TestChooseOptimization_ConcurrentDoubleClick(t *testing.T) {
	block := make(chan struct{})
	created := 0
	var mu sync.Mutex
	e := newTestEngine(&llm.MockChatClient{}, func(t models.OptimizationType, ds *models.TabularDataset) CreateModelResult {
		<-block
		mu.Lock()
		created++
		mu.Unlock()
		return CreateModelResult{Success: true}
	})

	var wg sync.WaitGroup
	contents := make([]string, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			msg, err := e.ChooseOptimization(models.OptimizationInventory, "")
			assert.NoError(t, err)
			contents[i] = msg.Content
		}(i)
	}

	close(block)
	wg.Wait()

	assert.Equal(t, 1, created)

	// One turn confirms creation, the other calmly reports it is in flight
	// or already done, depending on which attempt won the guard.
	winners, losers := 0, 0
	for _, c := range contents {
		switch {
		case strings.Contains(c, "being created"):
			winners++
		case strings.Contains(c, "already"):
			losers++
		default:
			t.Fatalf("unexpected outcome message %q", c)
		}
	}
	assert.Equal(t, 1, winners)
	assert.Equal(t, 1, losers)
}

func TestChooseOptimization_InvalidType(t *testing.T) {
	e := newTestEngine(&llm.MockChatClient{}, nil)

	_, err := e.ChooseOptimization(models.OptimizationType("forecast"), "")
	assert.Error(t, err)
	assert.Empty(t, e.History())
}

func TestReset_ClearsLogDatasetAndCounter(t *testing.T) {
	client := &llm.MockChatClient{
		SendFunc: func(ctx context.Context, messages []llm.ChatMessage) (string, error) {
			return "ok", nil
		},
	}
	e := newTestEngine(client, nil)
	e.RecordUpload(testDataset())
	_, err := e.SubmitUserMessage(context.Background(), "hello")
	require.NoError(t, err)

	e.Reset()

	assert.Empty(t, e.History())
	assert.Nil(t, e.Dataset())

	_, err = e.SubmitUserMessage(context.Background(), "fresh start")
	require.NoError(t, err)
	assert.Equal(t, int64(1), e.History()[0].ID)
}

func TestSession_WiresGuardAndRegistryTogether(t *testing.T) {
	s := NewSession(&llm.MockChatClient{}, zap.NewNop())
	s.Engine.RecordUpload(testDataset())

	_, err := s.Engine.ChooseOptimization(models.OptimizationInventory, "")
	require.NoError(t, err)

	projects := s.Registry.List()
	require.Len(t, projects, 1)
	assert.Equal(t, models.OptimizationInventory, projects[0].Type)
	assert.Equal(t, "sales.csv", projects[0].SourceDatasetName)
	assert.Equal(t, models.StatusInProgress, projects[0].Status)

	// Second selection cannot create a second project.
	_, err = s.Engine.ChooseOptimization(models.OptimizationInventory, "")
	require.NoError(t, err)
	assert.Len(t, s.Registry.List(), 1)

	// Reset clears conversation and guard but keeps created projects.
	s.Reset()
	assert.Empty(t, s.Engine.History())
	assert.Len(t, s.Registry.List(), 1)
	assert.False(t, s.Guard.IsCreated(models.OptimizationInventory))
}
