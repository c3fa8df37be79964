package chat_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nagare-ai/chat-service/internal/domain/models"
	"github.com/nagare-ai/chat-service/internal/services/chat"
	"github.com/nagare-ai/chat-service/internal/services/responses"
)

// fakeTransport hands back a canned stream and captures the request it was
// asked to send.
type fakeTransport struct {
	stream  *fakeStream
	err     error
	request *responses.Request
}

func (t *fakeTransport) Stream(ctx context.Context, req *responses.Request) (responses.EventStream, error) {
	t.request = req
	if t.err != nil {
		return nil, t.err
	}
	return t.stream, nil
}

// persistRecorder collects Persist calls. The debounced flusher runs off a
// timer goroutine, so access is locked.
type persistRecorder struct {
	mu    sync.Mutex
	texts []string
	err   error
}

func (r *persistRecorder) persist(_ context.Context, text string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.texts = append(r.texts, text)
	return r.err
}

func (r *persistRecorder) last(t *testing.T) string {
	t.Helper()
	r.mu.Lock()
	defer r.mu.Unlock()
	require.NotEmpty(t, r.texts)
	return r.texts[len(r.texts)-1]
}

func setupOrchestrator(t *testing.T, transport *fakeTransport) *chat.Orchestrator {
	t.Helper()

	orch, err := chat.NewOrchestrator(&chat.OrchestratorConfig{
		Transport: transport,
		Logger:    zerolog.Nop(),
		// Keep the debounce short so mid-stream flushes do not slow tests.
		PersistDebounce: time.Millisecond,
	})
	require.NoError(t, err)
	return orch
}

func TestNewOrchestrator_RequiresConfig(t *testing.T) {
	_, err := chat.NewOrchestrator(nil)
	assert.EqualError(t, err, "config is required")

	_, err = chat.NewOrchestrator(&chat.OrchestratorConfig{})
	assert.EqualError(t, err, "transport is required")
}

func TestRunTurn_HappyPath(t *testing.T) {
	transport := &fakeTransport{stream: &fakeStream{
		events: []*responses.Event{
			deltaEvent("Hello"),
			deltaEvent(" world"),
		},
		final: &responses.Response{
			ID:    "resp-1",
			Usage: &responses.Usage{InputTokens: 10, OutputTokens: 5, TotalTokens: 15},
		},
	}}
	orch := setupOrchestrator(t, transport)

	recorder := &persistRecorder{}
	result, err := orch.RunTurn(context.Background(), &chat.TurnRequest{
		Model:    "gpt-4o",
		Messages: []*models.Message{userMessage("hi")},
	}, chat.Callbacks{Persist: recorder.persist})

	require.NoError(t, err)
	assert.Equal(t, "resp-1", result.ResponseID)
	assert.Equal(t, "Hello world", result.Text)
	require.NotNil(t, result.TokenUsage)
	assert.Equal(t, 15, result.TokenUsage.TotalTokens)

	// The synchronous final flush always runs and always lands last.
	assert.Equal(t, "Hello world", recorder.last(t))

	assert.True(t, transport.stream.closed)
	require.NotNil(t, transport.request)
	assert.True(t, transport.request.Stream)
	assert.Equal(t, "gpt-4o", transport.request.Model)
}

func TestRunTurn_NothingToSend(t *testing.T) {
	transport := &fakeTransport{stream: &fakeStream{}}
	orch := setupOrchestrator(t, transport)

	_, err := orch.RunTurn(context.Background(), &chat.TurnRequest{
		Model:      "gpt-4o",
		Messages:   nil,
		SystemRole: "you are helpful",
	}, chat.Callbacks{})

	assert.ErrorIs(t, err, chat.ErrNothingToSend)
	// Nothing was sent upstream.
	assert.Nil(t, transport.request)
}

func TestRunTurn_VectorRetrievalSuppressesWebSearch(t *testing.T) {
	transport := &fakeTransport{stream: &fakeStream{
		events: []*responses.Event{deltaEvent("ok")},
	}}
	orch := setupOrchestrator(t, transport)

	var statuses []string
	_, err := orch.RunTurn(context.Background(), &chat.TurnRequest{
		Model:            "gpt-4o",
		Messages:         []*models.Message{userMessage("hi")},
		VectorStoreIDs:   []string{"vs-1"},
		WebSearchEnabled: true,
	}, chat.Callbacks{
		OnStatus: func(status string) { statuses = append(statuses, status) },
	})

	require.NoError(t, err)

	require.NotNil(t, transport.request)
	require.Len(t, transport.request.Tools, 1)
	assert.Equal(t, responses.ToolTypeFileSearch, transport.request.Tools[0].Type)

	// The opening status still names both, since both were requested.
	require.NotEmpty(t, statuses)
	assert.Equal(t, chat.StatusSearchingBoth, statuses[0])
}

func TestRunTurn_InitialStatusPrecedence(t *testing.T) {
	cases := []struct {
		name        string
		vectorIDs   []string
		webSearch   bool
		attachments []models.FileAttachment
		want        string
	}{
		{name: "vector only", vectorIDs: []string{"vs-1"}, want: chat.StatusSearchingVector},
		{name: "web only", webSearch: true, want: chat.StatusSearchingWeb},
		{name: "attachments only", attachments: []models.FileAttachment{{FileID: "file-1"}}, want: chat.StatusReadingAttachments},
		{name: "plain turn", want: chat.StatusGenerating},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			transport := &fakeTransport{stream: &fakeStream{
				events: []*responses.Event{deltaEvent("ok")},
			}}
			orch := setupOrchestrator(t, transport)

			var statuses []string
			_, err := orch.RunTurn(context.Background(), &chat.TurnRequest{
				Model:            "gpt-4o",
				Messages:         []*models.Message{userMessage("hi")},
				VectorStoreIDs:   tc.vectorIDs,
				WebSearchEnabled: tc.webSearch,
				Attachments:      tc.attachments,
			}, chat.Callbacks{
				OnStatus: func(status string) { statuses = append(statuses, status) },
			})

			require.NoError(t, err)
			require.NotEmpty(t, statuses)
			assert.Equal(t, tc.want, statuses[0])
		})
	}
}

func TestRunTurn_StreamStartFailure(t *testing.T) {
	transport := &fakeTransport{err: errors.New("connection refused")}
	orch := setupOrchestrator(t, transport)

	_, err := orch.RunTurn(context.Background(), &chat.TurnRequest{
		Model:    "gpt-4o",
		Messages: []*models.Message{userMessage("hi")},
	}, chat.Callbacks{})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to start response stream")
}

func TestRunTurn_ProviderErrorFlushesPartial(t *testing.T) {
	transport := &fakeTransport{stream: &fakeStream{
		events: []*responses.Event{
			deltaEvent("partial "),
			{Type: responses.EventError, Error: &responses.ErrorPayload{Message: "rate limited"}},
		},
	}}
	orch := setupOrchestrator(t, transport)

	recorder := &persistRecorder{}
	_, err := orch.RunTurn(context.Background(), &chat.TurnRequest{
		Model:    "gpt-4o",
		Messages: []*models.Message{userMessage("hi")},
	}, chat.Callbacks{Persist: recorder.persist})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "rate limited")
	assert.Equal(t, "partial ", recorder.last(t))
}

func TestRunTurn_CancellationFlushesPartial(t *testing.T) {
	transport := &fakeTransport{stream: &fakeStream{
		events: []*responses.Event{
			deltaEvent("keep this"),
			deltaEvent(" never seen"),
		},
	}}
	orch := setupOrchestrator(t, transport)

	ctx, cancel := context.WithCancel(context.Background())

	recorder := &persistRecorder{}
	_, err := orch.RunTurn(ctx, &chat.TurnRequest{
		Model:    "gpt-4o",
		Messages: []*models.Message{userMessage("hi")},
	}, chat.Callbacks{
		OnSnapshot: func(text string) {
			if text == "keep this" {
				cancel()
			}
		},
		Persist: recorder.persist,
	})

	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, "keep this", recorder.last(t))
}

func TestRunTurn_FinalPersistFailureIsFatal(t *testing.T) {
	transport := &fakeTransport{stream: &fakeStream{
		events: []*responses.Event{deltaEvent("ok")},
	}}
	orch := setupOrchestrator(t, transport)

	_, err := orch.RunTurn(context.Background(), &chat.TurnRequest{
		Model:    "gpt-4o",
		Messages: []*models.Message{userMessage("hi")},
	}, chat.Callbacks{
		Persist: func(_ context.Context, _ string) error {
			return errors.New("write failed")
		},
	})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to persist final text")
}
