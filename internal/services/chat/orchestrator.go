package chat

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/nagare-ai/chat-service/internal/services/responses"
)

// OrchestratorConfig configures a turn orchestrator.
type OrchestratorConfig struct {
	Transport responses.Transport
	Logger    zerolog.Logger

	// PersistDebounce is the quiet period for mid-stream persistence.
	// Zero means DefaultDebounce.
	PersistDebounce time.Duration
}

// Orchestrator runs chat turns end to end: input building, tool selection,
// upstream streaming, callback fan-out and debounced persistence.
type Orchestrator struct {
	transport responses.Transport
	logger    zerolog.Logger
	debounce  time.Duration
}

// NewOrchestrator creates an orchestrator from the given config.
func NewOrchestrator(config *OrchestratorConfig) (*Orchestrator, error) {
	if config == nil {
		return nil, fmt.Errorf("config is required")
	}
	if config.Transport == nil {
		return nil, fmt.Errorf("transport is required")
	}
	return &Orchestrator{
		transport: config.Transport,
		logger:    config.Logger,
		debounce:  config.PersistDebounce,
	}, nil
}

// RunTurn executes one chat turn. On a clean finish the returned StreamResult
// carries the finalized text, sources, tool labels and usage, and the last
// Persist call before returning is a synchronous flush of the final text. On
// error or cancellation the partial accumulated text is flushed best-effort
// and the error is returned; the caller decides the terminal message state.
func (o *Orchestrator) RunTurn(ctx context.Context, turn *TurnRequest, cb Callbacks) (*StreamResult, error) {
	input := BuildInput(turn.Messages, turn.Attachments, turn.SystemRole)
	if !hasSendableContent(input) {
		return nil, ErrNothingToSend
	}
	if len(turn.Attachments) > 0 && !hasUserEntry(input) {
		o.logger.Warn().
			Int("attachments", len(turn.Attachments)).
			Msg("attachments dropped: history has no user entry to carry them")
	}

	// Vector retrieval and web search are mutually exclusive per turn;
	// retrieval wins.
	webSearch := turn.WebSearchEnabled
	if webSearch && len(turn.VectorStoreIDs) > 0 {
		o.logger.Debug().Msg("web search suppressed: vector retrieval active")
		webSearch = false
	}

	// Status reflects what the user asked for, not the post-suppression
	// tool set.
	cb.status(initialStatus(len(turn.VectorStoreIDs) > 0, turn.WebSearchEnabled, len(turn.Attachments) > 0))

	request := &responses.Request{
		Model:           turn.Model,
		Input:           input,
		Tools:           BuildTools(turn.VectorStoreIDs, webSearch),
		Stream:          true,
		MaxOutputTokens: turn.MaxOutputTokens,
	}

	stream, err := o.transport.Stream(ctx, request)
	if err != nil {
		return nil, fmt.Errorf("failed to start response stream: %w", err)
	}
	defer stream.Close()

	flusher := newDebouncer(o.debounce, func(text string) {
		if cb.Persist == nil {
			return
		}
		// Detached from the turn context: a snapshot already scheduled
		// should land even if the turn is being torn down concurrently.
		if err := cb.Persist(context.WithoutCancel(ctx), text); err != nil {
			o.logger.Warn().Err(err).Msg("snapshot persistence failed")
		}
	})
	defer flusher.Stop()

	accumulated, consumeErr := Consume(ctx, stream, Callbacks{
		OnStatus: cb.OnStatus,
		OnSnapshot: func(text string) {
			cb.snapshot(text)
			flusher.Trigger(text)
		},
	})
	if consumeErr != nil {
		flusher.Stop()
		o.flushPartial(ctx, cb, accumulated)
		return nil, consumeErr
	}

	final, err := stream.FinalResponse(ctx)
	if err != nil {
		flusher.Stop()
		o.flushPartial(ctx, cb, accumulated)
		return nil, fmt.Errorf("failed to resolve final response: %w", err)
	}

	result := Finalize(accumulated, final)

	// The final flush is synchronous and authoritative: stop the debouncer
	// first so no stale snapshot can land after it.
	flusher.Stop()
	if cb.Persist != nil {
		if err := cb.Persist(context.WithoutCancel(ctx), result.Text); err != nil {
			return nil, fmt.Errorf("failed to persist final text: %w", err)
		}
	}

	return result, nil
}

// flushPartial writes whatever text accumulated before a failure or
// cancellation so the partial response survives. Best effort only.
func (o *Orchestrator) flushPartial(ctx context.Context, cb Callbacks, text string) {
	if cb.Persist == nil || text == "" {
		return
	}
	if err := cb.Persist(context.WithoutCancel(ctx), text); err != nil {
		o.logger.Warn().Err(err).Msg("partial text persistence failed")
	}
}

// initialStatus picks the opening status line for a turn from the active
// capabilities, most specific first.
func initialStatus(vector, web, attachments bool) string {
	switch {
	case vector && web:
		return StatusSearchingBoth
	case vector:
		return StatusSearchingVector
	case web:
		return StatusSearchingWeb
	case attachments:
		return StatusReadingAttachments
	default:
		return StatusGenerating
	}
}

func hasSendableContent(input []responses.InputItem) bool {
	for _, item := range input {
		if item.Role == "system" {
			continue
		}
		return true
	}
	return false
}

func hasUserEntry(input []responses.InputItem) bool {
	for _, item := range input {
		if item.Role == "user" {
			return true
		}
	}
	return false
}
