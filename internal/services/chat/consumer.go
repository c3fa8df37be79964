package chat

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/nagare-ai/chat-service/internal/services/responses"
)

// Consume drives a single forward pass over the event stream, accumulating
// text and emitting status and snapshot callbacks. It returns the accumulated
// text; on error or cancellation the partial text accumulated so far is still
// returned for best-effort persistence by the caller.
//
// Unknown event kinds are ignored: providers add event types over time.
func Consume(ctx context.Context, stream responses.EventStream, cb Callbacks) (string, error) {
	var (
		buf       strings.Builder
		started   bool
		seenTools = map[string]string{} // item id -> tool item type
	)

	for {
		select {
		case <-ctx.Done():
			return buf.String(), ctx.Err()
		default:
		}

		event, err := stream.Next()
		if errors.Is(err, io.EOF) {
			return buf.String(), nil
		}
		if err != nil {
			return buf.String(), fmt.Errorf("stream read failed: %w", err)
		}

		switch event.Type {
		case responses.EventOutputItemAdded:
			if event.Item == nil {
				continue
			}
			switch event.Item.Type {
			case responses.ItemTypeFileSearchCall:
				seenTools[event.Item.ID] = event.Item.Type
				cb.status(StatusSearchingVector)
			case responses.ItemTypeWebSearchCall:
				seenTools[event.Item.ID] = event.Item.Type
				cb.status(StatusSearchingWeb)
			}

		case responses.EventOutputItemDone:
			if event.Item == nil {
				continue
			}
			switch seenTools[event.Item.ID] {
			case responses.ItemTypeFileSearchCall:
				cb.status(StatusVectorSearchComplete)
			case responses.ItemTypeWebSearchCall:
				cb.status(StatusWebSearchComplete)
			}

		case responses.EventOutputTextDelta:
			if !started {
				started = true
				cb.status(StatusGenerating)
			}
			buf.WriteString(event.Delta)
			// Emit the full accumulated text, not the delta: every
			// snapshot is authoritative state on its own.
			cb.snapshot(buf.String())

		case responses.EventError:
			return buf.String(), fmt.Errorf("provider error: %s", event.Error.String())

		case responses.EventResponseFailed:
			if event.Response != nil && event.Response.Error != nil {
				return buf.String(), fmt.Errorf("provider error: %s", event.Response.Error.String())
			}
			return buf.String(), fmt.Errorf("provider error: %s", (*responses.ErrorPayload)(nil).String())
		}
	}
}
