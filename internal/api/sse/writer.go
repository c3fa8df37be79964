// Package sse provides Server-Sent Events support for streaming responses.
package sse

import (
	"encoding/json"
	"fmt"
	"net/http"
)

// EventType represents the type of SSE event.
type EventType string

const (
	// EventMessage is a chat turn lifecycle event.
	EventMessage EventType = "message"
	// EventDone is a stream completion event.
	EventDone EventType = "done"
)

// StreamMessageType represents the type of stream message in the data payload.
type StreamMessageType string

const (
	// StreamTypeStart indicates the start of a turn.
	StreamTypeStart StreamMessageType = "STREAM_START"
	// StreamTypeStatus carries a human-readable turn status change.
	StreamTypeStatus StreamMessageType = "STATUS"
	// StreamTypeSnapshot carries the full accumulated text so far.
	StreamTypeSnapshot StreamMessageType = "TEXT_SNAPSHOT"
	// StreamTypeEnd indicates the end of a turn; its config carries the
	// finalized message.
	StreamTypeEnd StreamMessageType = "STREAM_END"
	// StreamTypeError indicates an error in the stream.
	StreamTypeError StreamMessageType = "ERROR"
)

// StreamMessage represents a unified stream message format.
type StreamMessage struct {
	Type    StreamMessageType      `json:"type"`
	Content string                 `json:"content,omitempty"`
	Config  map[string]interface{} `json:"config,omitempty"`
}

// Writer writes Server-Sent Events to an HTTP response.
type Writer struct {
	writer  http.ResponseWriter
	flusher http.Flusher
}

// NewWriter creates a new SSE writer.
func NewWriter(w http.ResponseWriter) (*Writer, error) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		return nil, fmt.Errorf("streaming not supported")
	}

	// Set SSE headers
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")

	return &Writer{
		writer:  w,
		flusher: flusher,
	}, nil
}

// WriteEvent writes an SSE event with the given type and data.
func (w *Writer) WriteEvent(eventType EventType, data string) error {
	_, err := fmt.Fprintf(w.writer, "event: %s\ndata: %s\n\n", eventType, data)
	if err != nil {
		return fmt.Errorf("failed to write event: %w", err)
	}
	w.flusher.Flush()
	return nil
}

// WriteJSON writes an SSE event with JSON-encoded data.
func (w *Writer) WriteJSON(eventType EventType, data interface{}) error {
	jsonData, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("failed to marshal data: %w", err)
	}
	return w.WriteEvent(eventType, string(jsonData))
}

// WriteStreamStart writes the STREAM_START message with messageId and conversationId.
func (w *Writer) WriteStreamStart(messageID, conversationID string) error {
	return w.WriteJSON(EventMessage, &StreamMessage{
		Type: StreamTypeStart,
		Config: map[string]interface{}{
			"messageId":      messageID,
			"conversationId": conversationID,
		},
	})
}

// WriteStatus writes a STATUS message.
func (w *Writer) WriteStatus(status string) error {
	return w.WriteJSON(EventMessage, &StreamMessage{
		Type:    StreamTypeStatus,
		Content: status,
	})
}

// WriteSnapshot writes a TEXT_SNAPSHOT message carrying the full accumulated
// text. Snapshots are replacements, not increments: a consumer that misses
// one loses nothing once the next arrives.
func (w *Writer) WriteSnapshot(text string) error {
	return w.WriteJSON(EventMessage, &StreamMessage{
		Type:    StreamTypeSnapshot,
		Content: text,
	})
}

// WriteStreamEnd writes the STREAM_END message carrying the finalized message.
func (w *Writer) WriteStreamEnd(message interface{}) error {
	return w.WriteJSON(EventMessage, &StreamMessage{
		Type: StreamTypeEnd,
		Config: map[string]interface{}{
			"message": message,
		},
	})
}

// WriteStreamError writes an error message in stream format.
func (w *Writer) WriteStreamError(code, message, details string) error {
	return w.WriteJSON(EventMessage, &StreamMessage{
		Type: StreamTypeError,
		Config: map[string]interface{}{
			"code":    code,
			"message": message,
			"details": details,
		},
	})
}

// WriteDone writes a done event to signal stream completion.
func (w *Writer) WriteDone() error {
	return w.WriteEvent(EventDone, "stream completed")
}
