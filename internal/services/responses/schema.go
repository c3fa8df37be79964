// Package responses models the OpenAI-compatible Responses API wire format
// and provides streaming and non-streaming transports against it.
package responses

import (
	"encoding/json"
	"fmt"
)

// EventType represents the type of an SSE event from the Responses endpoint.
type EventType string

const (
	EventResponseCreated    EventType = "response.created"
	EventResponseInProgress EventType = "response.in_progress"
	EventResponseCompleted  EventType = "response.completed"
	EventResponseFailed     EventType = "response.failed"
	EventOutputItemAdded    EventType = "response.output_item.added"
	EventOutputItemDone     EventType = "response.output_item.done"
	EventOutputTextDelta    EventType = "response.output_text.delta"
	EventOutputTextDone     EventType = "response.output_text.done"
	EventError              EventType = "error"
)

// Output item types. Providers add item kinds over time; unknown kinds decode
// fine and are ignored by consumers.
const (
	ItemTypeMessage        = "message"
	ItemTypeFileSearchCall = "file_search_call"
	ItemTypeWebSearchCall  = "web_search_call"
)

// Event represents a parsed SSE event.
type Event struct {
	Type           EventType     `json:"type"`
	SequenceNumber int           `json:"sequence_number,omitempty"`
	Response       *Response     `json:"response,omitempty"`
	Item           *OutputItem   `json:"item,omitempty"`
	ItemID         string        `json:"item_id,omitempty"`
	OutputIndex    int           `json:"output_index,omitempty"`
	ContentIndex   int           `json:"content_index,omitempty"`
	Delta          string        `json:"delta,omitempty"`
	Text           string        `json:"text,omitempty"`
	Error          *ErrorPayload `json:"error,omitempty"`
}

// Response represents the terminal response object.
type Response struct {
	ID         string        `json:"id"`
	Object     string        `json:"object,omitempty"`
	Status     string        `json:"status,omitempty"`
	CreatedAt  int64         `json:"created_at,omitempty"`
	Model      string        `json:"model,omitempty"`
	Output     []OutputItem  `json:"output,omitempty"`
	OutputText string        `json:"output_text,omitempty"`
	Usage      *Usage        `json:"usage,omitempty"`
	Error      *ErrorPayload `json:"error,omitempty"`
}

// OutputItem represents one item of a response's output.
type OutputItem struct {
	Type    string        `json:"type"`
	ID      string        `json:"id,omitempty"`
	Status  string        `json:"status,omitempty"`
	Role    string        `json:"role,omitempty"`
	Content []ContentPart `json:"content,omitempty"`

	// File search call fields.
	Queries []string       `json:"queries,omitempty"`
	Results []SearchResult `json:"results,omitempty"`
}

// ContentPart represents a content entry of a message output item.
type ContentPart struct {
	Type string `json:"type"`
	Text string `json:"text,omitempty"`
}

// SearchResult is one result entry of a file search call.
type SearchResult struct {
	FileID   string  `json:"file_id,omitempty"`
	Filename string  `json:"filename,omitempty"`
	Text     string  `json:"text,omitempty"`
	Score    float64 `json:"score,omitempty"`
}

// Usage represents token usage reported by the provider.
type Usage struct {
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
	TotalTokens  int `json:"total_tokens"`
}

// ErrorPayload represents an in-band provider error.
type ErrorPayload struct {
	Code    string `json:"code,omitempty"`
	Message string `json:"message,omitempty"`
}

// String returns the provider's message, or a generic fallback when the
// payload shape carried nothing usable.
func (e *ErrorPayload) String() string {
	if e == nil || e.Message == "" {
		return "upstream returned an error"
	}
	return e.Message
}

// Request is the payload sent to the /responses endpoint.
type Request struct {
	Model           string      `json:"model"`
	Input           []InputItem `json:"input"`
	Tools           []Tool      `json:"tools,omitempty"`
	Stream          bool        `json:"stream,omitempty"`
	MaxOutputTokens int         `json:"max_output_tokens,omitempty"`
}

// Tool requests provider-side tooling for a turn.
type Tool struct {
	Type           string   `json:"type"`
	VectorStoreIDs []string `json:"vector_store_ids,omitempty"`
}

// Tool types.
const (
	ToolTypeFileSearch = "file_search"
	ToolTypeWebSearch  = "web_search"
)

// InputItem is one entry of the request input list.
type InputItem struct {
	Type    string       `json:"type"`
	Role    string       `json:"role"`
	Content InputContent `json:"content"`
}

// InputItemTypeMessage is the only input item type this client produces.
const InputItemTypeMessage = "message"

// Input content part types.
const (
	InputPartText  = "input_text"
	InputPartImage = "input_image"
	InputPartFile  = "input_file"
)

// InputPart is one structured content part of an input item.
type InputPart struct {
	Type   string `json:"type"`
	Text   string `json:"text,omitempty"`
	FileID string `json:"file_id,omitempty"`
}

// InputContent is either a plain string or a structured part list on the
// wire. Parts win when present; otherwise the text serializes as a bare
// JSON string.
type InputContent struct {
	Text  string
	Parts []InputPart
}

// TextContent creates plain string content.
func TextContent(text string) InputContent {
	return InputContent{Text: text}
}

// PartsContent creates structured part-list content.
func PartsContent(parts []InputPart) InputContent {
	return InputContent{Parts: parts}
}

// MarshalJSON emits a bare string or a part array depending on shape.
func (c InputContent) MarshalJSON() ([]byte, error) {
	if c.Parts != nil {
		return json.Marshal(c.Parts)
	}
	return json.Marshal(c.Text)
}

// UnmarshalJSON accepts both wire shapes.
func (c *InputContent) UnmarshalJSON(data []byte) error {
	if len(data) > 0 && data[0] == '[' {
		return json.Unmarshal(data, &c.Parts)
	}
	if err := json.Unmarshal(data, &c.Text); err != nil {
		return fmt.Errorf("input content is neither string nor part list: %w", err)
	}
	return nil
}
