// Package chat implements the streaming chat turn pipeline: request building,
// stream consumption, response finalization and turn orchestration.
package chat

import (
	"context"
	"errors"

	"github.com/nagare-ai/chat-service/internal/domain/models"
)

// Human-readable tool labels attached to finalized messages.
const (
	ToolLabelVectorStore = "Vector Store"
	ToolLabelWebSearch   = "Web Search"
)

// Turn status messages emitted through the status callback.
const (
	StatusSearchingBoth        = "searching vector store and web"
	StatusSearchingVector      = "vector search in progress"
	StatusSearchingWeb         = "web search in progress"
	StatusReadingAttachments   = "reading attachments"
	StatusGenerating           = "generating response"
	StatusVectorSearchComplete = "vector search complete, generating response"
	StatusWebSearchComplete    = "web search complete, generating response"
)

// ErrNothingToSend is returned when the resolved input is empty after
// truncation and filtering, before any network activity.
var ErrNothingToSend = errors.New("nothing to send")

// TurnRequest describes one user-submitted prompt to run. It is built fresh
// per turn and owned exclusively by the orchestrator invocation that runs it.
type TurnRequest struct {
	Model            string
	Messages         []*models.Message
	SystemRole       string
	Attachments      []models.FileAttachment
	VectorStoreIDs   []string
	WebSearchEnabled bool
	MaxOutputTokens  int
}

// StreamResult is the outcome of a completed turn. It is consumed immediately
// by the caller to build the finalized message.
type StreamResult struct {
	ResponseID string
	Text       string
	Sources    []models.MessagePart
	UsedTools  []string
	TokenUsage *models.TokenUsage
}

// Callbacks receives turn lifecycle notifications. Nil funcs are skipped.
type Callbacks struct {
	// OnStatus receives human-readable status changes.
	OnStatus func(status string)

	// OnSnapshot receives the full accumulated text after every delta.
	// Each snapshot is a prefix-extension of the previous one, so consumers
	// may replace rather than merge.
	OnSnapshot func(text string)

	// Persist receives debounced mid-stream snapshots and one synchronous
	// final flush per turn.
	Persist func(ctx context.Context, text string) error
}

func (c Callbacks) status(s string) {
	if c.OnStatus != nil {
		c.OnStatus(s)
	}
}

func (c Callbacks) snapshot(text string) {
	if c.OnSnapshot != nil {
		c.OnSnapshot(text)
	}
}

// CumulativeTokens returns the running conversation total: the sum of
// TotalTokens over prior messages plus the current turn's total.
func CumulativeTokens(history []*models.Message, currentTotal int) int {
	sum := currentTotal
	for _, m := range history {
		if m.TokenUsage != nil {
			sum += m.TokenUsage.TotalTokens
		}
	}
	return sum
}
