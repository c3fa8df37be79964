// Package models contains domain models for the Nagare Chat Service.
package models

import (
	"strings"
	"time"
)

// MessageRole represents the role of a message sender.
type MessageRole string

const (
	// RoleUser represents a message from the user.
	RoleUser MessageRole = "user"
	// RoleAssistant represents a message from the assistant.
	RoleAssistant MessageRole = "assistant"
	// RoleSystem represents a system message.
	RoleSystem MessageRole = "system"
	// RoleTool represents a tool message. Tool messages carry no text
	// convertible to provider input and are dropped when building requests.
	RoleTool MessageRole = "tool"
)

// MessageStatus represents the status of a message (assistant messages only;
// user messages are implicitly complete).
type MessageStatus string

const (
	// MessageStatusPending indicates the message is still being generated.
	MessageStatusPending MessageStatus = "pending"
	// MessageStatusComplete indicates the message finished successfully.
	MessageStatusComplete MessageStatus = "complete"
	// MessageStatusError indicates the message generation failed.
	MessageStatusError MessageStatus = "error"
	// MessageStatusCancelled indicates the turn was cancelled mid-stream.
	// Partial text accumulated up to cancellation is retained.
	MessageStatusCancelled MessageStatus = "cancelled"
)

// PartType represents the kind of a message part.
type PartType string

const (
	// PartTypeText is a plain text part.
	PartTypeText PartType = "text"
	// PartTypeSource is a citation/result metadata part attached at finalization.
	PartTypeSource PartType = "source"
)

// SourceType identifies where a source part came from.
type SourceType string

const (
	// SourceTypeVector is a vector-store retrieval result.
	SourceTypeVector SourceType = "vector"
	// SourceTypeWeb is a web search marker.
	SourceTypeWeb SourceType = "web"
)

// MessagePart is one entry in a message's ordered parts list.
// Text parts carry Text; source parts carry the source fields.
type MessagePart struct {
	Type PartType `json:"type" bson:"type"`

	Text string `json:"text,omitempty" bson:"text,omitempty"`

	SourceType SourceType `json:"sourceType,omitempty" bson:"sourceType,omitempty"`
	Title      string     `json:"title,omitempty" bson:"title,omitempty"`
	Snippet    string     `json:"snippet,omitempty" bson:"snippet,omitempty"`
	URL        string     `json:"url,omitempty" bson:"url,omitempty"`
	FileID     string     `json:"fileId,omitempty" bson:"fileId,omitempty"`
}

// TextPart creates a text message part.
func TextPart(text string) MessagePart {
	return MessagePart{Type: PartTypeText, Text: text}
}

// ToolHint routes a document attachment through provider retrieval tooling.
type ToolHint string

const (
	// ToolHintFileSearch routes the attachment through file search.
	ToolHintFileSearch ToolHint = "file_search"
	// ToolHintCodeInterpreter routes the attachment through the code interpreter.
	ToolHintCodeInterpreter ToolHint = "code_interpreter"
)

// FileAttachment describes a file attached to a message. An attachment with
// no tool hints is treated as a vision/image input; any hint marks it as a
// document routed through retrieval tooling.
type FileAttachment struct {
	FileID    string     `json:"fileId" bson:"fileId"`
	FileName  string     `json:"fileName,omitempty" bson:"fileName,omitempty"`
	Size      int64      `json:"size,omitempty" bson:"size,omitempty"`
	Purpose   string     `json:"purpose,omitempty" bson:"purpose,omitempty"`
	ToolHints []ToolHint `json:"toolHints,omitempty" bson:"toolHints,omitempty"`
}

// IsImage reports whether the attachment should be sent as an image input.
func (a FileAttachment) IsImage() bool {
	return len(a.ToolHints) == 0
}

// TokenUsage holds token accounting for a single turn. CumulativeTotal is the
// running total across the conversation including this turn.
type TokenUsage struct {
	PromptTokens     int `json:"promptTokens" bson:"promptTokens"`
	CompletionTokens int `json:"completionTokens" bson:"completionTokens"`
	TotalTokens      int `json:"totalTokens" bson:"totalTokens"`
	CumulativeTotal  int `json:"cumulativeTotal,omitempty" bson:"cumulativeTotal,omitempty"`
}

// Message represents one turn entry in a conversation.
type Message struct {
	ID             string        `json:"id" bson:"_id"`
	ConversationID string        `json:"conversationId" bson:"conversationId"`
	Role           MessageRole   `json:"role" bson:"role"`
	Parts          []MessagePart `json:"parts" bson:"parts"`
	Status         MessageStatus `json:"status,omitempty" bson:"status,omitempty"`
	CreatedAt      time.Time     `json:"createdAt" bson:"createdAt"`
	UpdatedAt      time.Time     `json:"updatedAt" bson:"updatedAt"`

	AttachedFiles []FileAttachment `json:"attachedFiles,omitempty" bson:"attachedFiles,omitempty"`
	UsedTools     []string         `json:"usedTools,omitempty" bson:"usedTools,omitempty"`
	TokenUsage    *TokenUsage      `json:"tokenUsage,omitempty" bson:"tokenUsage,omitempty"`

	ErrorMessage string `json:"errorMessage,omitempty" bson:"errorMessage,omitempty"`
	ErrorDetails string `json:"errorDetails,omitempty" bson:"errorDetails,omitempty"`
}

// NewUserMessage creates a user message with a single text part.
func NewUserMessage(conversationID, text string, attachments []FileAttachment) *Message {
	now := time.Now().UTC()
	return &Message{
		ConversationID: conversationID,
		Role:           RoleUser,
		Parts:          []MessagePart{TextPart(text)},
		AttachedFiles:  attachments,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
}

// NewAssistantDraft creates an empty pending assistant message. The draft is
// mutated in place by streamed deltas until the turn reaches a terminal status.
func NewAssistantDraft(conversationID string) *Message {
	now := time.Now().UTC()
	return &Message{
		ConversationID: conversationID,
		Role:           RoleAssistant,
		Parts:          []MessagePart{TextPart("")},
		Status:         MessageStatusPending,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
}

// CombinedText joins all text parts with a blank line separator.
func (m *Message) CombinedText() string {
	var texts []string
	for _, p := range m.Parts {
		if p.Type == PartTypeText {
			texts = append(texts, p.Text)
		}
	}
	return strings.Join(texts, "\n\n")
}

// SetText replaces the message's single streaming text part in place.
// Source parts are untouched; a text part is created if none exists.
func (m *Message) SetText(text string) {
	for i := range m.Parts {
		if m.Parts[i].Type == PartTypeText {
			m.Parts[i].Text = text
			m.UpdatedAt = time.Now().UTC()
			return
		}
	}
	m.Parts = append([]MessagePart{TextPart(text)}, m.Parts...)
	m.UpdatedAt = time.Now().UTC()
}

// AppendSources appends source parts. Sources are only attached at
// finalization, never during streaming.
func (m *Message) AppendSources(sources []MessagePart) {
	m.Parts = append(m.Parts, sources...)
	m.UpdatedAt = time.Now().UTC()
}

// SetComplete marks the message complete.
func (m *Message) SetComplete() {
	m.Status = MessageStatusComplete
	m.UpdatedAt = time.Now().UTC()
}

// SetError marks the message failed with the given error text and detail.
// A failed turn never claims tool usage or token counts.
func (m *Message) SetError(message, details string) {
	m.Status = MessageStatusError
	m.ErrorMessage = message
	m.ErrorDetails = details
	m.UsedTools = nil
	m.TokenUsage = nil
	m.UpdatedAt = time.Now().UTC()
}

// SetCancelled marks the message cancelled, keeping any partial text.
func (m *Message) SetCancelled() {
	m.Status = MessageStatusCancelled
	m.UpdatedAt = time.Now().UTC()
}

// IsTerminal reports whether the message has reached a terminal status.
func (m *Message) IsTerminal() bool {
	switch m.Status {
	case MessageStatusComplete, MessageStatusError, MessageStatusCancelled:
		return true
	}
	return false
}
