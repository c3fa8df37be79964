// Package dto provides Data Transfer Objects for API requests and responses.
package dto

import (
	"time"

	"github.com/nagare-ai/chat-service/internal/domain/models"
)

// ErrorResponse represents an error response.
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}

// MessageResponse represents a message in API responses.
type MessageResponse struct {
	ID             string                  `json:"id"`
	ConversationID string                  `json:"conversationId"`
	Role           string                  `json:"role"`
	Parts          []models.MessagePart    `json:"parts"`
	Status         string                  `json:"status,omitempty"`
	AttachedFiles  []models.FileAttachment `json:"attachedFiles,omitempty"`
	UsedTools      []string                `json:"usedTools,omitempty"`
	TokenUsage     *models.TokenUsage      `json:"tokenUsage,omitempty"`
	ErrorMessage   string                  `json:"errorMessage,omitempty"`
	CreatedAt      time.Time               `json:"createdAt"`
	UpdatedAt      time.Time               `json:"updatedAt"`
}

// NewMessageResponse converts a domain message to its API shape.
func NewMessageResponse(m *models.Message) *MessageResponse {
	return &MessageResponse{
		ID:             m.ID,
		ConversationID: m.ConversationID,
		Role:           string(m.Role),
		Parts:          m.Parts,
		Status:         string(m.Status),
		AttachedFiles:  m.AttachedFiles,
		UsedTools:      m.UsedTools,
		TokenUsage:     m.TokenUsage,
		ErrorMessage:   m.ErrorMessage,
		CreatedAt:      m.CreatedAt,
		UpdatedAt:      m.UpdatedAt,
	}
}

// GetMessagesResponse represents the response for getting messages.
type GetMessagesResponse struct {
	Messages []*MessageResponse `json:"messages"`
	Total    int64              `json:"total"`
	Limit    int64              `json:"limit"`
	Offset   int64              `json:"offset"`
}

// SendMessageResponse represents the response for sending a message without
// streaming.
type SendMessageResponse struct {
	Message *MessageResponse `json:"message"`
}

// ConversationResponse represents a conversation in API responses.
type ConversationResponse struct {
	ID         string    `json:"id"`
	Title      string    `json:"title"`
	Model      string    `json:"model,omitempty"`
	SystemRole string    `json:"systemRole,omitempty"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

// NewConversationResponse converts a domain conversation to its API shape.
func NewConversationResponse(c *models.Conversation) *ConversationResponse {
	return &ConversationResponse{
		ID:         c.ID,
		Title:      c.Title,
		Model:      c.Model,
		SystemRole: c.SystemRole,
		CreatedAt:  c.CreatedAt,
		UpdatedAt:  c.UpdatedAt,
	}
}

// ListConversationsResponse represents the response for listing conversations.
type ListConversationsResponse struct {
	Conversations []*ConversationResponse `json:"conversations"`
	Total         int64                   `json:"total"`
	Limit         int64                   `json:"limit"`
	Offset        int64                   `json:"offset"`
}

// UploadFileResponse represents the response for a file upload.
type UploadFileResponse struct {
	FileID   string `json:"fileId"`
	Filename string `json:"filename"`
	Bytes    int64  `json:"bytes"`
	Purpose  string `json:"purpose"`
}

// VectorStoreResponse represents a vector store in API responses.
type VectorStoreResponse struct {
	ID       string   `json:"id"`
	RemoteID string   `json:"remoteId"`
	Name     string   `json:"name"`
	FileIDs  []string `json:"fileIds,omitempty"`
}

// PolicyStatusResponse reports which features the deployment policy permits.
type PolicyStatusResponse struct {
	WebSearchAllowed          bool `json:"webSearchAllowed"`
	VectorStoreAllowed        bool `json:"vectorStoreAllowed"`
	FileUploadAllowed         bool `json:"fileUploadAllowed"`
	ChatFileAttachmentAllowed bool `json:"chatFileAttachmentAllowed"`
}

// AdminLoginResponse reports the outcome of an admin password check.
type AdminLoginResponse struct {
	Authenticated bool `json:"authenticated"`
}
