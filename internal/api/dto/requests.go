// Package dto provides Data Transfer Objects for API requests and responses.
package dto

// AttachmentRequest references a previously uploaded file to attach to a
// message. An attachment without tool hints is sent as an image input.
type AttachmentRequest struct {
	FileID    string   `json:"fileId" binding:"required"`
	FileName  string   `json:"fileName"`
	ToolHints []string `json:"toolHints"`
}

// SendMessageRequest represents the request body for sending a message.
type SendMessageRequest struct {
	Content          string              `json:"content" binding:"max=32000"`
	Model            string              `json:"model"`
	Attachments      []AttachmentRequest `json:"attachments"`
	VectorStoreIDs   []string            `json:"vectorStoreIds"`
	WebSearchEnabled bool                `json:"webSearchEnabled"`
	Stream           bool                `json:"stream"`
}

// CreateConversationRequest represents the request body for creating a
// conversation.
type CreateConversationRequest struct {
	Title      string `json:"title"`
	Model      string `json:"model"`
	SystemRole string `json:"systemRole"`
}

// CreateVectorStoreRequest represents the request body for creating a vector
// store.
type CreateVectorStoreRequest struct {
	Name string `json:"name" binding:"required"`
}

// AddVectorStoreFileRequest represents the request body for attaching an
// uploaded file to a vector store.
type AddVectorStoreFileRequest struct {
	FileID string `json:"fileId" binding:"required"`
}

// AdminLoginRequest carries the admin password for policy-gated endpoints.
type AdminLoginRequest struct {
	Password string `json:"password" binding:"required"`
}
