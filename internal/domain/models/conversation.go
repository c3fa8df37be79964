package models

import "time"

// Conversation groups an ordered set of messages.
type Conversation struct {
	ID         string    `json:"id" bson:"_id"`
	Title      string    `json:"title" bson:"title"`
	Model      string    `json:"model,omitempty" bson:"model,omitempty"`
	SystemRole string    `json:"systemRole,omitempty" bson:"systemRole,omitempty"`
	CreatedAt  time.Time `json:"createdAt" bson:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt" bson:"updatedAt"`
}

// NewConversation creates a conversation with the given title, model and
// system role. All three may be empty; the title is filled from the first
// prompt and the model falls back to the configured default at send time.
func NewConversation(title, model, systemRole string) *Conversation {
	now := time.Now().UTC()
	return &Conversation{
		Title:      title,
		Model:      model,
		SystemRole: systemRole,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

// VectorStore holds local metadata about a remote vector store.
type VectorStore struct {
	ID        string    `json:"id" bson:"_id"`
	RemoteID  string    `json:"remoteId" bson:"remoteId"`
	Name      string    `json:"name" bson:"name"`
	FileIDs   []string  `json:"fileIds,omitempty" bson:"fileIds,omitempty"`
	CreatedAt time.Time `json:"createdAt" bson:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt" bson:"updatedAt"`
}
