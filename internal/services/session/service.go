// Package session provides encrypted caching of per-conversation state.
package session

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nagare-ai/chat-service/internal/core/cache"
	"github.com/nagare-ai/chat-service/internal/domain/models"
	"github.com/nagare-ai/chat-service/internal/pkg/encryption"
)

const (
	// DefaultSessionTTL is the default TTL for session cache (3 minutes).
	DefaultSessionTTL = 3 * time.Minute

	// DefaultHistoryCount is the maximum number of recent messages kept in
	// the cached session snapshot.
	DefaultHistoryCount = 100
)

// SessionData represents cached per-conversation state: the recent message
// snapshot plus running token accounting. The document database remains the
// source of truth; the cache only spares a history query per turn.
type SessionData struct {
	ConversationID  string             `json:"conversationId"`
	Messages        []*models.Message  `json:"messages"`
	SystemRole      string             `json:"systemRole,omitempty"`
	Model           string             `json:"model,omitempty"`
	CumulativeTotal int                `json:"cumulativeTotal"`
	CreatedAt       time.Time          `json:"createdAt"`
	UpdatedAt       time.Time          `json:"updatedAt"`
}

// Service provides session management with caching.
type Service interface {
	// GetSession retrieves a session from cache, or returns nil if not found.
	GetSession(ctx context.Context, conversationID string) (*SessionData, error)

	// SetSession stores a session in cache with the configured TTL.
	SetSession(ctx context.Context, session *SessionData) error

	// AppendMessages adds messages to an existing session's snapshot,
	// trimming the oldest entries beyond the history limit.
	AppendMessages(ctx context.Context, conversationID string, newMessages []*models.Message) error

	// DeleteSession removes a session from cache.
	DeleteSession(ctx context.Context, conversationID string) error

	// BuildCacheKey generates the cache key for a session.
	BuildCacheKey(conversationID string) string
}

// service implements the Service interface.
type service struct {
	cacheClient  cache.Client
	encryptor    encryption.Encryptor
	ttl          time.Duration
	historyCount int
}

// Config holds the configuration for the session service.
type Config struct {
	CacheClient  cache.Client
	Encryptor    encryption.Encryptor
	TTL          time.Duration
	HistoryCount int
}

// NewService creates a new session service.
func NewService(cfg *Config) (Service, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}
	if cfg.CacheClient == nil {
		return nil, fmt.Errorf("cache client is required")
	}
	if cfg.Encryptor == nil {
		return nil, fmt.Errorf("encryptor is required")
	}

	ttl := cfg.TTL
	if ttl == 0 {
		ttl = DefaultSessionTTL
	}
	historyCount := cfg.HistoryCount
	if historyCount == 0 {
		historyCount = DefaultHistoryCount
	}

	return &service{
		cacheClient:  cfg.CacheClient,
		encryptor:    cfg.Encryptor,
		ttl:          ttl,
		historyCount: historyCount,
	}, nil
}

// GetSession retrieves a session from cache.
// Returns nil (not an error) if decryption fails (e.g., key changed) - cache will be skipped.
func (s *service) GetSession(ctx context.Context, conversationID string) (*SessionData, error) {
	key := s.BuildCacheKey(conversationID)

	encrypted, err := s.cacheClient.Get(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("failed to get session from cache: %w", err)
	}

	if encrypted == nil {
		return nil, nil // Not found
	}

	// Decrypt - if decryption fails (e.g., key changed), skip cache gracefully
	decrypted, err := s.encryptor.Decrypt(string(encrypted))
	if err != nil {
		// Key might have changed - delete stale cache entry and return nil to fetch fresh data
		_, _ = s.cacheClient.Delete(ctx, key)
		return nil, nil
	}

	// Unmarshal - if unmarshal fails, data is corrupted, skip cache
	var session SessionData
	if err := json.Unmarshal(decrypted, &session); err != nil {
		_, _ = s.cacheClient.Delete(ctx, key)
		return nil, nil
	}

	return &session, nil
}

// SetSession stores a session in cache.
func (s *service) SetSession(ctx context.Context, session *SessionData) error {
	if session == nil {
		return fmt.Errorf("session is required")
	}

	session.UpdatedAt = time.Now().UTC()
	if session.CreatedAt.IsZero() {
		session.CreatedAt = session.UpdatedAt
	}

	data, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}

	encrypted, err := s.encryptor.Encrypt(data)
	if err != nil {
		return fmt.Errorf("failed to encrypt session: %w", err)
	}

	key := s.BuildCacheKey(session.ConversationID)
	if err := s.cacheClient.Set(ctx, key, []byte(encrypted), s.ttl); err != nil {
		return fmt.Errorf("failed to store session in cache: %w", err)
	}

	return nil
}

// AppendMessages adds messages to an existing session's snapshot.
func (s *service) AppendMessages(ctx context.Context, conversationID string, newMessages []*models.Message) error {
	session, err := s.GetSession(ctx, conversationID)
	if err != nil {
		return fmt.Errorf("failed to get session for update: %w", err)
	}

	if session == nil {
		return fmt.Errorf("session not found")
	}

	session.Messages = append(session.Messages, newMessages...)

	// Trim to max count (remove oldest entries)
	if len(session.Messages) > s.historyCount {
		excess := len(session.Messages) - s.historyCount
		session.Messages = session.Messages[excess:]
	}

	for _, m := range newMessages {
		if m.TokenUsage != nil {
			session.CumulativeTotal += m.TokenUsage.TotalTokens
		}
	}

	return s.SetSession(ctx, session)
}

// DeleteSession removes a session from cache.
func (s *service) DeleteSession(ctx context.Context, conversationID string) error {
	key := s.BuildCacheKey(conversationID)
	_, err := s.cacheClient.Delete(ctx, key)
	if err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

// BuildCacheKey generates the cache key for a session.
func (s *service) BuildCacheKey(conversationID string) string {
	return fmt.Sprintf("session:%s", conversationID)
}

// NewSessionData creates a new SessionData for a conversation.
func NewSessionData(conversationID string, messages []*models.Message) *SessionData {
	now := time.Now().UTC()
	data := &SessionData{
		ConversationID: conversationID,
		Messages:       messages,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	for _, m := range messages {
		if m.TokenUsage != nil {
			data.CumulativeTotal += m.TokenUsage.TotalTokens
		}
	}
	return data
}
