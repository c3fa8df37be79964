package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/bson"

	"github.com/nagare-ai/chat-service/internal/core/docdb"
	domainerrors "github.com/nagare-ai/chat-service/internal/domain/errors"
	"github.com/nagare-ai/chat-service/internal/domain/models"
	"github.com/nagare-ai/chat-service/internal/services/session"
)

const maxTitleLength = 60

// TurnPolicy strips capabilities a deployment disallows from a turn before
// it runs. Implementations must not block.
type TurnPolicy interface {
	Apply(turn *TurnRequest)
}

// SendParams describes one user prompt submission.
type SendParams struct {
	ConversationID   string
	Content          string
	Attachments      []models.FileAttachment
	VectorStoreIDs   []string
	WebSearchEnabled bool
	Model            string
}

// TurnEvents receives live notifications while a turn runs. Nil funcs are
// skipped.
type TurnEvents struct {
	// OnStart fires once, after the user message and assistant draft are
	// persisted and before the upstream request opens.
	OnStart func(userMessage, draft *models.Message)

	// OnStatus receives human-readable status changes.
	OnStatus func(status string)

	// OnSnapshot receives the full accumulated text after every delta.
	OnSnapshot func(text string)
}

// ServiceConfig holds the configuration for the chat service.
type ServiceConfig struct {
	DB           docdb.Client
	Sessions     session.Service
	Orchestrator *Orchestrator
	Policy       TurnPolicy
	Logger       zerolog.Logger

	DefaultModel    string
	MaxOutputTokens int
}

// Service runs chat turns against persistent conversations: it owns message
// and conversation storage, the session cache and turn execution.
type Service struct {
	db              docdb.Client
	sessions        session.Service
	orchestrator    *Orchestrator
	policy          TurnPolicy
	logger          zerolog.Logger
	defaultModel    string
	maxOutputTokens int
}

// NewService creates a new chat service.
func NewService(cfg *ServiceConfig) (*Service, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}
	if cfg.DB == nil {
		return nil, fmt.Errorf("database client is required")
	}
	if cfg.Orchestrator == nil {
		return nil, fmt.Errorf("orchestrator is required")
	}

	return &Service{
		db:              cfg.DB,
		sessions:        cfg.Sessions,
		orchestrator:    cfg.Orchestrator,
		policy:          cfg.Policy,
		logger:          cfg.Logger,
		defaultModel:    cfg.DefaultModel,
		maxOutputTokens: cfg.MaxOutputTokens,
	}, nil
}

// CreateConversation creates and persists a new conversation.
func (s *Service) CreateConversation(ctx context.Context, title, model, systemRole string) (*models.Conversation, error) {
	conversation := models.NewConversation(title, model, systemRole)
	conversation.ID = uuid.NewString()

	if _, err := s.db.Conversations().InsertOne(ctx, conversation); err != nil {
		return nil, domainerrors.NewInternalError("failed to create conversation", err)
	}
	return conversation, nil
}

// GetConversation fetches a conversation by ID.
func (s *Service) GetConversation(ctx context.Context, id string) (*models.Conversation, error) {
	var conversation models.Conversation
	result := s.db.Conversations().FindOne(ctx, bson.M{"_id": id})
	if err := result.Decode(&conversation); err != nil {
		return nil, domainerrors.NewNotFoundError("conversation", id)
	}
	return &conversation, nil
}

// ListConversations returns conversations ordered by most recent activity.
func (s *Service) ListConversations(ctx context.Context, limit, offset int64) ([]*models.Conversation, int64, error) {
	filter := bson.M{}
	total, err := s.db.Conversations().CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, domainerrors.NewInternalError("failed to count conversations", err)
	}

	cursor, err := s.db.Conversations().Find(ctx, filter, &docdb.FindOptions{
		Limit: limit,
		Skip:  offset,
		Sort:  bson.D{{Key: "updatedAt", Value: -1}},
	})
	if err != nil {
		return nil, 0, domainerrors.NewInternalError("failed to list conversations", err)
	}
	defer cursor.Close(ctx)

	var conversations []*models.Conversation
	if err := cursor.All(ctx, &conversations); err != nil {
		return nil, 0, domainerrors.NewInternalError("failed to decode conversations", err)
	}
	return conversations, total, nil
}

// DeleteConversation removes a conversation, its messages and its cached
// session.
func (s *Service) DeleteConversation(ctx context.Context, id string) error {
	if _, err := s.GetConversation(ctx, id); err != nil {
		return err
	}

	if _, err := s.db.Messages().DeleteMany(ctx, bson.M{"conversationId": id}); err != nil {
		return domainerrors.NewInternalError("failed to delete messages", err)
	}
	if _, err := s.db.Conversations().DeleteOne(ctx, bson.M{"_id": id}); err != nil {
		return domainerrors.NewInternalError("failed to delete conversation", err)
	}
	if s.sessions != nil {
		if err := s.sessions.DeleteSession(ctx, id); err != nil {
			s.logger.Warn().Err(err).Str("conversation_id", id).Msg("failed to evict session")
		}
	}
	return nil
}

// GetMessages returns a page of conversation messages in chronological order.
func (s *Service) GetMessages(ctx context.Context, conversationID string, limit, offset int64) ([]*models.Message, int64, error) {
	filter := bson.M{"conversationId": conversationID}

	total, err := s.db.Messages().CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, domainerrors.NewInternalError("failed to count messages", err)
	}

	cursor, err := s.db.Messages().Find(ctx, filter, &docdb.FindOptions{
		Limit: limit,
		Skip:  offset,
		Sort:  bson.D{{Key: "createdAt", Value: 1}},
	})
	if err != nil {
		return nil, 0, domainerrors.NewInternalError("failed to fetch messages", err)
	}
	defer cursor.Close(ctx)

	var messages []*models.Message
	if err := cursor.All(ctx, &messages); err != nil {
		return nil, 0, domainerrors.NewInternalError("failed to decode messages", err)
	}
	return messages, total, nil
}

// SendMessage runs one full chat turn: it persists the user message, streams
// the assistant response with live snapshot persistence, and returns the
// finalized assistant message. On upstream failure or cancellation the
// assistant message is still returned in its terminal error/cancelled state
// together with the error.
func (s *Service) SendMessage(ctx context.Context, params *SendParams, events TurnEvents) (*models.Message, error) {
	if params == nil {
		return nil, domainerrors.NewBadRequestError("request is required", "")
	}
	if strings.TrimSpace(params.Content) == "" && len(params.Attachments) == 0 {
		return nil, domainerrors.NewValidationError("message content is required", "")
	}

	conversation, err := s.GetConversation(ctx, params.ConversationID)
	if err != nil {
		return nil, err
	}

	history, priorTokens, err := s.loadHistory(ctx, conversation.ID)
	if err != nil {
		return nil, err
	}

	userMessage := models.NewUserMessage(conversation.ID, params.Content, params.Attachments)
	userMessage.ID = uuid.NewString()
	if _, err := s.db.Messages().InsertOne(ctx, userMessage); err != nil {
		return nil, domainerrors.NewInternalError("failed to persist user message", err)
	}

	draft := models.NewAssistantDraft(conversation.ID)
	draft.ID = uuid.NewString()
	if _, err := s.db.Messages().InsertOne(ctx, draft); err != nil {
		return nil, domainerrors.NewInternalError("failed to persist assistant draft", err)
	}

	if events.OnStart != nil {
		events.OnStart(userMessage, draft)
	}

	model := params.Model
	if model == "" {
		model = conversation.Model
	}
	if model == "" {
		model = s.defaultModel
	}

	turn := &TurnRequest{
		Model:            model,
		Messages:         append(append([]*models.Message{}, history...), userMessage),
		SystemRole:       conversation.SystemRole,
		Attachments:      params.Attachments,
		VectorStoreIDs:   params.VectorStoreIDs,
		WebSearchEnabled: params.WebSearchEnabled,
		MaxOutputTokens:  s.maxOutputTokens,
	}
	if s.policy != nil {
		s.policy.Apply(turn)
	}

	result, runErr := s.orchestrator.RunTurn(ctx, turn, Callbacks{
		OnStatus:   events.OnStatus,
		OnSnapshot: events.OnSnapshot,
		Persist: func(persistCtx context.Context, text string) error {
			draft.SetText(text)
			return s.saveMessage(persistCtx, draft)
		},
	})

	// Terminal state writes must survive client disconnects.
	saveCtx := context.WithoutCancel(ctx)

	if runErr != nil {
		switch {
		case errors.Is(runErr, context.Canceled), errors.Is(runErr, context.DeadlineExceeded):
			draft.SetCancelled()
		case errors.Is(runErr, ErrNothingToSend):
			draft.SetError("nothing to send", "resolved provider input is empty")
		default:
			draft.SetError("response generation failed", runErr.Error())
		}
		if err := s.saveMessage(saveCtx, draft); err != nil {
			s.logger.Error().Err(err).Str("message_id", draft.ID).Msg("failed to persist terminal message state")
		}
		return draft, runErr
	}

	draft.SetText(result.Text)
	draft.AppendSources(result.Sources)
	draft.UsedTools = result.UsedTools
	if result.TokenUsage != nil {
		usage := *result.TokenUsage
		usage.CumulativeTotal = priorTokens + usage.TotalTokens
		draft.TokenUsage = &usage
	}
	draft.SetComplete()

	if err := s.saveMessage(saveCtx, draft); err != nil {
		return draft, domainerrors.NewInternalError("failed to persist assistant message", err)
	}

	s.touchConversation(saveCtx, conversation, params.Content)
	s.updateSession(saveCtx, conversation.ID, history, userMessage, draft)

	return draft, nil
}

// loadHistory returns the conversation's prior messages together with the
// running token total accumulated over them, preferring the cached session
// snapshot over a storage query. The cached snapshot is windowed, so its
// running total must be consulted rather than re-summed from the messages it
// still holds.
func (s *Service) loadHistory(ctx context.Context, conversationID string) ([]*models.Message, int, error) {
	if s.sessions != nil {
		cached, err := s.sessions.GetSession(ctx, conversationID)
		if err != nil {
			s.logger.Warn().Err(err).Str("conversation_id", conversationID).Msg("session lookup failed, falling back to storage")
		} else if cached != nil {
			return cached.Messages, cached.CumulativeTotal, nil
		}
	}

	messages, _, err := s.GetMessages(ctx, conversationID, 0, 0)
	if err != nil {
		return nil, 0, err
	}
	return messages, CumulativeTokens(messages, 0), nil
}

func (s *Service) saveMessage(ctx context.Context, message *models.Message) error {
	_, err := s.db.Messages().ReplaceOne(ctx, bson.M{"_id": message.ID}, message)
	if err != nil {
		return fmt.Errorf("failed to save message %s: %w", message.ID, err)
	}
	return nil
}

// touchConversation bumps the activity timestamp and fills an empty title
// from the first prompt.
func (s *Service) touchConversation(ctx context.Context, conversation *models.Conversation, content string) {
	update := bson.M{"updatedAt": time.Now().UTC()}
	if conversation.Title == "" && content != "" {
		update["title"] = truncateTitle(content)
	}
	if _, err := s.db.Conversations().UpdateOne(ctx, bson.M{"_id": conversation.ID}, bson.M{"$set": update}); err != nil {
		s.logger.Warn().Err(err).Str("conversation_id", conversation.ID).Msg("failed to touch conversation")
	}
}

// truncateTitle trims a prompt down to a display title, cutting on a rune
// boundary so multi-byte characters are never split.
func truncateTitle(content string) string {
	title := strings.TrimSpace(content)
	if utf8.RuneCountInString(title) <= maxTitleLength {
		return title
	}
	return string([]rune(title)[:maxTitleLength])
}

// updateSession refreshes the cached session snapshot after a completed turn.
// Cache failures are logged, never surfaced.
func (s *Service) updateSession(ctx context.Context, conversationID string, history []*models.Message, userMessage, assistant *models.Message) {
	if s.sessions == nil {
		return
	}
	err := s.sessions.AppendMessages(ctx, conversationID, []*models.Message{userMessage, assistant})
	if err == nil {
		return
	}

	// No session yet (or it expired): seed a fresh one.
	data := session.NewSessionData(conversationID, append(append([]*models.Message{}, history...), userMessage, assistant))
	if err := s.sessions.SetSession(ctx, data); err != nil {
		s.logger.Warn().Err(err).Str("conversation_id", conversationID).Msg("failed to update session cache")
	}
}
