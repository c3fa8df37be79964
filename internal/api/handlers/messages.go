// Package handlers provides HTTP handlers for the API.
package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/nagare-ai/chat-service/internal/api/dto"
	"github.com/nagare-ai/chat-service/internal/api/middleware"
	"github.com/nagare-ai/chat-service/internal/api/sse"
	domainerrors "github.com/nagare-ai/chat-service/internal/domain/errors"
	"github.com/nagare-ai/chat-service/internal/domain/models"
	"github.com/nagare-ai/chat-service/internal/services/chat"
)

// MessagesHandler handles message-related endpoints.
type MessagesHandler struct {
	chatService *chat.Service
	logger      zerolog.Logger
}

// NewMessagesHandler creates a new MessagesHandler.
func NewMessagesHandler(chatService *chat.Service, logger zerolog.Logger) *MessagesHandler {
	return &MessagesHandler{
		chatService: chatService,
		logger:      logger,
	}
}

// GetMessagesQuery represents the query parameters for getting messages.
type GetMessagesQuery struct {
	Limit  int64 `form:"limit" binding:"omitempty,min=1,max=100"`
	Offset int64 `form:"offset" binding:"omitempty,min=0"`
}

// GetMessages handles GET /conversations/{conversationId}/messages
// @Summary Get messages
// @Description Retrieves messages for a conversation in chronological order with pagination
// @Tags Messages
// @Produce json
// @Param conversationId path string true "Conversation ID"
// @Param limit query int false "Maximum number of messages" default(50) minimum(1) maximum(100)
// @Param offset query int false "Offset for pagination" default(0) minimum(0)
// @Success 200 {object} dto.GetMessagesResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse
// @Failure 500 {object} dto.ErrorResponse
// @Router /api/v1/chat-service/conversations/{conversationId}/messages [get]
func (h *MessagesHandler) GetMessages(c *gin.Context) {
	ctx := c.Request.Context()
	conversationID := c.Param("conversationId")

	var query GetMessagesQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		middleware.HandleError(c, domainerrors.NewValidationError("invalid query parameters", err.Error()))
		return
	}
	if query.Limit == 0 {
		query.Limit = 50
	}

	messages, total, err := h.chatService.GetMessages(ctx, conversationID, query.Limit, query.Offset)
	if err != nil {
		middleware.HandleError(c, err)
		return
	}

	out := make([]*dto.MessageResponse, 0, len(messages))
	for _, m := range messages {
		out = append(out, dto.NewMessageResponse(m))
	}

	c.JSON(http.StatusOK, dto.GetMessagesResponse{
		Messages: out,
		Total:    total,
		Limit:    query.Limit,
		Offset:   query.Offset,
	})
}

// SendMessage handles POST /conversations/{conversationId}/messages
// @Summary Send a message
// @Description Runs a chat turn against the conversation and returns the assistant response (supports SSE streaming)
// @Tags Messages
// @Accept json
// @Produce json
// @Param conversationId path string true "Conversation ID"
// @Param request body dto.SendMessageRequest true "Message content and turn options"
// @Success 200 {object} dto.SendMessageResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse
// @Failure 500 {object} dto.ErrorResponse
// @Router /api/v1/chat-service/conversations/{conversationId}/messages [post]
func (h *MessagesHandler) SendMessage(c *gin.Context) {
	conversationID := c.Param("conversationId")

	var req dto.SendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.HandleError(c, domainerrors.NewValidationError("invalid request body", err.Error()))
		return
	}

	params := &chat.SendParams{
		ConversationID:   conversationID,
		Content:          req.Content,
		Attachments:      toAttachments(req.Attachments),
		VectorStoreIDs:   req.VectorStoreIDs,
		WebSearchEnabled: req.WebSearchEnabled,
		Model:            req.Model,
	}

	if req.Stream {
		h.sendStreaming(c, params)
		return
	}
	h.sendBlocking(c, params)
}

// sendStreaming runs the turn while relaying lifecycle events over SSE.
func (h *MessagesHandler) sendStreaming(c *gin.Context, params *chat.SendParams) {
	writer, err := sse.NewWriter(c.Writer)
	if err != nil {
		middleware.HandleError(c, domainerrors.NewInternalError("streaming not supported", err))
		return
	}

	ctx := c.Request.Context()
	message, err := h.chatService.SendMessage(ctx, params, chat.TurnEvents{
		OnStart: func(_, draft *models.Message) {
			_ = writer.WriteStreamStart(draft.ID, params.ConversationID)
		},
		OnStatus: func(status string) {
			_ = writer.WriteStatus(status)
		},
		OnSnapshot: func(text string) {
			_ = writer.WriteSnapshot(text)
		},
	})

	if err != nil {
		if errors.Is(err, context.Canceled) {
			// Client went away mid-stream; the partial text is already
			// persisted, nothing left to write.
			h.logger.Debug().Str("conversation_id", params.ConversationID).Msg("turn cancelled by client")
			return
		}
		code := domainerrors.ErrCodeInternal
		details := ""
		if domainErr, ok := domainerrors.GetDomainError(err); ok {
			code = domainErr.Code
			details = domainErr.Details
		}
		_ = writer.WriteStreamError(code, err.Error(), details)
		_ = writer.WriteDone()
		return
	}

	_ = writer.WriteStreamEnd(dto.NewMessageResponse(message))
	_ = writer.WriteDone()
}

// sendBlocking runs the turn and replies with a single JSON document.
func (h *MessagesHandler) sendBlocking(c *gin.Context, params *chat.SendParams) {
	message, err := h.chatService.SendMessage(c.Request.Context(), params, chat.TurnEvents{})
	if err != nil {
		middleware.HandleError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.SendMessageResponse{
		Message: dto.NewMessageResponse(message),
	})
}

func toAttachments(in []dto.AttachmentRequest) []models.FileAttachment {
	if len(in) == 0 {
		return nil
	}
	out := make([]models.FileAttachment, 0, len(in))
	for _, a := range in {
		hints := make([]models.ToolHint, 0, len(a.ToolHints))
		for _, hint := range a.ToolHints {
			hints = append(hints, models.ToolHint(hint))
		}
		out = append(out, models.FileAttachment{
			FileID:    a.FileID,
			FileName:  a.FileName,
			ToolHints: hints,
		})
	}
	return out
}
