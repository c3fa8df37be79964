package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/nagare-ai/chat-service/internal/api/dto"
	"github.com/nagare-ai/chat-service/internal/api/middleware"
	domainerrors "github.com/nagare-ai/chat-service/internal/domain/errors"
	"github.com/nagare-ai/chat-service/internal/services/chat"
)

// ConversationsHandler handles conversation CRUD endpoints.
type ConversationsHandler struct {
	chatService *chat.Service
}

// NewConversationsHandler creates a new ConversationsHandler.
func NewConversationsHandler(chatService *chat.Service) *ConversationsHandler {
	return &ConversationsHandler{chatService: chatService}
}

// ListConversationsQuery represents the query parameters for listing conversations.
type ListConversationsQuery struct {
	Limit  int64 `form:"limit" binding:"omitempty,min=1,max=100"`
	Offset int64 `form:"offset" binding:"omitempty,min=0"`
}

// ListConversations handles GET /conversations
// @Summary List conversations
// @Description Lists conversations ordered by most recent activity
// @Tags Conversations
// @Produce json
// @Param limit query int false "Maximum number of conversations" default(50) minimum(1) maximum(100)
// @Param offset query int false "Offset for pagination" default(0) minimum(0)
// @Success 200 {object} dto.ListConversationsResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 500 {object} dto.ErrorResponse
// @Router /api/v1/chat-service/conversations [get]
func (h *ConversationsHandler) ListConversations(c *gin.Context) {
	var query ListConversationsQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		middleware.HandleError(c, domainerrors.NewValidationError("invalid query parameters", err.Error()))
		return
	}
	if query.Limit == 0 {
		query.Limit = 50
	}

	conversations, total, err := h.chatService.ListConversations(c.Request.Context(), query.Limit, query.Offset)
	if err != nil {
		middleware.HandleError(c, err)
		return
	}

	out := make([]*dto.ConversationResponse, 0, len(conversations))
	for _, conversation := range conversations {
		out = append(out, dto.NewConversationResponse(conversation))
	}

	c.JSON(http.StatusOK, dto.ListConversationsResponse{
		Conversations: out,
		Total:         total,
		Limit:         query.Limit,
		Offset:        query.Offset,
	})
}

// CreateConversation handles POST /conversations
// @Summary Create a conversation
// @Description Creates a new conversation
// @Tags Conversations
// @Accept json
// @Produce json
// @Param request body dto.CreateConversationRequest true "Conversation attributes"
// @Success 201 {object} dto.ConversationResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 500 {object} dto.ErrorResponse
// @Router /api/v1/chat-service/conversations [post]
func (h *ConversationsHandler) CreateConversation(c *gin.Context) {
	var req dto.CreateConversationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.HandleError(c, domainerrors.NewValidationError("invalid request body", err.Error()))
		return
	}

	conversation, err := h.chatService.CreateConversation(c.Request.Context(), req.Title, req.Model, req.SystemRole)
	if err != nil {
		middleware.HandleError(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.NewConversationResponse(conversation))
}

// GetConversation handles GET /conversations/{conversationId}
// @Summary Get a conversation
// @Description Fetches a conversation by ID
// @Tags Conversations
// @Produce json
// @Param conversationId path string true "Conversation ID"
// @Success 200 {object} dto.ConversationResponse
// @Failure 404 {object} dto.ErrorResponse
// @Router /api/v1/chat-service/conversations/{conversationId} [get]
func (h *ConversationsHandler) GetConversation(c *gin.Context) {
	conversation, err := h.chatService.GetConversation(c.Request.Context(), c.Param("conversationId"))
	if err != nil {
		middleware.HandleError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewConversationResponse(conversation))
}

// DeleteConversation handles DELETE /conversations/{conversationId}
// @Summary Delete a conversation
// @Description Deletes a conversation, its messages and its cached session
// @Tags Conversations
// @Produce json
// @Param conversationId path string true "Conversation ID"
// @Success 204 "Deleted"
// @Failure 404 {object} dto.ErrorResponse
// @Failure 500 {object} dto.ErrorResponse
// @Router /api/v1/chat-service/conversations/{conversationId} [delete]
func (h *ConversationsHandler) DeleteConversation(c *gin.Context) {
	if err := h.chatService.DeleteConversation(c.Request.Context(), c.Param("conversationId")); err != nil {
		middleware.HandleError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
