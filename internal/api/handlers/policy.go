package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/nagare-ai/chat-service/internal/api/dto"
	"github.com/nagare-ai/chat-service/internal/api/middleware"
	domainerrors "github.com/nagare-ai/chat-service/internal/domain/errors"
	"github.com/nagare-ai/chat-service/internal/services/policy"
)

// PolicyHandler exposes the deployment policy to clients.
type PolicyHandler struct {
	policy *policy.Service
}

// NewPolicyHandler creates a new PolicyHandler.
func NewPolicyHandler(policySvc *policy.Service) *PolicyHandler {
	return &PolicyHandler{policy: policySvc}
}

// GetPolicyStatus handles GET /policy
// @Summary Get policy status
// @Description Reports which features the deployment policy permits
// @Tags Policy
// @Produce json
// @Success 200 {object} dto.PolicyStatusResponse
// @Router /api/v1/chat-service/policy [get]
func (h *PolicyHandler) GetPolicyStatus(c *gin.Context) {
	c.JSON(http.StatusOK, dto.PolicyStatusResponse{
		WebSearchAllowed:          h.policy.WebSearchAllowed(),
		VectorStoreAllowed:        h.policy.VectorStoreAllowed(),
		FileUploadAllowed:         h.policy.FileUploadAllowed(),
		ChatFileAttachmentAllowed: h.policy.ChatFileAttachmentAllowed(),
	})
}

// AdminLogin handles POST /policy/admin-login
// @Summary Verify admin password
// @Description Checks the admin password against the policy's stored hash
// @Tags Policy
// @Accept json
// @Produce json
// @Param request body dto.AdminLoginRequest true "Admin credentials"
// @Success 200 {object} dto.AdminLoginResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 401 {object} dto.ErrorResponse
// @Router /api/v1/chat-service/policy/admin-login [post]
func (h *PolicyHandler) AdminLogin(c *gin.Context) {
	var req dto.AdminLoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.HandleError(c, domainerrors.NewValidationError("invalid request body", err.Error()))
		return
	}

	if !h.policy.VerifyAdminPassword(req.Password) {
		middleware.HandleError(c, domainerrors.NewUnauthorizedError("invalid admin password"))
		return
	}

	c.JSON(http.StatusOK, dto.AdminLoginResponse{Authenticated: true})
}
