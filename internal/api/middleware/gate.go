// Package middleware provides HTTP middleware for the API.
package middleware

import (
	"github.com/gin-gonic/gin"

	domainerrors "github.com/nagare-ai/chat-service/internal/domain/errors"
	"github.com/nagare-ai/chat-service/internal/services/policy"
)

// OrgHeader names the request header carrying the caller's organization ID.
const OrgHeader = "X-Org-Id"

// PolicyGate enforces the deployment policy's organization whitelist.
type PolicyGate struct {
	policy *policy.Service
}

// NewPolicyGate creates a new PolicyGate.
func NewPolicyGate(policySvc *policy.Service) *PolicyGate {
	return &PolicyGate{policy: policySvc}
}

// RequireAllowedOrg rejects requests from organizations outside the
// whitelist. An empty whitelist admits every caller, including requests
// without the header.
func (g *PolicyGate) RequireAllowedOrg() gin.HandlerFunc {
	return func(c *gin.Context) {
		orgID := c.GetHeader(OrgHeader)
		if !g.policy.OrgAllowed(orgID) {
			HandleError(c, domainerrors.NewForbiddenError("organization is not permitted"))
			return
		}
		c.Next()
	}
}
