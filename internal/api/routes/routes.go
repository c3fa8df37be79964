// Package routes defines the HTTP routes for the Nagare Chat Service.
package routes

import (
	"github.com/gin-gonic/gin"

	"github.com/nagare-ai/chat-service/internal/api/handlers"
	"github.com/nagare-ai/chat-service/internal/api/middleware"
)

// Config holds the dependencies for setting up routes.
type Config struct {
	HealthHandler        *handlers.HealthHandler
	MessagesHandler      *handlers.MessagesHandler
	ConversationsHandler *handlers.ConversationsHandler
	FilesHandler         *handlers.FilesHandler
	PolicyHandler        *handlers.PolicyHandler
	PolicyGate           *middleware.PolicyGate
}

// Setup configures all routes on the Gin engine.
func Setup(r *gin.Engine, cfg *Config) {
	// API v1 routes - all routes under /api/v1/chat-service
	v1 := r.Group("/api/v1/chat-service")
	{
		// Health check routes (no gating)
		v1.GET("/health", cfg.HealthHandler.Health)
		v1.GET("/ready", cfg.HealthHandler.Ready)
		v1.GET("/live", cfg.HealthHandler.Live)

		// Policy status is readable before gating so clients can render
		// their capabilities up front.
		v1.GET("/policy", cfg.PolicyHandler.GetPolicyStatus)
		v1.POST("/policy/admin-login", cfg.PolicyHandler.AdminLogin)

		// Everything else sits behind the organization whitelist.
		gated := v1.Group("")
		gated.Use(cfg.PolicyGate.RequireAllowedOrg())

		conversations := gated.Group("/conversations")
		{
			conversations.GET("", cfg.ConversationsHandler.ListConversations)
			conversations.POST("", cfg.ConversationsHandler.CreateConversation)
			conversations.GET("/:conversationId", cfg.ConversationsHandler.GetConversation)
			conversations.DELETE("/:conversationId", cfg.ConversationsHandler.DeleteConversation)

			conversations.GET("/:conversationId/messages", cfg.MessagesHandler.GetMessages)
			conversations.POST("/:conversationId/messages", cfg.MessagesHandler.SendMessage)
		}

		gated.POST("/files", cfg.FilesHandler.UploadFile)
		gated.DELETE("/files/:fileId", cfg.FilesHandler.DeleteFile)

		vectorStores := gated.Group("/vector-stores")
		{
			vectorStores.GET("", cfg.FilesHandler.ListVectorStores)
			vectorStores.POST("", cfg.FilesHandler.CreateVectorStore)
			vectorStores.POST("/:storeId/files", cfg.FilesHandler.AddVectorStoreFile)
		}
	}
}

// SetupWithMiddleware sets up routes with common middleware.
func SetupWithMiddleware(r *gin.Engine, cfg *Config, loggingMw *middleware.LoggingMiddleware, errorMw *middleware.ErrorMiddleware) {
	// Apply global middleware
	r.Use(middleware.NewCORSMiddleware(middleware.DefaultCORSConfig()))
	r.Use(loggingMw.Logger())
	r.Use(errorMw.Recovery())
	r.Use(gin.Recovery())

	// Setup routes
	Setup(r, cfg)
}
