// Package main is the entry point for the Nagare Chat Service.
// @title Nagare Chat Service API
// @version 1.0
// @description Streaming chat service over OpenAI-compatible Responses endpoints with retrieval and web search tooling
// @termsOfService http://swagger.io/terms/

// @contact.name API Support
// @contact.url https://github.com/nagare-ai/chat-service
// @contact.email support@nagare.ai

// @license.name MIT
// @license.url https://opensource.org/licenses/MIT

// @host localhost:8080
// @BasePath /
// @schemes http https
package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/nagare-ai/chat-service/docs"
	"github.com/nagare-ai/chat-service/internal/api/handlers"
	"github.com/nagare-ai/chat-service/internal/api/middleware"
	"github.com/nagare-ai/chat-service/internal/api/routes"
	"github.com/nagare-ai/chat-service/internal/config"
	"github.com/nagare-ai/chat-service/internal/core/cache"
	"github.com/nagare-ai/chat-service/internal/core/docdb"
	"github.com/nagare-ai/chat-service/internal/core/vault"
	"github.com/nagare-ai/chat-service/internal/domain/models"
	rediscache "github.com/nagare-ai/chat-service/internal/infrastructure/cache/redis"
	"github.com/nagare-ai/chat-service/internal/infrastructure/docdb/mongodb"
	dotenvvault "github.com/nagare-ai/chat-service/internal/infrastructure/vault/dotenv"
	"github.com/nagare-ai/chat-service/internal/pkg/encryption"
	"github.com/nagare-ai/chat-service/internal/services/chat"
	"github.com/nagare-ai/chat-service/internal/services/files"
	"github.com/nagare-ai/chat-service/internal/services/policy"
	"github.com/nagare-ai/chat-service/internal/services/responses"
	"github.com/nagare-ai/chat-service/internal/services/session"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	logger := newLogger(cfg.Log)
	ctx := context.Background()

	// Initialize vault client using factory pattern
	vaultClient, err := createVaultClient(cfg.Vault)
	if err != nil {
		log.Fatalf("failed to initialize vault client: %v", err)
	}
	defer vaultClient.Close()

	// Initialize cache client using factory pattern
	cacheClient, err := createCacheClient(cfg.Cache)
	if err != nil {
		log.Fatalf("failed to initialize cache client: %v", err)
	}
	defer cacheClient.Close()

	// Initialize document db client using factory pattern
	docDBClient, err := createDocDBClient(ctx, cfg.DocDB)
	if err != nil {
		log.Fatalf("failed to initialize document db client: %v", err)
	}
	defer docDBClient.Close(ctx)

	// Ensure database indexes
	if mongoClient, ok := docDBClient.(*mongodb.Client); ok {
		if err := mongoClient.EnsureIndexes(ctx); err != nil {
			log.Printf("warning: failed to ensure indexes: %v", err)
		}
	}

	// Initialize encryptor
	encryptor, err := createEncryptor(cfg.Vault, vaultClient)
	if err != nil {
		log.Fatalf("failed to initialize encryptor: %v", err)
	}

	// Initialize session service
	sessionService, err := session.NewService(&session.Config{
		CacheClient: cacheClient,
		Encryptor:   encryptor,
		TTL:         cfg.Cache.TTL,
	})
	if err != nil {
		log.Fatalf("failed to initialize session service: %v", err)
	}

	// Resolve the upstream API key through the vault
	apiKey, err := vaultClient.GetSecret(ctx, "dotenv://"+cfg.Upstream.APIKeyVar, false)
	if err != nil || apiKey == "" {
		log.Fatalf("upstream API key not available (%s): %v", cfg.Upstream.APIKeyVar, err)
	}

	// Initialize policy service
	policyService, err := createPolicyService(cfg.Policy, logger)
	if err != nil {
		log.Fatalf("failed to initialize policy service: %v", err)
	}

	// Initialize the chat pipeline
	chatService, filesClient, err := createChatService(cfg, apiKey, docDBClient, sessionService, policyService, logger)
	if err != nil {
		log.Fatalf("failed to initialize chat service: %v", err)
	}

	// Set Gin mode
	gin.SetMode(cfg.Server.GinMode)

	// Setup router
	router := setupRouter(cacheClient, docDBClient, chatService, filesClient, policyService, logger)

	// Create HTTP server
	srv := &http.Server{
		Addr:    cfg.Server.Address(),
		Handler: router,
	}

	// Start server in goroutine
	go func() {
		log.Printf("Starting server on %s", cfg.Server.Address())
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal for graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("server forced to shutdown: %v", err)
	}

	log.Println("Server exited")
}

// newLogger builds the process-wide zerolog logger.
func newLogger(cfg config.LogConfig) zerolog.Logger {
	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil {
		level = zerolog.InfoLevel
	}

	logger := zerolog.New(os.Stdout).Level(level).With().Timestamp().Logger()
	if cfg.Format == "console" {
		logger = logger.Output(zerolog.ConsoleWriter{Out: os.Stdout})
	}
	return logger
}

// createVaultClient creates a vault client based on the configuration.
func createVaultClient(cfg config.VaultConfig) (vault.Client, error) {
	vaultType := vault.Type(cfg.Type)

	switch vaultType {
	case vault.TypeDotEnv:
		return dotenvvault.NewClient()
	default:
		log.Fatalf("unsupported vault type: %s", cfg.Type)
		return nil, nil
	}
}

// createCacheClient creates a cache client based on the configuration.
func createCacheClient(cfg config.CacheConfig) (cache.Client, error) {
	cacheType := cache.Type(cfg.Type)

	switch cacheType {
	case cache.TypeRedis:
		return rediscache.NewClient(rediscache.Config{
			Host:       cfg.Host,
			Port:       cfg.Port,
			Password:   cfg.Password,
			DB:         cfg.DB,
			DefaultTTL: cfg.TTL,
		})
	default:
		log.Fatalf("unsupported cache type: %s", cfg.Type)
		return nil, nil
	}
}

// createDocDBClient creates a document database client based on the configuration.
func createDocDBClient(ctx context.Context, cfg config.DocDBConfig) (docdb.Client, error) {
	docDBType := docdb.Type(cfg.Type)

	switch docDBType {
	case docdb.TypeMongoDB:
		return mongodb.NewClient(ctx, &mongodb.ClientConfig{
			URI:          cfg.URI,
			DatabaseName: cfg.Database,
		})
	case docdb.TypeCosmosDB:
		// CosmosDB uses MongoDB protocol, so we can use the same client
		return mongodb.NewClient(ctx, &mongodb.ClientConfig{
			URI:          cfg.URI,
			DatabaseName: cfg.Database,
		})
	default:
		log.Fatalf("unsupported docdb type: %s", cfg.Type)
		return nil, nil
	}
}

// createEncryptor creates an encryptor based on the configuration.
func createEncryptor(cfg config.VaultConfig, vaultClient vault.Client) (encryption.Encryptor, error) {
	encryptionKey := cfg.EncryptionKey
	if encryptionKey == "" {
		key, err := vaultClient.GetSecret(context.Background(), "dotenv://SECRETS_ENCRYPTION_KEY", false)
		if err == nil && key != "" {
			encryptionKey = key
		}
	}

	if encryptionKey == "" {
		// Use NoOp encryptor in development
		log.Println("warning: SECRETS_ENCRYPTION_KEY not set, using NoOp encryptor")
		return encryption.NewNoOpEncryptor(), nil
	}

	return encryption.NewAESEncryptor(encryptionKey)
}

// createPolicyService loads the signed deployment policy.
func createPolicyService(cfg config.PolicyConfig, logger zerolog.Logger) (*policy.Service, error) {
	return policy.NewService(&policy.ServiceConfig{
		Path:       cfg.Path,
		SigningKey: os.Getenv(cfg.SigningKeyVar),
		Logger:     logger.With().Str("component", "policy").Logger(),
	})
}

// createChatService wires the upstream transport, orchestrator and chat
// service, and the files client alongside them.
func createChatService(
	cfg *config.Config,
	apiKey string,
	docDBClient docdb.Client,
	sessionService session.Service,
	policyService *policy.Service,
	logger zerolog.Logger,
) (*chat.Service, *files.Client, error) {
	conn := buildConnectionSettings(cfg, apiKey)

	var proxy *responses.ProxyConfig
	if conn.Proxy != nil {
		proxy = &responses.ProxyConfig{
			HTTPProxy:  conn.Proxy.HTTPProxy,
			HTTPSProxy: conn.Proxy.HTTPSProxy,
		}
	}

	responsesClient, err := responses.NewClient(&responses.ClientConfig{
		BaseURL: conn.BaseURL,
		APIKey:  conn.APIKey,
		Proxy:   proxy,
		Timeout: cfg.Upstream.Timeout,
		Logger:  logger.With().Str("component", "responses").Logger(),
	})
	if err != nil {
		return nil, nil, err
	}

	var transport responses.Transport
	if cfg.Upstream.DisableStreaming {
		transport = responses.NewNonStreamingTransport(responsesClient)
	} else {
		transport = responses.NewStreamingTransport(responsesClient)
	}

	orchestrator, err := chat.NewOrchestrator(&chat.OrchestratorConfig{
		Transport: transport,
		Logger:    logger.With().Str("component", "orchestrator").Logger(),
	})
	if err != nil {
		return nil, nil, err
	}

	chatService, err := chat.NewService(&chat.ServiceConfig{
		DB:              docDBClient,
		Sessions:        sessionService,
		Orchestrator:    orchestrator,
		Policy:          policyService,
		Logger:          logger.With().Str("component", "chat").Logger(),
		DefaultModel:    cfg.Upstream.DefaultModel,
		MaxOutputTokens: cfg.Upstream.MaxOutputTokens,
	})
	if err != nil {
		return nil, nil, err
	}

	filesClient, err := files.NewClient(&files.ClientConfig{
		BaseURL: conn.BaseURL,
		APIKey:  conn.APIKey,
		Proxy:   proxy,
		Logger:  logger.With().Str("component", "files").Logger(),
	})
	if err != nil {
		return nil, nil, err
	}

	return chatService, filesClient, nil
}

// buildConnectionSettings assembles the upstream connection from configuration
// and the vault-resolved API key. Both upstream clients share it.
func buildConnectionSettings(cfg *config.Config, apiKey string) *models.ConnectionSettings {
	conn := &models.ConnectionSettings{
		BaseURL: cfg.Upstream.BaseURL,
		APIKey:  apiKey,
	}
	if cfg.Upstream.HTTPProxy != "" || cfg.Upstream.HTTPSProxy != "" {
		conn.Proxy = &models.ProxySettings{
			HTTPProxy:  cfg.Upstream.HTTPProxy,
			HTTPSProxy: cfg.Upstream.HTTPSProxy,
		}
	}
	return conn
}

// setupRouter creates and configures the Gin router.
func setupRouter(
	cacheClient cache.Client,
	docDBClient docdb.Client,
	chatService *chat.Service,
	filesClient *files.Client,
	policyService *policy.Service,
	logger zerolog.Logger,
) *gin.Engine {
	router := gin.New()

	// Create middleware
	loggingMw := middleware.NewLoggingMiddleware()
	errorMw := middleware.NewErrorMiddleware()
	policyGate := middleware.NewPolicyGate(policyService)

	// Create handlers
	healthHandler := handlers.NewHealthHandler(cacheClient, docDBClient)
	messagesHandler := handlers.NewMessagesHandler(chatService, logger.With().Str("component", "messages").Logger())
	conversationsHandler := handlers.NewConversationsHandler(chatService)
	filesHandler := handlers.NewFilesHandler(filesClient, docDBClient, policyService)
	policyHandler := handlers.NewPolicyHandler(policyService)

	// Setup routes
	routesCfg := &routes.Config{
		HealthHandler:        healthHandler,
		MessagesHandler:      messagesHandler,
		ConversationsHandler: conversationsHandler,
		FilesHandler:         filesHandler,
		PolicyHandler:        policyHandler,
		PolicyGate:           policyGate,
	}

	routes.SetupWithMiddleware(router, routesCfg, loggingMw, errorMw)

	router.NoRoute(middleware.NotFound())
	router.NoMethod(middleware.MethodNotAllowed())
	router.HandleMethodNotAllowed = true

	// Swagger documentation endpoint
	router.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	return router
}
