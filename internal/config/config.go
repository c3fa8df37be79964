// Package config handles application configuration loading and management.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application.
type Config struct {
	Server   ServerConfig
	Cache    CacheConfig
	DocDB    DocDBConfig
	Vault    VaultConfig
	Upstream UpstreamConfig
	Policy   PolicyConfig
	Log      LogConfig
}

// ServerConfig holds server-related configuration.
type ServerConfig struct {
	Host    string
	Port    int
	GinMode string
}

// Address returns the server address in host:port format.
func (c ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// CacheConfig holds cache-related configuration.
type CacheConfig struct {
	Type     string
	Host     string
	Port     string
	Password string
	DB       int
	TTL      time.Duration
}

// DocDBConfig holds document database configuration.
type DocDBConfig struct {
	Type     string
	URI      string
	Database string
}

// VaultConfig holds vault configuration.
type VaultConfig struct {
	Type          string
	EncryptionKey string
}

// UpstreamConfig holds the model provider connection configuration.
type UpstreamConfig struct {
	BaseURL   string
	APIKeyVar string
	Timeout   time.Duration

	HTTPProxy  string
	HTTPSProxy string

	// DisableStreaming switches the upstream transport to a single
	// request/response exchange replayed as a completed stream. For
	// providers that reject stream=true.
	DisableStreaming bool

	// DefaultModel is used when a turn does not name a model.
	DefaultModel string

	// MaxOutputTokens caps generation length when > 0.
	MaxOutputTokens int
}

// PolicyConfig holds deployment policy configuration.
type PolicyConfig struct {
	// Path to the signed policy JSON file. Empty disables policy
	// enforcement entirely.
	Path string

	// SigningKeyVar names the environment variable holding the HMAC key
	// used to verify the policy file signature.
	SigningKeyVar string
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level  string
	Format string
}

// Load loads configuration from environment variables.
func Load() (*Config, error) {
	// Load .env file if it exists (ignore error if not found)
	_ = godotenv.Load()

	cfg := &Config{
		Server: ServerConfig{
			Host:    getEnv("SERVER_HOST", "0.0.0.0"),
			Port:    getEnvAsInt("SERVER_PORT", 8080),
			GinMode: getEnv("GIN_MODE", "debug"),
		},
		Cache: CacheConfig{
			Type:     getEnv("CACHE_TYPE", "redis"),
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
			TTL:      time.Duration(getEnvAsInt("CACHE_TTL_SECONDS", 180)) * time.Second,
		},
		DocDB: DocDBConfig{
			Type:     getEnv("DOCDB_TYPE", "mongodb"),
			URI:      getEnv("MONGODB_URI", "mongodb://localhost:27017"),
			Database: getEnv("MONGODB_DATABASE", "nagare"),
		},
		Vault: VaultConfig{
			Type:          getEnv("VAULT_TYPE", "dotenv"),
			EncryptionKey: getEnv("SECRETS_ENCRYPTION_KEY", ""),
		},
		Upstream: UpstreamConfig{
			BaseURL:          getEnv("UPSTREAM_BASE_URL", "https://api.openai.com/v1"),
			APIKeyVar:        getEnv("UPSTREAM_API_KEY_VAR", "OPENAI_API_KEY"),
			Timeout:          time.Duration(getEnvAsInt("UPSTREAM_TIMEOUT_SECONDS", 300)) * time.Second,
			HTTPProxy:        getEnv("UPSTREAM_HTTP_PROXY", ""),
			HTTPSProxy:       getEnv("UPSTREAM_HTTPS_PROXY", ""),
			DisableStreaming: getEnvAsBool("UPSTREAM_DISABLE_STREAMING", false),
			DefaultModel:     getEnv("UPSTREAM_DEFAULT_MODEL", "gpt-4o"),
			MaxOutputTokens:  getEnvAsInt("UPSTREAM_MAX_OUTPUT_TOKENS", 0),
		},
		Policy: PolicyConfig{
			Path:          getEnv("POLICY_FILE", ""),
			SigningKeyVar: getEnv("POLICY_SIGNING_KEY_VAR", "POLICY_SIGNING_KEY"),
		},
		Log: LogConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
	}

	return cfg, nil
}

// getEnv gets an environment variable with a default value.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt gets an environment variable as an integer with a default value.
func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// getEnvAsBool gets an environment variable as a boolean with a default value.
func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}
