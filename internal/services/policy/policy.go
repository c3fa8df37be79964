// Package policy loads and enforces the signed deployment policy: an
// organization whitelist, an admin password hash and per-feature restriction
// toggles distributed as a JSON file alongside the service.
package policy

import (
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/rs/zerolog"

	"github.com/nagare-ai/chat-service/internal/services/chat"
)

// OrgWhitelistEntry is one allowed organization.
type OrgWhitelistEntry struct {
	ID      string `json:"id,omitempty"`
	OrgID   string `json:"orgId"`
	OrgName string `json:"orgName"`
	AddedAt string `json:"addedAt,omitempty"`
	AddedBy string `json:"addedBy,omitempty"`
	Notes   string `json:"notes,omitempty"`
}

// FeatureRestrictions holds per-feature allow flags. Nil means the feature is
// unrestricted; an explicit false disables it.
type FeatureRestrictions struct {
	AllowWebSearch          *bool `json:"allowWebSearch,omitempty"`
	AllowVectorStore        *bool `json:"allowVectorStore,omitempty"`
	AllowFileUpload         *bool `json:"allowFileUpload,omitempty"`
	AllowChatFileAttachment *bool `json:"allowChatFileAttachment,omitempty"`
}

// Config is the on-disk policy document.
type Config struct {
	Version           int                  `json:"version,omitempty"`
	OrgWhitelist      []OrgWhitelistEntry  `json:"orgWhitelist,omitempty"`
	AdminPasswordHash string               `json:"adminPasswordHash,omitempty"`
	Features          *FeatureRestrictions `json:"features,omitempty"`
	Signature         string               `json:"signature,omitempty"`
}

// Service enforces the loaded policy. A nil-config service permits
// everything, so callers never need to branch on whether a policy file was
// deployed.
type Service struct {
	config *Config
	logger zerolog.Logger
}

// ServiceConfig holds the configuration for the policy service.
type ServiceConfig struct {
	// Path to the policy JSON file. Empty yields a permit-all service.
	Path string

	// SigningKey verifies the file signature when non-empty.
	SigningKey string

	Logger zerolog.Logger
}

// NewService loads the policy file and verifies its signature.
func NewService(cfg *ServiceConfig) (*Service, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}

	svc := &Service{logger: cfg.Logger}
	if cfg.Path == "" {
		return svc, nil
	}

	data, err := os.ReadFile(cfg.Path)
	if err != nil {
		if os.IsNotExist(err) {
			cfg.Logger.Info().Str("path", cfg.Path).Msg("policy file not found, policy enforcement disabled")
			return svc, nil
		}
		return nil, fmt.Errorf("failed to read policy file: %w", err)
	}

	var config Config
	if err := json.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse policy file: %w", err)
	}

	if cfg.SigningKey != "" {
		if err := verifySignature(&config, cfg.SigningKey); err != nil {
			return nil, err
		}
	}

	cfg.Logger.Info().
		Str("path", cfg.Path).
		Int("whitelist_entries", len(config.OrgWhitelist)).
		Bool("has_features", config.Features != nil).
		Msg("policy loaded")

	svc.config = &config
	return svc, nil
}

// verifySignature checks the HMAC-SHA256 signature over the canonical policy
// payload (the document with the signature field cleared).
func verifySignature(config *Config, key string) error {
	if config.Signature == "" {
		return fmt.Errorf("policy file is unsigned")
	}

	unsigned := *config
	unsigned.Signature = ""
	payload, err := json.Marshal(&unsigned)
	if err != nil {
		return fmt.Errorf("failed to canonicalize policy: %w", err)
	}

	mac := hmac.New(sha256.New, []byte(key))
	mac.Write(payload)
	expected := hex.EncodeToString(mac.Sum(nil))

	if !hmac.Equal([]byte(expected), []byte(strings.ToLower(config.Signature))) {
		return fmt.Errorf("policy signature verification failed")
	}
	return nil
}

// Sign computes the signature for a policy document. Used by deployment
// tooling and tests.
func Sign(config *Config, key string) (string, error) {
	unsigned := *config
	unsigned.Signature = ""
	payload, err := json.Marshal(&unsigned)
	if err != nil {
		return "", fmt.Errorf("failed to canonicalize policy: %w", err)
	}
	mac := hmac.New(sha256.New, []byte(key))
	mac.Write(payload)
	return hex.EncodeToString(mac.Sum(nil)), nil
}

// OrgAllowed reports whether the organization may use the service. An empty
// whitelist allows everyone.
func (s *Service) OrgAllowed(orgID string) bool {
	if s.config == nil || len(s.config.OrgWhitelist) == 0 {
		return true
	}
	for _, entry := range s.config.OrgWhitelist {
		if entry.OrgID == orgID {
			return true
		}
	}
	return false
}

// VerifyAdminPassword checks a plaintext password against the stored
// SHA-256 hex hash. When no hash is configured every password is rejected.
func (s *Service) VerifyAdminPassword(password string) bool {
	if s.config == nil || s.config.AdminPasswordHash == "" {
		return false
	}
	sum := sha256.Sum256([]byte(password))
	got := hex.EncodeToString(sum[:])
	want := strings.ToLower(s.config.AdminPasswordHash)
	return subtle.ConstantTimeCompare([]byte(got), []byte(want)) == 1
}

// WebSearchAllowed reports whether web search is permitted.
func (s *Service) WebSearchAllowed() bool {
	return s.allowed(func(f *FeatureRestrictions) *bool { return f.AllowWebSearch })
}

// VectorStoreAllowed reports whether vector retrieval is permitted.
func (s *Service) VectorStoreAllowed() bool {
	return s.allowed(func(f *FeatureRestrictions) *bool { return f.AllowVectorStore })
}

// FileUploadAllowed reports whether file upload is permitted.
func (s *Service) FileUploadAllowed() bool {
	return s.allowed(func(f *FeatureRestrictions) *bool { return f.AllowFileUpload })
}

// ChatFileAttachmentAllowed reports whether chat attachments are permitted.
func (s *Service) ChatFileAttachmentAllowed() bool {
	return s.allowed(func(f *FeatureRestrictions) *bool { return f.AllowChatFileAttachment })
}

func (s *Service) allowed(pick func(*FeatureRestrictions) *bool) bool {
	if s.config == nil || s.config.Features == nil {
		return true
	}
	flag := pick(s.config.Features)
	if flag == nil {
		return true
	}
	return *flag
}

// Apply strips restricted capabilities from a turn request before it runs.
func (s *Service) Apply(turn *chat.TurnRequest) {
	if turn == nil {
		return
	}
	if turn.WebSearchEnabled && !s.WebSearchAllowed() {
		s.logger.Debug().Msg("web search disabled by policy")
		turn.WebSearchEnabled = false
	}
	if len(turn.VectorStoreIDs) > 0 && !s.VectorStoreAllowed() {
		s.logger.Debug().Msg("vector retrieval disabled by policy")
		turn.VectorStoreIDs = nil
	}
	if len(turn.Attachments) > 0 && !s.ChatFileAttachmentAllowed() {
		s.logger.Debug().Msg("chat attachments disabled by policy")
		turn.Attachments = nil
	}
}
