// Package policy_test provides unit tests for policy loading and enforcement.
package policy_test

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nagare-ai/chat-service/internal/domain/models"
	"github.com/nagare-ai/chat-service/internal/services/chat"
	"github.com/nagare-ai/chat-service/internal/services/policy"
)

func boolPtr(v bool) *bool { return &v }

func writePolicyFile(t *testing.T, config *policy.Config) string {
	t.Helper()

	data, err := json.Marshal(config)
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "policy.json")
	require.NoError(t, os.WriteFile(path, data, 0o600))
	return path
}

func setupService(t *testing.T, config *policy.Config, signingKey string) *policy.Service {
	t.Helper()

	if signingKey != "" {
		signature, err := policy.Sign(config, signingKey)
		require.NoError(t, err)
		config.Signature = signature
	}

	svc, err := policy.NewService(&policy.ServiceConfig{
		Path:       writePolicyFile(t, config),
		SigningKey: signingKey,
		Logger:     zerolog.Nop(),
	})
	require.NoError(t, err)
	return svc
}

func TestNewService_RequiresConfig(t *testing.T) {
	_, err := policy.NewService(nil)
	assert.EqualError(t, err, "config is required")
}

func TestNewService_NoPathPermitsAll(t *testing.T) {
	svc, err := policy.NewService(&policy.ServiceConfig{Logger: zerolog.Nop()})
	require.NoError(t, err)

	assert.True(t, svc.OrgAllowed("any-org"))
	assert.True(t, svc.WebSearchAllowed())
	assert.True(t, svc.VectorStoreAllowed())
	assert.True(t, svc.FileUploadAllowed())
	assert.True(t, svc.ChatFileAttachmentAllowed())
}

func TestNewService_MissingFilePermitsAll(t *testing.T) {
	svc, err := policy.NewService(&policy.ServiceConfig{
		Path:   filepath.Join(t.TempDir(), "does-not-exist.json"),
		Logger: zerolog.Nop(),
	})
	require.NoError(t, err)

	assert.True(t, svc.OrgAllowed("any-org"))
}

func TestNewService_SignatureRoundtrip(t *testing.T) {
	svc := setupService(t, &policy.Config{
		Version:      1,
		OrgWhitelist: []policy.OrgWhitelistEntry{{OrgID: "org-1", OrgName: "Acme"}},
	}, "signing-key")

	assert.True(t, svc.OrgAllowed("org-1"))
	assert.False(t, svc.OrgAllowed("org-2"))
}

func TestNewService_TamperedDocumentRejected(t *testing.T) {
	config := &policy.Config{Version: 1}
	signature, err := policy.Sign(config, "signing-key")
	require.NoError(t, err)

	// Modify the document after signing.
	config.Signature = signature
	config.OrgWhitelist = []policy.OrgWhitelistEntry{{OrgID: "org-evil"}}

	_, err = policy.NewService(&policy.ServiceConfig{
		Path:       writePolicyFile(t, config),
		SigningKey: "signing-key",
		Logger:     zerolog.Nop(),
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "signature verification failed")
}

func TestNewService_UnsignedDocumentRejectedWhenKeySet(t *testing.T) {
	_, err := policy.NewService(&policy.ServiceConfig{
		Path:       writePolicyFile(t, &policy.Config{Version: 1}),
		SigningKey: "signing-key",
		Logger:     zerolog.Nop(),
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsigned")
}

func TestNewService_NoKeySkipsVerification(t *testing.T) {
	svc, err := policy.NewService(&policy.ServiceConfig{
		Path:   writePolicyFile(t, &policy.Config{Version: 1}),
		Logger: zerolog.Nop(),
	})
	require.NoError(t, err)
	assert.True(t, svc.OrgAllowed("anyone"))
}

func TestOrgAllowed_EmptyWhitelistAllowsEveryone(t *testing.T) {
	svc := setupService(t, &policy.Config{Version: 1}, "")

	assert.True(t, svc.OrgAllowed("org-1"))
	assert.True(t, svc.OrgAllowed(""))
}

func TestVerifyAdminPassword(t *testing.T) {
	sum := sha256.Sum256([]byte("hunter2"))
	svc := setupService(t, &policy.Config{
		AdminPasswordHash: hex.EncodeToString(sum[:]),
	}, "")

	assert.True(t, svc.VerifyAdminPassword("hunter2"))
	assert.False(t, svc.VerifyAdminPassword("wrong"))
}

func TestVerifyAdminPassword_NoHashRejectsEverything(t *testing.T) {
	svc := setupService(t, &policy.Config{Version: 1}, "")

	assert.False(t, svc.VerifyAdminPassword("anything"))
	assert.False(t, svc.VerifyAdminPassword(""))
}

func TestFeatureFlags_NilMeansAllowed(t *testing.T) {
	svc := setupService(t, &policy.Config{
		Features: &policy.FeatureRestrictions{
			AllowWebSearch: boolPtr(false),
		},
	}, "")

	assert.False(t, svc.WebSearchAllowed())
	// Unset flags stay permitted.
	assert.True(t, svc.VectorStoreAllowed())
	assert.True(t, svc.FileUploadAllowed())
	assert.True(t, svc.ChatFileAttachmentAllowed())
}

func TestApply_StripsRestrictedCapabilities(t *testing.T) {
	svc := setupService(t, &policy.Config{
		Features: &policy.FeatureRestrictions{
			AllowWebSearch:          boolPtr(false),
			AllowVectorStore:        boolPtr(false),
			AllowChatFileAttachment: boolPtr(false),
		},
	}, "")

	turn := &chat.TurnRequest{
		WebSearchEnabled: true,
		VectorStoreIDs:   []string{"vs-1"},
		Attachments:      []models.FileAttachment{{FileID: "file-1"}},
	}
	svc.Apply(turn)

	assert.False(t, turn.WebSearchEnabled)
	assert.Nil(t, turn.VectorStoreIDs)
	assert.Nil(t, turn.Attachments)
}

func TestApply_LeavesPermittedCapabilities(t *testing.T) {
	svc := setupService(t, &policy.Config{Version: 1}, "")

	turn := &chat.TurnRequest{
		WebSearchEnabled: true,
		VectorStoreIDs:   []string{"vs-1"},
	}
	svc.Apply(turn)

	assert.True(t, turn.WebSearchEnabled)
	assert.Equal(t, []string{"vs-1"}, turn.VectorStoreIDs)
}
