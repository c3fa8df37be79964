// Package encryption_test provides unit tests for the encryption package.
package encryption_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nagare-ai/chat-service/internal/pkg/encryption"
)

const testKey = "test-key-32-bytes-long-padding!!"

func TestNewAESEncryptor_RejectsShortKey(t *testing.T) {
	_, err := encryption.NewAESEncryptor("too short")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "32 bytes")
}

func TestAESEncryptor_Roundtrip(t *testing.T) {
	enc, err := encryption.NewAESEncryptor(testKey)
	require.NoError(t, err)

	plaintext := []byte(`{"conversationId":"conv-1"}`)
	ciphertext, err := enc.Encrypt(plaintext)
	require.NoError(t, err)
	assert.NotContains(t, ciphertext, "conv-1")

	decrypted, err := enc.Decrypt(ciphertext)
	require.NoError(t, err)
	assert.Equal(t, plaintext, decrypted)
}

func TestAESEncryptor_CiphertextIsNonDeterministic(t *testing.T) {
	enc, err := encryption.NewAESEncryptor(testKey)
	require.NoError(t, err)

	first, err := enc.Encrypt([]byte("same input"))
	require.NoError(t, err)
	second, err := enc.Encrypt([]byte("same input"))
	require.NoError(t, err)

	// A fresh nonce per call means identical plaintexts never repeat.
	assert.NotEqual(t, first, second)
}

func TestAESEncryptor_DecryptWithWrongKeyFails(t *testing.T) {
	enc, err := encryption.NewAESEncryptor(testKey)
	require.NoError(t, err)
	other, err := encryption.NewAESEncryptor("another-32-byte-key-for-testing!")
	require.NoError(t, err)

	ciphertext, err := enc.Encrypt([]byte("secret"))
	require.NoError(t, err)

	_, err = other.Decrypt(ciphertext)
	assert.Error(t, err)
}

func TestAESEncryptor_DecryptGarbageFails(t *testing.T) {
	enc, err := encryption.NewAESEncryptor(testKey)
	require.NoError(t, err)

	_, err = enc.Decrypt("not a ciphertext")
	assert.Error(t, err)
}

func TestNoOpEncryptor_PassesThrough(t *testing.T) {
	enc := encryption.NewNoOpEncryptor()

	out, err := enc.Encrypt([]byte("plain"))
	require.NoError(t, err)

	decrypted, err := enc.Decrypt(out)
	require.NoError(t, err)
	assert.Equal(t, []byte("plain"), decrypted)
}
