package crypto

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncryptDecryptRoundTrip(t *testing.T) {
	plaintext := []byte("sk-live-abc123")
	key := []byte("secret-key")

	ciphertext, err := Encrypt(plaintext, key)
	require.NoError(t, err)
	assert.NotEqual(t, string(plaintext), ciphertext)

	decrypted, err := Decrypt(ciphertext, key)
	require.NoError(t, err)
	assert.Equal(t, plaintext, decrypted)
}

func TestDecryptWithWrongKey(t *testing.T) {
	ciphertext, err := Encrypt([]byte("payload"), []byte("right-key"))
	require.NoError(t, err)

	_, err = Decrypt(ciphertext, []byte("wrong-key"))
	assert.ErrorIs(t, err, ErrInvalidCiphertext)
}

func TestEncryptIsNonDeterministic(t *testing.T) {
	key := []byte("key")
	first, err := Encrypt([]byte("payload"), key)
	require.NoError(t, err)
	second, err := Encrypt([]byte("payload"), key)
	require.NoError(t, err)

	// A fresh nonce per call means identical inputs never repeat on the wire.
	assert.NotEqual(t, first, second)
}

func TestDecryptRejectsGarbage(t *testing.T) {
	key := []byte("key")

	_, err := Decrypt("not-base64!!!", key)
	assert.ErrorIs(t, err, ErrInvalidCiphertext)

	// Valid base64 but shorter than a GCM nonce.
	_, err = Decrypt("c2hvcnQ=", key)
	assert.ErrorIs(t, err, ErrInvalidCiphertext)
}

func TestAPIKeyHelpers(t *testing.T) {
	encrypted, err := EncryptAPIKey("api-key-123", "machine-a")
	require.NoError(t, err)

	decrypted, err := DecryptAPIKey(encrypted, "machine-a")
	require.NoError(t, err)
	assert.Equal(t, "api-key-123", decrypted)

	// Keys are bound to the machine that encrypted them.
	_, err = DecryptAPIKey(encrypted, "machine-b")
	assert.Error(t, err)
}
