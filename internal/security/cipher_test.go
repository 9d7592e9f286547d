package security

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCipherRoundTrip(t *testing.T) {
	c, err := NewCipher("correct horse battery staple", "renthub-salt")
	require.NoError(t, err)

	plaintext := []byte("079123456789")

	iv, ciphertext, err := c.Encrypt(plaintext)
	require.NoError(t, err)
	assert.NotEqual(t, plaintext, ciphertext)

	decrypted, err := c.Decrypt(ciphertext, iv)
	require.NoError(t, err)
	assert.Equal(t, plaintext, decrypted)
}

func TestCipherFreshIVPerEncryption(t *testing.T) {
	c, err := NewCipher("passphrase", "salt")
	require.NoError(t, err)

	iv1, ct1, err := c.Encrypt([]byte("same payload"))
	require.NoError(t, err)
	iv2, ct2, err := c.Encrypt([]byte("same payload"))
	require.NoError(t, err)

	assert.NotEqual(t, iv1, iv2)
	assert.NotEqual(t, ct1, ct2)
}

func TestCipherWrongIVFails(t *testing.T) {
	c, err := NewCipher("passphrase", "salt")
	require.NoError(t, err)

	iv, ct, err := c.Encrypt([]byte("payload"))
	require.NoError(t, err)

	bad := make([]byte, len(iv))
	_, err = c.Decrypt(ct, bad)
	assert.Error(t, err)
}
