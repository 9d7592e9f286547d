package security

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"fmt"
	"io"

	"golang.org/x/crypto/pbkdf2"
)

const keyIterations = 100_000

// Cipher is the process-wide symmetric primitive used for signature images
// and identity-document fields. AES-256-GCM with a fresh random IV per
// encryption; the key is derived once from configuration, never per-record.
type Cipher struct {
	aead cipher.AEAD
}

func NewCipher(passphrase, salt string) (*Cipher, error) {
	key := pbkdf2.Key([]byte(passphrase), []byte(salt), keyIterations, 32, sha256.New)
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("failed to build cipher: %w", err)
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("failed to build GCM: %w", err)
	}
	return &Cipher{aead: aead}, nil
}

// Encrypt seals plaintext and returns the IV and ciphertext separately.
func (c *Cipher) Encrypt(plaintext []byte) (iv, ciphertext []byte, err error) {
	iv = make([]byte, c.aead.NonceSize())
	if _, err := io.ReadFull(rand.Reader, iv); err != nil {
		return nil, nil, fmt.Errorf("failed to generate IV: %w", err)
	}
	return iv, c.aead.Seal(nil, iv, plaintext, nil), nil
}

// Decrypt opens ciphertext sealed by Encrypt with the matching IV.
func (c *Cipher) Decrypt(ciphertext, iv []byte) ([]byte, error) {
	plaintext, err := c.aead.Open(nil, iv, ciphertext, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to decrypt: %w", err)
	}
	return plaintext, nil
}
