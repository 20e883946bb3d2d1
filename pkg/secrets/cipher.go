package secrets

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"io"

	dErrors "badgeforge/pkg/domain-errors"
)

// KeySize is the required key length for AES-256-GCM.
const KeySize = 32

// Cipher encrypts short secrets for storage at rest using AES-256-GCM.
// The encoded form is base64(nonce || ciphertext || tag), so a single string
// column or JSON field can hold everything needed for decryption.
type Cipher struct {
	key []byte
}

// NewCipher creates a Cipher from a raw 32-byte key.
func NewCipher(key []byte) (*Cipher, error) {
	if len(key) != KeySize {
		return nil, dErrors.New(dErrors.CodeValidation, "encryption key must be 32 bytes")
	}
	return &Cipher{key: key}, nil
}

// NewCipherFromBase64 creates a Cipher from a base64-encoded 32-byte key,
// the form keys take in environment configuration.
func NewCipherFromBase64(encoded string) (*Cipher, error) {
	key, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeValidation, "encryption key is not valid base64")
	}
	return NewCipher(key)
}

// EncryptString encrypts plaintext and returns the base64-encoded result.
func (c *Cipher) EncryptString(plaintext string) (string, error) {
	block, err := aes.NewCipher(c.key)
	if err != nil {
		return "", dErrors.Wrap(err, dErrors.CodeInternal, "could not initialize cipher")
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return "", dErrors.Wrap(err, dErrors.CodeInternal, "could not initialize cipher")
	}

	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", dErrors.Wrap(err, dErrors.CodeInternal, "could not generate nonce")
	}

	// Seal appends the ciphertext to nonce, producing: nonce || ciphertext || tag.
	ciphertext := gcm.Seal(nonce, nonce, []byte(plaintext), nil)
	return base64.StdEncoding.EncodeToString(ciphertext), nil
}

// DecryptString decrypts a string produced by EncryptString. Decryption fails
// for tampered ciphertext or a mismatched key.
func (c *Cipher) DecryptString(encoded string) (string, error) {
	data, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return "", dErrors.Wrap(err, dErrors.CodeInternal, "ciphertext is not valid base64")
	}

	block, err := aes.NewCipher(c.key)
	if err != nil {
		return "", dErrors.Wrap(err, dErrors.CodeInternal, "could not initialize cipher")
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return "", dErrors.Wrap(err, dErrors.CodeInternal, "could not initialize cipher")
	}

	nonceSize := gcm.NonceSize()
	if len(data) < nonceSize {
		return "", dErrors.New(dErrors.CodeInternal, "ciphertext too short")
	}

	nonce, ciphertext := data[:nonceSize], data[nonceSize:]
	plaintext, err := gcm.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return "", dErrors.Wrap(err, dErrors.CodeInternal, "could not decrypt secret")
	}

	return string(plaintext), nil
}
