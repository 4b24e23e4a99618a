// Package cryptox encrypts Discogs API tokens for storage at rest.
//
// Tokens are sealed with AES-256-GCM. The key is derived from the
// application secret with Argon2id, so a database dump alone is not enough
// to recover a user's token.
package cryptox

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"errors"

	"golang.org/x/crypto/argon2"
)

// keySalt is a fixed application-level salt for deriving the token key from
// the configured secret. Per-user salts are unnecessary here: the derived key
// encrypts server-held tokens, not user passwords.
var keySalt = []byte("asetate/token-key/v1")

var ErrInvalidKey = errors.New("invalid encryption key")

// DeriveKey derives a 32-byte AES key from the application secret.
// The same secret always yields the same key.
func DeriveKey(secret []byte) []byte {
	return argon2.IDKey(secret, keySalt, 1, 64*1024, 4, 32)
}

// EncryptToken seals a plaintext token with AES-GCM under key.
// A fresh random 12-byte nonce is generated per call; ciphertext and nonce
// are returned separately so they can live in distinct columns.
func EncryptToken(token string, key []byte) (ciphertext, nonce []byte, err error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, nil, ErrInvalidKey
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, nil, err
	}

	nonce = make([]byte, gcm.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return nil, nil, err
	}

	ciphertext = gcm.Seal(nil, nonce, []byte(token), nil)
	return ciphertext, nonce, nil
}

// DecryptToken opens a ciphertext produced by EncryptToken.
func DecryptToken(ciphertext, nonce, key []byte) (string, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return "", ErrInvalidKey
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return "", err
	}

	plaintext, err := gcm.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return "", err
	}

	return string(plaintext), nil
}
