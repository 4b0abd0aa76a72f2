package auth

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"os"

	"golang.org/x/crypto/pbkdf2"
)

const (
	saltSize   = 32
	keySize    = 32
	iterations = 100000
)

// sealer encrypts with AES-GCM under a key derived from a passphrase and a
// per-write salt.
type sealer struct {
	passphrase []byte
}

func (s sealer) key(salt []byte) []byte {
	return pbkdf2.Key(s.passphrase, salt, iterations, keySize, sha256.New)
}

func (s sealer) gcm(salt []byte) (cipher.AEAD, error) {
	block, err := aes.NewCipher(s.key(salt))
	if err != nil {
		return nil, err
	}
	return cipher.NewGCM(block)
}

// seal returns a fresh salt and nonce||ciphertext
func (s sealer) seal(plaintext []byte) (salt, box []byte, err error) {
	salt = make([]byte, saltSize)
	if _, err := io.ReadFull(rand.Reader, salt); err != nil {
		return nil, nil, fmt.Errorf("failed to generate salt: %w", err)
	}
	aead, err := s.gcm(salt)
	if err != nil {
		return nil, nil, err
	}
	nonce := make([]byte, aead.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, nil, err
	}
	return salt, aead.Seal(nonce, nonce, plaintext, nil), nil
}

func (s sealer) open(salt, box []byte) ([]byte, error) {
	aead, err := s.gcm(salt)
	if err != nil {
		return nil, err
	}
	if len(box) < aead.NonceSize() {
		return nil, errors.New("ciphertext too short")
	}
	nonce, ciphertext := box[:aead.NonceSize()], box[aead.NonceSize():]
	return aead.Open(nil, nonce, ciphertext, nil)
}

// loadOrCreatePassphrase reads the passphrase kept at path, writing a random
// one with 0600 permissions when none exists yet.
func loadOrCreatePassphrase(path string) (string, error) {
	if content, err := os.ReadFile(path); err == nil && len(content) > 0 {
		return string(content), nil
	}

	b := make([]byte, 32)
	if _, err := io.ReadFull(rand.Reader, b); err != nil {
		return "", fmt.Errorf("failed to generate passphrase: %w", err)
	}
	passphrase := base64.URLEncoding.EncodeToString(b)
	if err := os.WriteFile(path, []byte(passphrase), 0600); err != nil {
		return "", fmt.Errorf("failed to save passphrase: %w", err)
	}
	return passphrase, nil
}
