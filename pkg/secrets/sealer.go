package secrets

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"io"
)

// Sealer encrypts values under keys derived from a master key and a scope.
type Sealer struct {
	masterKey []byte
}

// NewSealer validates the master key and returns a Sealer holding a copy of it.
func NewSealer(masterKey []byte) (*Sealer, error) {
	if len(masterKey) != KeySize {
		return nil, ErrInvalidKey
	}
	return &Sealer{masterKey: append([]byte(nil), masterKey...)}, nil
}

// Seal encrypts plaintext for scope and returns it base64 encoded.
func (s *Sealer) Seal(scope, plaintext string) (string, error) {
	aead, err := s.aead(scope)
	if err != nil {
		return "", errors.Join(ErrEncryptionFailed, err)
	}

	nonce := make([]byte, aead.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", errors.Join(ErrEncryptionFailed, err)
	}

	// Nonce is prepended so the ciphertext is self-contained.
	ciphertext := aead.Seal(nonce, nonce, []byte(plaintext), []byte(scope))
	return base64.StdEncoding.EncodeToString(ciphertext), nil
}

// Open decrypts a value produced by Seal for the same scope.
func (s *Sealer) Open(scope, sealed string) (string, error) {
	raw, err := base64.StdEncoding.DecodeString(sealed)
	if err != nil {
		return "", errors.Join(ErrInvalidCiphertext, err)
	}

	aead, err := s.aead(scope)
	if err != nil {
		return "", errors.Join(ErrDecryptionFailed, err)
	}

	nonceSize := aead.NonceSize()
	if len(raw) < nonceSize+aead.Overhead() {
		return "", ErrInvalidCiphertext
	}

	nonce, ciphertext := raw[:nonceSize], raw[nonceSize:]
	plaintext, err := aead.Open(nil, nonce, ciphertext, []byte(scope))
	if err != nil {
		return "", errors.Join(ErrDecryptionFailed, err)
	}

	return string(plaintext), nil
}

func (s *Sealer) aead(scope string) (cipher.AEAD, error) {
	if scope == "" {
		return nil, ErrMissingScope
	}

	key, err := deriveKey(s.masterKey, scope)
	if err != nil {
		return nil, err
	}
	defer clearBytes(key)

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	return cipher.NewGCM(block)
}
