package secrets

import "errors"

var (
	ErrInvalidKey          = errors.New("invalid key: must be 32 bytes")
	ErrMissingScope        = errors.New("missing scope")
	ErrEncryptionFailed    = errors.New("encryption failed")
	ErrDecryptionFailed    = errors.New("decryption failed")
	ErrInvalidCiphertext   = errors.New("invalid ciphertext format")
	ErrKeyDerivationFailed = errors.New("key derivation failed")
)
