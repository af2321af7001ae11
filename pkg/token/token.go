package token

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"errors"
)

// Size is the number of random bytes in a token.
const Size = 32

// Generate returns a new random token and its digest.
func Generate() (raw string, digest string, err error) {
	buf := make([]byte, Size)
	if _, err := rand.Read(buf); err != nil {
		return "", "", errors.Join(ErrGenerateFailed, err)
	}
	raw = hex.EncodeToString(buf)
	return raw, Hash(raw), nil
}

// Hash returns the hex SHA-256 digest of raw.
func Hash(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}

// Validate reports whether raw has the shape produced by Generate.
func Validate(raw string) error {
	if len(raw) != Size*2 {
		return ErrInvalidToken
	}
	if _, err := hex.DecodeString(raw); err != nil {
		return ErrInvalidToken
	}
	return nil
}

// Equal compares two digests in constant time.
func Equal(a, b string) bool {
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}
