package token

import "errors"

var (
	ErrGenerateFailed = errors.New("failed to generate token")
	ErrInvalidToken   = errors.New("invalid token format")
)
