package jwt

import (
	"errors"
	"fmt"
	"time"

	gojwt "github.com/golang-jwt/jwt/v5"
)

// HeaderAlgorithm is the only signing method issued and accepted.
const HeaderAlgorithm = "HS256"

// RegisteredClaims are the RFC 7519 registered claims. Custom claims embed it.
type RegisteredClaims = gojwt.RegisteredClaims

// Claims is implemented by every claims type accepted by Service.
type Claims = gojwt.Claims

// NewNumericDate converts t to a JWT NumericDate truncated to seconds.
func NewNumericDate(t time.Time) *gojwt.NumericDate {
	return gojwt.NewNumericDate(t)
}

// Service handles JWT generation and validation using HMAC-SHA256.
// The signing key is kept in memory only.
type Service struct {
	signingKey []byte
	issuer     string
	now        func() time.Time
}

// Option configures a Service.
type Option func(*Service)

// WithIssuer sets the issuer stamped on and required from tokens.
func WithIssuer(issuer string) Option {
	return func(s *Service) {
		s.issuer = issuer
	}
}

// WithClock overrides the time source used for validation.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// New creates a JWT service. The key should be at least 32 bytes.
func New(signingKey []byte, opts ...Option) (*Service, error) {
	if len(signingKey) == 0 {
		return nil, ErrMissingSigningKey
	}

	s := &Service{
		signingKey: signingKey,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}

	return s, nil
}

// NewFromString is a convenience wrapper around New for string-based configuration.
func NewFromString(signingKey string, opts ...Option) (*Service, error) {
	return New([]byte(signingKey), opts...)
}

// Issuer returns the configured issuer, empty when none.
func (s *Service) Issuer() string {
	return s.issuer
}

// Now returns the service clock's current time.
func (s *Service) Now() time.Time {
	return s.now()
}

// Generate signs claims with HS256.
func (s *Service) Generate(claims Claims) (string, error) {
	if claims == nil {
		return "", ErrMissingClaims
	}

	token := gojwt.NewWithClaims(gojwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.signingKey)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}

	return signed, nil
}

// Parse verifies the signature, algorithm, issuer and temporal claims of
// tokenString and decodes it into claims.
// Returns ErrExpiredToken for expired tokens and ErrInvalidToken otherwise.
func (s *Service) Parse(tokenString string, claims Claims) error {
	if claims == nil {
		return ErrMissingClaims
	}

	opts := []gojwt.ParserOption{
		gojwt.WithValidMethods([]string{HeaderAlgorithm}),
		gojwt.WithExpirationRequired(),
		gojwt.WithIssuedAt(),
		gojwt.WithTimeFunc(s.now),
	}
	if s.issuer != "" {
		opts = append(opts, gojwt.WithIssuer(s.issuer))
	}

	token, err := gojwt.ParseWithClaims(tokenString, claims, func(*gojwt.Token) (any, error) {
		return s.signingKey, nil
	}, opts...)
	if err != nil {
		if errors.Is(err, gojwt.ErrTokenExpired) {
			return ErrExpiredToken
		}
		return errors.Join(ErrInvalidToken, err)
	}
	if !token.Valid {
		return ErrInvalidToken
	}

	return nil
}
