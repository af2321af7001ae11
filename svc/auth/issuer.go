package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/ftarena/authcore/pkg/jwt"
	"github.com/ftarena/authcore/pkg/logger"
	"github.com/ftarena/authcore/pkg/token"
)

// TokenIssuer mints access, refresh and temp tokens.
type TokenIssuer struct {
	jwt        *jwt.Service
	sessions   SessionStore
	accessTTL  time.Duration
	refreshTTL time.Duration
	tempTTL    time.Duration
	logger     *slog.Logger
}

type IssuerOption func(*issuerOptions)

type issuerOptions struct {
	now    func() time.Time
	logger *slog.Logger
}

// WithIssuerClock overrides the time source for issuance and verification.
func WithIssuerClock(now func() time.Time) IssuerOption {
	return func(o *issuerOptions) {
		o.now = now
	}
}

func WithIssuerLogger(l *slog.Logger) IssuerOption {
	return func(o *issuerOptions) {
		if l != nil {
			o.logger = l
		}
	}
}

// NewTokenIssuer fails with ErrMissingSigningKey when cfg has no key.
func NewTokenIssuer(cfg Config, sessions SessionStore, opts ...IssuerOption) (*TokenIssuer, error) {
	if cfg.SigningKey == "" {
		return nil, ErrMissingSigningKey
	}
	cfg = cfg.withDefaults()

	o := issuerOptions{now: time.Now, logger: logger.Discard()}
	for _, opt := range opts {
		opt(&o)
	}

	svc, err := jwt.NewFromString(cfg.SigningKey, jwt.WithIssuer(cfg.Issuer), jwt.WithClock(o.now))
	if err != nil {
		return nil, errors.Join(ErrMissingSigningKey, err)
	}

	return &TokenIssuer{
		jwt:        svc,
		sessions:   sessions,
		accessTTL:  cfg.AccessTTL,
		refreshTTL: cfg.RefreshTTL,
		tempTTL:    cfg.TempTTL,
		logger:     o.logger.With(logger.Component("token_issuer")),
	}, nil
}

// Now returns the issuer's clock reading.
func (t *TokenIssuer) Now() time.Time {
	return t.jwt.Now()
}

// IssueSession signs an access token for identity and persists a new refresh session.
func (t *TokenIssuer) IssueSession(ctx context.Context, identity *Identity) (*Session, error) {
	now := t.jwt.Now()
	expiresAt := now.Add(t.accessTTL)

	access, err := t.jwt.Generate(&AccessClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   identity.ID.String(),
			Issuer:    t.jwt.Issuer(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
		Email:    identity.Email,
		Username: identity.Username,
		Type:     TokenTypeAccess,
	})
	if err != nil {
		return nil, fmt.Errorf("sign access token: %w", err)
	}

	raw, digest, err := token.Generate()
	if err != nil {
		return nil, fmt.Errorf("generate refresh token: %w", err)
	}

	if err := t.sessions.CreateSession(ctx, &RefreshSession{
		TokenHash: digest,
		UserID:    identity.ID,
		CreatedAt: now,
		ExpiresAt: now.Add(t.refreshTTL),
	}); err != nil {
		return nil, fmt.Errorf("store refresh session: %w", err)
	}

	t.logger.DebugContext(ctx, "session issued", logger.UserID(identity.ID))

	return &Session{AccessToken: access, RefreshToken: raw, ExpiresAt: expiresAt}, nil
}

// VerifyAccess validates an access token. Every failure is ErrTokenInvalid.
func (t *TokenIssuer) VerifyAccess(raw string) (*AccessClaims, error) {
	var claims AccessClaims
	if err := t.jwt.Parse(raw, &claims); err != nil {
		return nil, ErrTokenInvalid
	}
	if claims.Type != TokenTypeAccess || claims.Subject == "" || claims.Email == "" || claims.Username == "" {
		return nil, ErrTokenInvalid
	}
	if _, err := claims.UserID(); err != nil {
		return nil, ErrTokenInvalid
	}
	return &claims, nil
}

// IssueTemp mints a step-up token for a password-authenticated 2FA account.
func (t *TokenIssuer) IssueTemp(userID uuid.UUID) (string, error) {
	return t.signTemp(userID.String(), PurposeTwoFactor, "", "")
}

// IssuePartialFederated mints a token that lets the holder pick a username
// for a federated identity with no local account.
func (t *TokenIssuer) IssuePartialFederated(provider, subject, email string) (string, error) {
	return t.signTemp(subject, PurposeOAuthSignup, email, provider)
}

// VerifyTemp validates a temp token and requires the given purpose.
func (t *TokenIssuer) VerifyTemp(raw string, purpose Purpose) (*TempClaims, error) {
	var claims TempClaims
	if err := t.jwt.Parse(raw, &claims); err != nil {
		return nil, ErrTokenInvalid
	}
	if claims.Type != TokenTypeTemp || claims.Purpose != purpose || claims.Subject == "" {
		return nil, ErrTokenInvalid
	}
	if purpose == PurposeOAuthSignup && (claims.Email == "" || claims.Provider == "") {
		return nil, ErrTokenInvalid
	}
	return &claims, nil
}

func (t *TokenIssuer) signTemp(subject string, purpose Purpose, email, provider string) (string, error) {
	now := t.jwt.Now()
	signed, err := t.jwt.Generate(&TempClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			Issuer:    t.jwt.Issuer(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(t.tempTTL)),
		},
		Type:     TokenTypeTemp,
		Purpose:  purpose,
		Email:    email,
		Provider: provider,
	})
	if err != nil {
		return "", fmt.Errorf("sign temp token: %w", err)
	}
	return signed, nil
}
