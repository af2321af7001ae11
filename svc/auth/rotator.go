package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/ftarena/authcore/pkg/logger"
	"github.com/ftarena/authcore/pkg/token"
)

// SessionRotator exchanges and revokes refresh tokens.
type SessionRotator struct {
	issuer     *TokenIssuer
	sessions   SessionStore
	identities CredentialStore
	logger     *slog.Logger
}

type RotatorOption func(*SessionRotator)

func WithRotatorLogger(l *slog.Logger) RotatorOption {
	return func(r *SessionRotator) {
		if l != nil {
			r.logger = l
		}
	}
}

func NewSessionRotator(issuer *TokenIssuer, sessions SessionStore, identities CredentialStore, opts ...RotatorOption) *SessionRotator {
	r := &SessionRotator{
		issuer:     issuer,
		sessions:   sessions,
		identities: identities,
		logger:     logger.Discard(),
	}
	for _, opt := range opts {
		opt(r)
	}
	r.logger = r.logger.With(logger.Component("session_rotator"))
	return r
}

// Rotate consumes refreshToken and issues a new session for its owner.
// The presented token is dead after this call whatever the outcome.
func (r *SessionRotator) Rotate(ctx context.Context, refreshToken string) (*Session, error) {
	if token.Validate(refreshToken) != nil {
		return nil, ErrInvalidSession
	}

	session, err := r.sessions.ConsumeSession(ctx, token.Hash(refreshToken))
	if err != nil {
		if errors.Is(err, ErrSessionNotFound) {
			return nil, ErrInvalidSession
		}
		return nil, fmt.Errorf("consume session: %w", err)
	}

	if session.Expired(r.issuer.Now()) {
		return nil, ErrExpiredSession
	}

	identity, err := r.identities.GetIdentityByID(ctx, session.UserID)
	if err != nil {
		if errors.Is(err, ErrIdentityNotFound) {
			// Account deleted after the session was issued.
			return nil, ErrInvalidSession
		}
		return nil, fmt.Errorf("load identity: %w", err)
	}

	next, err := r.issuer.IssueSession(ctx, identity)
	if err != nil {
		return nil, err
	}

	r.logger.DebugContext(ctx, "session rotated", logger.UserID(identity.ID))
	return next, nil
}

// Revoke deletes the session for refreshToken. Unknown tokens are ignored.
func (r *SessionRotator) Revoke(ctx context.Context, refreshToken string) error {
	if token.Validate(refreshToken) != nil {
		return nil
	}
	if err := r.sessions.DeleteSession(ctx, token.Hash(refreshToken)); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

// RevokeForUser deletes the session for refreshToken only if userID owns it.
func (r *SessionRotator) RevokeForUser(ctx context.Context, userID uuid.UUID, refreshToken string) error {
	if token.Validate(refreshToken) != nil {
		return nil
	}
	if err := r.sessions.DeleteUserSession(ctx, userID, token.Hash(refreshToken)); err != nil {
		return fmt.Errorf("delete user session: %w", err)
	}
	return nil
}

// RevokeAll deletes every session owned by userID.
func (r *SessionRotator) RevokeAll(ctx context.Context, userID uuid.UUID) error {
	if err := r.sessions.DeleteUserSessions(ctx, userID); err != nil {
		return fmt.Errorf("delete user sessions: %w", err)
	}
	r.logger.DebugContext(ctx, "all sessions revoked", logger.UserID(userID))
	return nil
}

// PurgeExpired removes sessions that expired without being rotated.
func (r *SessionRotator) PurgeExpired(ctx context.Context) (int64, error) {
	n, err := r.sessions.DeleteExpiredSessions(ctx, r.issuer.Now())
	if err != nil {
		return 0, fmt.Errorf("purge expired sessions: %w", err)
	}
	return n, nil
}

// replace revokes the user's previous sessions and issues a fresh one.
func (r *SessionRotator) replace(ctx context.Context, identity *Identity) (*Session, error) {
	if err := r.RevokeAll(ctx, identity.ID); err != nil {
		return nil, err
	}
	return r.issuer.IssueSession(ctx, identity)
}
