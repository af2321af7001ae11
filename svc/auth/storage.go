package auth

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// CredentialStore persists identities. Implementations must enforce
// uniqueness of email, username (case-insensitive) and (provider, subject),
// reporting violations as ErrEmailTaken, ErrUsernameTaken and
// ErrProviderLinked. Lookups that match nothing return ErrIdentityNotFound.
type CredentialStore interface {
	CreateIdentity(ctx context.Context, identity *Identity) error
	GetIdentityByID(ctx context.Context, id uuid.UUID) (*Identity, error)
	GetIdentityByEmail(ctx context.Context, email string) (*Identity, error)
	GetIdentityByUsername(ctx context.Context, username string) (*Identity, error)
	GetIdentityByOAuth(ctx context.Context, provider, subject string) (*Identity, error)
	UpdatePasswordHash(ctx context.Context, id uuid.UUID, hash []byte) error
	// SetTwoFactorSecret stores a pending secret and clears the enabled flag.
	SetTwoFactorSecret(ctx context.Context, id uuid.UUID, sealed string) error
	EnableTwoFactor(ctx context.Context, id uuid.UUID) error
	// DisableTwoFactor clears both the secret and the flag.
	DisableTwoFactor(ctx context.Context, id uuid.UUID) error
	// UseTwoFactorStep records step as the last accepted TOTP time step.
	// A step at or before the recorded one returns ErrInvalidTOTPCode, so
	// each code is accepted at most once. Replacing or clearing the secret
	// resets the record.
	UseTwoFactorStep(ctx context.Context, id uuid.UUID, step int64) error
	DeleteIdentity(ctx context.Context, id uuid.UUID) error
}

// SessionStore persists refresh sessions keyed by token digest.
type SessionStore interface {
	CreateSession(ctx context.Context, session *RefreshSession) error
	// ConsumeSession deletes and returns the row in one step. Of concurrent
	// callers presenting the same digest, at most one receives the row; the
	// rest get ErrSessionNotFound.
	ConsumeSession(ctx context.Context, tokenHash string) (*RefreshSession, error)
	DeleteSession(ctx context.Context, tokenHash string) error
	DeleteUserSession(ctx context.Context, userID uuid.UUID, tokenHash string) error
	DeleteUserSessions(ctx context.Context, userID uuid.UUID) error
	DeleteExpiredSessions(ctx context.Context, now time.Time) (int64, error)
}

// StateStore holds OAuth state values between redirect and callback.
type StateStore interface {
	SaveState(ctx context.Context, state string, ttl time.Duration) error
	// ConsumeState removes state, returning ErrInvalidState if it was unknown or expired.
	ConsumeState(ctx context.Context, state string) error
}

// ProfileService is the downstream service that owns public profiles.
type ProfileService interface {
	CreateProfile(ctx context.Context, userID uuid.UUID, email, username string) error
}
