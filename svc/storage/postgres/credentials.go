package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/ftarena/authcore/svc/auth"
)

// Credentials is a PostgreSQL auth.CredentialStore.
type Credentials struct {
	db DB
}

func NewCredentials(db DB) *Credentials {
	return &Credentials{db: db}
}

const identityColumns = `id, email, username, password_hash,
	COALESCE(oauth_provider, ''), COALESCE(oauth_subject, ''),
	two_factor_enabled, COALESCE(two_factor_secret, ''),
	created_at, updated_at`

func (c *Credentials) CreateIdentity(ctx context.Context, identity *auth.Identity) error {
	if err := identity.Validate(); err != nil {
		return err
	}

	_, err := c.db.Exec(ctx,
		`INSERT INTO identities
			(id, email, username, password_hash, oauth_provider, oauth_subject, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $7)`,
		identity.ID,
		identity.Email,
		identity.Username,
		identity.PasswordHash,
		nullable(identity.OAuthProvider),
		nullable(identity.OAuthSubject),
		identity.CreatedAt,
	)
	if err != nil {
		return translate("insert identity", err)
	}
	return nil
}

func (c *Credentials) GetIdentityByID(ctx context.Context, id uuid.UUID) (*auth.Identity, error) {
	return c.get(ctx, `SELECT `+identityColumns+` FROM identities WHERE id = $1`, id)
}

func (c *Credentials) GetIdentityByEmail(ctx context.Context, email string) (*auth.Identity, error) {
	return c.get(ctx, `SELECT `+identityColumns+` FROM identities WHERE email = $1`, email)
}

func (c *Credentials) GetIdentityByUsername(ctx context.Context, username string) (*auth.Identity, error) {
	return c.get(ctx, `SELECT `+identityColumns+` FROM identities WHERE lower(username) = lower($1)`, username)
}

func (c *Credentials) GetIdentityByOAuth(ctx context.Context, provider, subject string) (*auth.Identity, error) {
	return c.get(ctx,
		`SELECT `+identityColumns+` FROM identities WHERE oauth_provider = $1 AND oauth_subject = $2`,
		provider, subject)
}

func (c *Credentials) UpdatePasswordHash(ctx context.Context, id uuid.UUID, hash []byte) error {
	return c.exec(ctx, "update password hash",
		`UPDATE identities SET password_hash = $2, updated_at = now() WHERE id = $1`, id, hash)
}

func (c *Credentials) SetTwoFactorSecret(ctx context.Context, id uuid.UUID, sealed string) error {
	return c.exec(ctx, "set two-factor secret",
		`UPDATE identities SET two_factor_secret = $2, two_factor_enabled = FALSE, two_factor_last_step = 0,
			updated_at = now() WHERE id = $1`,
		id, sealed)
}

func (c *Credentials) EnableTwoFactor(ctx context.Context, id uuid.UUID) error {
	return c.exec(ctx, "enable two-factor",
		`UPDATE identities SET two_factor_enabled = TRUE, updated_at = now()
		 WHERE id = $1 AND two_factor_secret IS NOT NULL`, id)
}

func (c *Credentials) DisableTwoFactor(ctx context.Context, id uuid.UUID) error {
	return c.exec(ctx, "disable two-factor",
		`UPDATE identities SET two_factor_enabled = FALSE, two_factor_secret = NULL, two_factor_last_step = 0,
			updated_at = now() WHERE id = $1`,
		id)
}

// UseTwoFactorStep advances the recorded step only when step is newer, so
// of concurrent callers presenting the same code at most one succeeds.
func (c *Credentials) UseTwoFactorStep(ctx context.Context, id uuid.UUID, step int64) error {
	tag, err := c.db.Exec(ctx,
		`UPDATE identities SET two_factor_last_step = $2
		 WHERE id = $1 AND two_factor_last_step < $2`, id, step)
	if err != nil {
		return fmt.Errorf("use two-factor step: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return auth.ErrInvalidTOTPCode
	}
	return nil
}

func (c *Credentials) DeleteIdentity(ctx context.Context, id uuid.UUID) error {
	if _, err := c.db.Exec(ctx, `DELETE FROM identities WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete identity: %w", err)
	}
	return nil
}

func (c *Credentials) get(ctx context.Context, query string, args ...any) (*auth.Identity, error) {
	var i auth.Identity
	err := c.db.QueryRow(ctx, query, args...).Scan(
		&i.ID,
		&i.Email,
		&i.Username,
		&i.PasswordHash,
		&i.OAuthProvider,
		&i.OAuthSubject,
		&i.TwoFactorEnabled,
		&i.TwoFactorSecret,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, auth.ErrIdentityNotFound
		}
		return nil, fmt.Errorf("get identity: %w", err)
	}
	return &i, nil
}

// exec runs an update that must touch exactly one identity.
func (c *Credentials) exec(ctx context.Context, op, query string, args ...any) error {
	tag, err := c.db.Exec(ctx, query, args...)
	if err != nil {
		return translate(op, err)
	}
	if tag.RowsAffected() == 0 {
		return auth.ErrIdentityNotFound
	}
	return nil
}

var _ auth.CredentialStore = (*Credentials)(nil)
