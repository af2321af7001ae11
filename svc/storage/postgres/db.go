package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/ftarena/authcore/pkg/pg"
	"github.com/ftarena/authcore/svc/auth"
)

// DB is the subset of *pgxpool.Pool the stores use.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

const (
	constraintEmail    = "identities_email_key"
	constraintUsername = "identities_username_key"
	constraintOAuth    = "identities_oauth_key"
)

// translate maps constraint violations onto auth errors.
func translate(op string, err error) error {
	if name, ok := pg.UniqueViolation(err); ok {
		switch name {
		case constraintEmail:
			return auth.ErrEmailTaken
		case constraintUsername:
			return auth.ErrUsernameTaken
		case constraintOAuth:
			return auth.ErrProviderLinked
		}
	}
	if pg.IsCheckViolation(err) {
		return auth.ErrNoCredential
	}
	return fmt.Errorf("%s: %w", op, err)
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}
