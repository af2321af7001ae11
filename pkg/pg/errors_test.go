package pg_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"

	"github.com/ftarena/authcore/pkg/pg"
)

func TestUniqueViolation(t *testing.T) {
	t.Parallel()

	wrapped := fmt.Errorf("insert: %w", &pgconn.PgError{
		Code:           pgerrcode.UniqueViolation,
		ConstraintName: "identities_email_key",
	})
	name, ok := pg.UniqueViolation(wrapped)
	assert.True(t, ok)
	assert.Equal(t, "identities_email_key", name)

	_, ok = pg.UniqueViolation(&pgconn.PgError{Code: pgerrcode.ForeignKeyViolation})
	assert.False(t, ok)

	_, ok = pg.UniqueViolation(errors.New("plain"))
	assert.False(t, ok)
}

func TestIsCheckViolation(t *testing.T) {
	t.Parallel()
	assert.True(t, pg.IsCheckViolation(&pgconn.PgError{Code: pgerrcode.CheckViolation}))
	assert.False(t, pg.IsCheckViolation(nil))
}

func TestIsNotFoundError(t *testing.T) {
	t.Parallel()
	assert.True(t, pg.IsNotFoundError(fmt.Errorf("get: %w", pgx.ErrNoRows)))
	assert.False(t, pg.IsNotFoundError(errors.New("other")))
}

type pinger struct{ err error }

func (p pinger) Ping(context.Context) error { return p.err }

func TestHealthcheck(t *testing.T) {
	t.Parallel()
	assert.NoError(t, pg.Healthcheck(pinger{})(context.Background()))
	assert.ErrorIs(t, pg.Healthcheck(pinger{err: errors.New("down")})(context.Background()), pg.ErrHealthcheckFailed)
}
