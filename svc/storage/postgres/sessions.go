package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/ftarena/authcore/svc/auth"
)

// Sessions is a PostgreSQL auth.SessionStore.
type Sessions struct {
	db DB
}

func NewSessions(db DB) *Sessions {
	return &Sessions{db: db}
}

func (s *Sessions) CreateSession(ctx context.Context, session *auth.RefreshSession) error {
	_, err := s.db.Exec(ctx,
		`INSERT INTO refresh_sessions (token_hash, user_id, created_at, expires_at) VALUES ($1, $2, $3, $4)`,
		session.TokenHash, session.UserID, session.CreatedAt, session.ExpiresAt)
	if err != nil {
		return fmt.Errorf("insert session: %w", err)
	}
	return nil
}

// ConsumeSession relies on DELETE ... RETURNING: the row lock serialises
// concurrent deletes and only the first one returns a row.
func (s *Sessions) ConsumeSession(ctx context.Context, tokenHash string) (*auth.RefreshSession, error) {
	var session auth.RefreshSession
	err := s.db.QueryRow(ctx,
		`DELETE FROM refresh_sessions WHERE token_hash = $1
		 RETURNING token_hash, user_id, created_at, expires_at`,
		tokenHash,
	).Scan(&session.TokenHash, &session.UserID, &session.CreatedAt, &session.ExpiresAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, auth.ErrSessionNotFound
		}
		return nil, fmt.Errorf("consume session: %w", err)
	}
	return &session, nil
}

func (s *Sessions) DeleteSession(ctx context.Context, tokenHash string) error {
	if _, err := s.db.Exec(ctx, `DELETE FROM refresh_sessions WHERE token_hash = $1`, tokenHash); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

func (s *Sessions) DeleteUserSession(ctx context.Context, userID uuid.UUID, tokenHash string) error {
	_, err := s.db.Exec(ctx,
		`DELETE FROM refresh_sessions WHERE token_hash = $1 AND user_id = $2`, tokenHash, userID)
	if err != nil {
		return fmt.Errorf("delete user session: %w", err)
	}
	return nil
}

func (s *Sessions) DeleteUserSessions(ctx context.Context, userID uuid.UUID) error {
	if _, err := s.db.Exec(ctx, `DELETE FROM refresh_sessions WHERE user_id = $1`, userID); err != nil {
		return fmt.Errorf("delete user sessions: %w", err)
	}
	return nil
}

func (s *Sessions) DeleteExpiredSessions(ctx context.Context, now time.Time) (int64, error) {
	tag, err := s.db.Exec(ctx, `DELETE FROM refresh_sessions WHERE expires_at <= $1`, now)
	if err != nil {
		return 0, fmt.Errorf("delete expired sessions: %w", err)
	}
	return tag.RowsAffected(), nil
}

var _ auth.SessionStore = (*Sessions)(nil)
