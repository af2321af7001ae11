package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/ftarena/authcore/pkg/token"
)

func TestSessionRotator_Rotate(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	setup := func(t *testing.T) (*SessionRotator, *MockSessionStore, *MockCredentialStore, *fakeClock) {
		clock := newFakeClock()
		sessions := &MockSessionStore{}
		identities := &MockCredentialStore{}
		issuer := newTestIssuer(t, sessions, clock)
		return NewSessionRotator(issuer, sessions, identities), sessions, identities, clock
	}

	t.Run("malformed token never reaches the store", func(t *testing.T) {
		t.Parallel()
		rotator, sessions, _, _ := setup(t)

		_, err := rotator.Rotate(ctx, "short")
		assert.ErrorIs(t, err, ErrInvalidSession)
		sessions.AssertNotCalled(t, "ConsumeSession", mock.Anything, mock.Anything)
	})

	t.Run("unknown token", func(t *testing.T) {
		t.Parallel()
		rotator, sessions, _, _ := setup(t)
		raw, digest, err := token.Generate()
		require.NoError(t, err)

		sessions.On("ConsumeSession", ctx, digest).Return(nil, ErrSessionNotFound)

		_, err = rotator.Rotate(ctx, raw)
		assert.ErrorIs(t, err, ErrInvalidSession)
	})

	t.Run("expired session is consumed and rejected", func(t *testing.T) {
		t.Parallel()
		rotator, sessions, identities, clock := setup(t)
		raw, digest, err := token.Generate()
		require.NoError(t, err)

		sessions.On("ConsumeSession", ctx, digest).Return(&RefreshSession{
			TokenHash: digest,
			UserID:    uuid.New(),
			ExpiresAt: clock.Now().Add(-time.Second),
		}, nil)

		_, err = rotator.Rotate(ctx, raw)
		assert.ErrorIs(t, err, ErrExpiredSession)
		identities.AssertNotCalled(t, "GetIdentityByID", mock.Anything, mock.Anything)
	})

	t.Run("deleted identity", func(t *testing.T) {
		t.Parallel()
		rotator, sessions, identities, clock := setup(t)
		raw, digest, err := token.Generate()
		require.NoError(t, err)
		userID := uuid.New()

		sessions.On("ConsumeSession", ctx, digest).Return(&RefreshSession{
			TokenHash: digest,
			UserID:    userID,
			ExpiresAt: clock.Now().Add(time.Hour),
		}, nil)
		identities.On("GetIdentityByID", ctx, userID).Return(nil, ErrIdentityNotFound)

		_, err = rotator.Rotate(ctx, raw)
		assert.ErrorIs(t, err, ErrInvalidSession)
	})

	t.Run("store failure is internal", func(t *testing.T) {
		t.Parallel()
		rotator, sessions, _, _ := setup(t)
		raw, digest, err := token.Generate()
		require.NoError(t, err)

		sessions.On("ConsumeSession", ctx, digest).Return(nil, errors.New("conn reset"))

		_, err = rotator.Rotate(ctx, raw)
		require.Error(t, err)
		assert.Equal(t, KindInternal, KindOf(err))
	})

	t.Run("issues a new session", func(t *testing.T) {
		t.Parallel()
		rotator, sessions, identities, clock := setup(t)
		raw, digest, err := token.Generate()
		require.NoError(t, err)
		identity := &Identity{ID: uuid.New(), Email: "a@example.com", Username: "alice", PasswordHash: []byte("h")}

		sessions.On("ConsumeSession", ctx, digest).Return(&RefreshSession{
			TokenHash: digest,
			UserID:    identity.ID,
			ExpiresAt: clock.Now().Add(time.Hour),
		}, nil)
		identities.On("GetIdentityByID", ctx, identity.ID).Return(identity, nil)
		sessions.On("CreateSession", ctx, mock.MatchedBy(func(s *RefreshSession) bool {
			return s.UserID == identity.ID && s.TokenHash != digest
		})).Return(nil)

		next, err := rotator.Rotate(ctx, raw)
		require.NoError(t, err)
		assert.NotEqual(t, raw, next.RefreshToken)
		sessions.AssertExpectations(t)
	})
}

func TestSessionRotator_Revoke(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	sessions := &MockSessionStore{}
	rotator := NewSessionRotator(newTestIssuer(t, sessions, newFakeClock()), sessions, &MockCredentialStore{})
	raw, digest, err := token.Generate()
	require.NoError(t, err)
	userID := uuid.New()

	sessions.On("DeleteSession", ctx, digest).Return(nil).Once()
	sessions.On("DeleteUserSession", ctx, userID, digest).Return(nil).Once()
	sessions.On("DeleteUserSessions", ctx, userID).Return(nil).Once()

	assert.NoError(t, rotator.Revoke(ctx, raw))
	assert.NoError(t, rotator.Revoke(ctx, "garbage"))
	assert.NoError(t, rotator.RevokeForUser(ctx, userID, raw))
	assert.NoError(t, rotator.RevokeAll(ctx, userID))

	sessions.AssertExpectations(t)
}

func TestSessionRotator_PurgeExpired(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	clock := newFakeClock()
	sessions := &MockSessionStore{}
	rotator := NewSessionRotator(newTestIssuer(t, sessions, clock), sessions, &MockCredentialStore{})

	sessions.On("DeleteExpiredSessions", ctx, clock.Now()).Return(int64(3), nil)

	n, err := rotator.PurgeExpired(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)
}
