package auth

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/ftarena/authcore/pkg/token"
)

const testSigningKey = "test-signing-key-at-least-32-bytes-long"

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

func newTestIssuer(t *testing.T, sessions SessionStore, clock *fakeClock) *TokenIssuer {
	t.Helper()
	issuer, err := NewTokenIssuer(Config{SigningKey: testSigningKey, Issuer: "test"}, sessions, WithIssuerClock(clock.Now))
	require.NoError(t, err)
	return issuer
}

func TestNewTokenIssuer_MissingKey(t *testing.T) {
	t.Parallel()
	_, err := NewTokenIssuer(Config{}, &MockSessionStore{})
	assert.ErrorIs(t, err, ErrMissingSigningKey)
}

func TestTokenIssuer_IssueSession(t *testing.T) {
	t.Parallel()

	clock := newFakeClock()
	sessions := &MockSessionStore{}
	issuer := newTestIssuer(t, sessions, clock)

	identity := &Identity{ID: uuid.New(), Email: "a@example.com", Username: "alice"}

	var stored *RefreshSession
	sessions.On("CreateSession", mock.Anything, mock.AnythingOfType("*auth.RefreshSession")).
		Run(func(args mock.Arguments) { stored = args.Get(1).(*RefreshSession) }).
		Return(nil).Once()

	session, err := issuer.IssueSession(context.Background(), identity)
	require.NoError(t, err)

	assert.Equal(t, clock.Now().Add(15*time.Minute), session.ExpiresAt)
	assert.NoError(t, token.Validate(session.RefreshToken))

	require.NotNil(t, stored)
	assert.Equal(t, token.Hash(session.RefreshToken), stored.TokenHash)
	assert.NotEqual(t, session.RefreshToken, stored.TokenHash)
	assert.Equal(t, identity.ID, stored.UserID)
	assert.Equal(t, clock.Now().Add(7*24*time.Hour), stored.ExpiresAt)

	claims, err := issuer.VerifyAccess(session.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, identity.ID.String(), claims.Subject)
	assert.Equal(t, "a@example.com", claims.Email)
	assert.Equal(t, "alice", claims.Username)

	sessions.AssertExpectations(t)
}

func TestTokenIssuer_IssueSession_StoreError(t *testing.T) {
	t.Parallel()

	sessions := &MockSessionStore{}
	issuer := newTestIssuer(t, sessions, newFakeClock())
	sessions.On("CreateSession", mock.Anything, mock.Anything).Return(errors.New("db down"))

	_, err := issuer.IssueSession(context.Background(), &Identity{ID: uuid.New(), Email: "a@example.com", Username: "alice"})
	assert.Error(t, err)
	assert.Equal(t, KindInternal, KindOf(err))
}

func TestTokenIssuer_VerifyAccess(t *testing.T) {
	t.Parallel()

	clock := newFakeClock()
	sessions := &MockSessionStore{}
	sessions.On("CreateSession", mock.Anything, mock.Anything).Return(nil)
	issuer := newTestIssuer(t, sessions, clock)

	session, err := issuer.IssueSession(context.Background(), &Identity{ID: uuid.New(), Email: "a@example.com", Username: "alice"})
	require.NoError(t, err)

	t.Run("temp token is not an access token", func(t *testing.T) {
		temp, err := issuer.IssueTemp(uuid.New())
		require.NoError(t, err)
		_, err = issuer.VerifyAccess(temp)
		assert.ErrorIs(t, err, ErrTokenInvalid)
	})

	t.Run("garbage", func(t *testing.T) {
		_, err := issuer.VerifyAccess("not.a.jwt")
		assert.ErrorIs(t, err, ErrTokenInvalid)
	})

	t.Run("other key", func(t *testing.T) {
		other, err := NewTokenIssuer(Config{SigningKey: "another-signing-key-of-32-bytes-xx", Issuer: "test"}, sessions, WithIssuerClock(clock.Now))
		require.NoError(t, err)
		_, err = other.VerifyAccess(session.AccessToken)
		assert.ErrorIs(t, err, ErrTokenInvalid)
	})

	t.Run("expired", func(t *testing.T) {
		clock.Advance(16 * time.Minute)
		_, err := issuer.VerifyAccess(session.AccessToken)
		assert.ErrorIs(t, err, ErrTokenInvalid)
	})
}

func TestTokenIssuer_Temp(t *testing.T) {
	t.Parallel()

	clock := newFakeClock()
	issuer := newTestIssuer(t, &MockSessionStore{}, clock)
	userID := uuid.New()

	t.Run("purpose is enforced", func(t *testing.T) {
		temp, err := issuer.IssueTemp(userID)
		require.NoError(t, err)

		claims, err := issuer.VerifyTemp(temp, PurposeTwoFactor)
		require.NoError(t, err)
		assert.Equal(t, userID.String(), claims.Subject)

		_, err = issuer.VerifyTemp(temp, PurposeOAuthSignup)
		assert.ErrorIs(t, err, ErrTokenInvalid)
	})

	t.Run("partial federated carries provider and email", func(t *testing.T) {
		temp, err := issuer.IssuePartialFederated(OAuthProviderGithub, "4242", "g@example.com")
		require.NoError(t, err)

		claims, err := issuer.VerifyTemp(temp, PurposeOAuthSignup)
		require.NoError(t, err)
		assert.Equal(t, "4242", claims.Subject)
		assert.Equal(t, OAuthProviderGithub, claims.Provider)
		assert.Equal(t, "g@example.com", claims.Email)
	})

	t.Run("partial federated without email is rejected", func(t *testing.T) {
		temp, err := issuer.IssuePartialFederated(OAuthProviderGithub, "4242", "")
		require.NoError(t, err)
		_, err = issuer.VerifyTemp(temp, PurposeOAuthSignup)
		assert.ErrorIs(t, err, ErrTokenInvalid)
	})

	t.Run("access token is not a temp token", func(t *testing.T) {
		sessions := &MockSessionStore{}
		sessions.On("CreateSession", mock.Anything, mock.Anything).Return(nil)
		other := newTestIssuer(t, sessions, clock)
		session, err := other.IssueSession(context.Background(), &Identity{ID: userID, Email: "a@example.com", Username: "alice"})
		require.NoError(t, err)

		_, err = issuer.VerifyTemp(session.AccessToken, PurposeTwoFactor)
		assert.ErrorIs(t, err, ErrTokenInvalid)
	})
}
