package memory

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ftarena/authcore/svc/auth"
)

func newIdentity(email, username string) *auth.Identity {
	return &auth.Identity{
		ID:           uuid.New(),
		Email:        email,
		Username:     username,
		PasswordHash: []byte("hash"),
	}
}

func TestCredentials_Uniqueness(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store := NewCredentials()

	require.NoError(t, store.CreateIdentity(ctx, newIdentity("a@example.com", "alice")))

	assert.ErrorIs(t, store.CreateIdentity(ctx, newIdentity("a@example.com", "other")), auth.ErrEmailTaken)
	assert.ErrorIs(t, store.CreateIdentity(ctx, newIdentity("b@example.com", "ALICE")), auth.ErrUsernameTaken)

	linked := &auth.Identity{ID: uuid.New(), Email: "c@example.com", Username: "carol", OAuthProvider: "google", OAuthSubject: "g-1"}
	require.NoError(t, store.CreateIdentity(ctx, linked))
	dup := &auth.Identity{ID: uuid.New(), Email: "d@example.com", Username: "dave", OAuthProvider: "google", OAuthSubject: "g-1"}
	assert.ErrorIs(t, store.CreateIdentity(ctx, dup), auth.ErrProviderLinked)

	bare := &auth.Identity{ID: uuid.New(), Email: "e@example.com", Username: "erin"}
	assert.ErrorIs(t, store.CreateIdentity(ctx, bare), auth.ErrNoCredential)
}

func TestCredentials_Lookups(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store := NewCredentials()

	identity := &auth.Identity{ID: uuid.New(), Email: "g@example.com", Username: "Gina", OAuthProvider: "github", OAuthSubject: "42"}
	require.NoError(t, store.CreateIdentity(ctx, identity))

	got, err := store.GetIdentityByID(ctx, identity.ID)
	require.NoError(t, err)
	assert.Equal(t, "g@example.com", got.Email)

	got, err = store.GetIdentityByUsername(ctx, "gina")
	require.NoError(t, err)
	assert.Equal(t, identity.ID, got.ID)

	got, err = store.GetIdentityByOAuth(ctx, "github", "42")
	require.NoError(t, err)
	assert.Equal(t, identity.ID, got.ID)

	_, err = store.GetIdentityByOAuth(ctx, "google", "42")
	assert.ErrorIs(t, err, auth.ErrIdentityNotFound)
	_, err = store.GetIdentityByEmail(ctx, "missing@example.com")
	assert.ErrorIs(t, err, auth.ErrIdentityNotFound)

	got.Email = "mutated@example.com"
	again, err := store.GetIdentityByID(ctx, identity.ID)
	require.NoError(t, err)
	assert.Equal(t, "g@example.com", again.Email)
}

func TestCredentials_UseTwoFactorStep(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store := NewCredentials()
	identity := newIdentity("s@example.com", "sam")
	require.NoError(t, store.CreateIdentity(ctx, identity))

	require.NoError(t, store.UseTwoFactorStep(ctx, identity.ID, 100))
	assert.ErrorIs(t, store.UseTwoFactorStep(ctx, identity.ID, 100), auth.ErrInvalidTOTPCode)
	assert.ErrorIs(t, store.UseTwoFactorStep(ctx, identity.ID, 99), auth.ErrInvalidTOTPCode)
	require.NoError(t, store.UseTwoFactorStep(ctx, identity.ID, 101))

	// A new secret starts a fresh record.
	require.NoError(t, store.SetTwoFactorSecret(ctx, identity.ID, "sealed"))
	require.NoError(t, store.UseTwoFactorStep(ctx, identity.ID, 101))

	assert.ErrorIs(t, store.UseTwoFactorStep(ctx, uuid.New(), 1), auth.ErrIdentityNotFound)

	t.Run("concurrent use of one step", func(t *testing.T) {
		var wg sync.WaitGroup
		var accepted atomic.Int32
		for range 16 {
			wg.Add(1)
			go func() {
				defer wg.Done()
				if store.UseTwoFactorStep(ctx, identity.ID, 200) == nil {
					accepted.Add(1)
				}
			}()
		}
		wg.Wait()
		assert.Equal(t, int32(1), accepted.Load())
	})
}

func TestCredentials_TwoFactorLifecycle(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store := NewCredentials()
	identity := newIdentity("t@example.com", "tom")
	require.NoError(t, store.CreateIdentity(ctx, identity))

	require.NoError(t, store.SetTwoFactorSecret(ctx, identity.ID, "sealed"))
	got, _ := store.GetIdentityByID(ctx, identity.ID)
	assert.True(t, got.TwoFactorPending())

	require.NoError(t, store.EnableTwoFactor(ctx, identity.ID))
	got, _ = store.GetIdentityByID(ctx, identity.ID)
	assert.True(t, got.TwoFactorEnabled)

	require.NoError(t, store.DisableTwoFactor(ctx, identity.ID))
	got, _ = store.GetIdentityByID(ctx, identity.ID)
	assert.False(t, got.TwoFactorEnabled)
	assert.Empty(t, got.TwoFactorSecret)

	assert.ErrorIs(t, store.EnableTwoFactor(ctx, uuid.New()), auth.ErrIdentityNotFound)

	require.NoError(t, store.DeleteIdentity(ctx, identity.ID))
	_, err := store.GetIdentityByID(ctx, identity.ID)
	assert.ErrorIs(t, err, auth.ErrIdentityNotFound)
}

func TestSessions_ConsumeOnce(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store := NewSessions()
	require.NoError(t, store.CreateSession(ctx, &auth.RefreshSession{TokenHash: "h", UserID: uuid.New()}))

	var wins atomic.Int32
	var wg sync.WaitGroup
	for range 16 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := store.ConsumeSession(ctx, "h"); err == nil {
				wins.Add(1)
			} else {
				assert.ErrorIs(t, err, auth.ErrSessionNotFound)
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, int32(1), wins.Load())
}

func TestSessions_Deletes(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store := NewSessions()
	alice, bob := uuid.New(), uuid.New()
	now := time.Now()

	for _, s := range []auth.RefreshSession{
		{TokenHash: "a1", UserID: alice, ExpiresAt: now.Add(time.Hour)},
		{TokenHash: "a2", UserID: alice, ExpiresAt: now.Add(-time.Minute)},
		{TokenHash: "b1", UserID: bob, ExpiresAt: now.Add(time.Hour)},
	} {
		require.NoError(t, store.CreateSession(ctx, &s))
	}

	require.NoError(t, store.DeleteUserSession(ctx, bob, "a1"))
	assert.Equal(t, 2, store.CountForUser(alice))

	n, err := store.DeleteExpiredSessions(ctx, now)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	require.NoError(t, store.DeleteUserSession(ctx, alice, "a1"))
	assert.Equal(t, 0, store.CountForUser(alice))

	require.NoError(t, store.DeleteUserSessions(ctx, bob))
	assert.Equal(t, 0, store.CountForUser(bob))
	require.NoError(t, store.DeleteSession(ctx, "missing"))
}

func TestStates(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	now := time.Now()
	store := NewStates()
	store.now = func() time.Time { return now }

	require.NoError(t, store.SaveState(ctx, "s1", time.Minute))
	require.NoError(t, store.ConsumeState(ctx, "s1"))
	assert.ErrorIs(t, store.ConsumeState(ctx, "s1"), auth.ErrInvalidState)
	assert.ErrorIs(t, store.ConsumeState(ctx, "unknown"), auth.ErrInvalidState)

	require.NoError(t, store.SaveState(ctx, "s2", time.Minute))
	now = now.Add(2 * time.Minute)
	assert.ErrorIs(t, store.ConsumeState(ctx, "s2"), auth.ErrInvalidState)
}
