package memory

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ftarena/authcore/pkg/sanitizer"
	"github.com/ftarena/authcore/svc/auth"
)

// Credentials is an in-memory auth.CredentialStore.
type Credentials struct {
	mu    sync.RWMutex
	byID  map[uuid.UUID]*auth.Identity
	steps map[uuid.UUID]int64 // last accepted TOTP step
	now   func() time.Time
}

func NewCredentials() *Credentials {
	return &Credentials{
		byID:  make(map[uuid.UUID]*auth.Identity),
		steps: make(map[uuid.UUID]int64),
		now:   time.Now,
	}
}

func (c *Credentials) CreateIdentity(_ context.Context, identity *auth.Identity) error {
	if err := identity.Validate(); err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	usernameKey := sanitizer.UsernameKey(identity.Username)
	for _, existing := range c.byID {
		switch {
		case existing.Email == identity.Email:
			return auth.ErrEmailTaken
		case sanitizer.UsernameKey(existing.Username) == usernameKey:
			return auth.ErrUsernameTaken
		case identity.OAuthSubject != "" &&
			existing.OAuthProvider == identity.OAuthProvider &&
			existing.OAuthSubject == identity.OAuthSubject:
			return auth.ErrProviderLinked
		}
	}

	stored := clone(identity)
	if stored.CreatedAt.IsZero() {
		stored.CreatedAt = c.now()
	}
	stored.UpdatedAt = stored.CreatedAt
	c.byID[stored.ID] = stored
	return nil
}

func (c *Credentials) GetIdentityByID(_ context.Context, id uuid.UUID) (*auth.Identity, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if identity, ok := c.byID[id]; ok {
		return clone(identity), nil
	}
	return nil, auth.ErrIdentityNotFound
}

func (c *Credentials) GetIdentityByEmail(_ context.Context, email string) (*auth.Identity, error) {
	return c.find(func(i *auth.Identity) bool { return i.Email == email })
}

func (c *Credentials) GetIdentityByUsername(_ context.Context, username string) (*auth.Identity, error) {
	key := sanitizer.UsernameKey(username)
	return c.find(func(i *auth.Identity) bool { return sanitizer.UsernameKey(i.Username) == key })
}

func (c *Credentials) GetIdentityByOAuth(_ context.Context, provider, subject string) (*auth.Identity, error) {
	if subject == "" {
		return nil, auth.ErrIdentityNotFound
	}
	return c.find(func(i *auth.Identity) bool {
		return i.OAuthProvider == provider && i.OAuthSubject == subject
	})
}

func (c *Credentials) UpdatePasswordHash(_ context.Context, id uuid.UUID, hash []byte) error {
	return c.update(id, func(i *auth.Identity) {
		i.PasswordHash = append([]byte(nil), hash...)
	})
}

func (c *Credentials) SetTwoFactorSecret(_ context.Context, id uuid.UUID, sealed string) error {
	return c.update(id, func(i *auth.Identity) {
		i.TwoFactorSecret = sealed
		i.TwoFactorEnabled = false
		delete(c.steps, i.ID)
	})
}

func (c *Credentials) EnableTwoFactor(_ context.Context, id uuid.UUID) error {
	return c.update(id, func(i *auth.Identity) {
		i.TwoFactorEnabled = true
	})
}

func (c *Credentials) DisableTwoFactor(_ context.Context, id uuid.UUID) error {
	return c.update(id, func(i *auth.Identity) {
		i.TwoFactorEnabled = false
		i.TwoFactorSecret = ""
		delete(c.steps, i.ID)
	})
}

func (c *Credentials) UseTwoFactorStep(_ context.Context, id uuid.UUID, step int64) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.byID[id]; !ok {
		return auth.ErrIdentityNotFound
	}
	if last, ok := c.steps[id]; ok && step <= last {
		return auth.ErrInvalidTOTPCode
	}
	c.steps[id] = step
	return nil
}

func (c *Credentials) DeleteIdentity(_ context.Context, id uuid.UUID) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.byID, id)
	delete(c.steps, id)
	return nil
}

func (c *Credentials) find(match func(*auth.Identity) bool) (*auth.Identity, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	for _, identity := range c.byID {
		if match(identity) {
			return clone(identity), nil
		}
	}
	return nil, auth.ErrIdentityNotFound
}

func (c *Credentials) update(id uuid.UUID, fn func(*auth.Identity)) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	identity, ok := c.byID[id]
	if !ok {
		return auth.ErrIdentityNotFound
	}
	fn(identity)
	identity.UpdatedAt = c.now()
	return nil
}

func clone(i *auth.Identity) *auth.Identity {
	out := *i
	if i.PasswordHash != nil {
		out.PasswordHash = append([]byte(nil), i.PasswordHash...)
	}
	return &out
}

var _ auth.CredentialStore = (*Credentials)(nil)
