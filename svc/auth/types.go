package auth

import (
	"time"

	"github.com/google/uuid"

	"github.com/ftarena/authcore/pkg/jwt"
)

// Identity is a local account. At least one of PasswordHash and
// OAuthSubject is always set.
type Identity struct {
	ID           uuid.UUID
	Email        string
	Username     string
	PasswordHash []byte // nil for federated-only accounts

	OAuthProvider string
	OAuthSubject  string

	TwoFactorEnabled bool
	// TwoFactorSecret is sealed. It is set while setup is pending and while 2FA is enabled.
	TwoFactorSecret string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Validate enforces the credential invariant.
func (i *Identity) Validate() error {
	if len(i.PasswordHash) == 0 && i.OAuthSubject == "" {
		return ErrNoCredential
	}
	return nil
}

// HasPassword reports whether the identity can log in with a password.
func (i *Identity) HasPassword() bool {
	return len(i.PasswordHash) > 0
}

// TwoFactorPending reports whether setup started but was not confirmed.
func (i *Identity) TwoFactorPending() bool {
	return !i.TwoFactorEnabled && i.TwoFactorSecret != ""
}

// RefreshSession is a persisted refresh token. TokenHash is the SHA-256 hex
// digest of the token handed to the client.
type RefreshSession struct {
	TokenHash string
	UserID    uuid.UUID
	CreatedAt time.Time
	ExpiresAt time.Time
}

// Expired reports whether the session is no longer usable at now.
func (s *RefreshSession) Expired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}

// Session is what a successful authentication returns to the client.
type Session struct {
	AccessToken  string
	RefreshToken string
	ExpiresAt    time.Time // access token expiry
}

// LoginType tells the client whether it holds a session or must step up.
type LoginType string

const (
	LoginFull LoginType = "FULL"
	LoginTemp LoginType = "TEMP"
)

type LoginResult struct {
	Type      LoginType
	Session   *Session
	TempToken string
}

// CallbackResult carries either a session or a temp token for username completion.
type CallbackResult struct {
	Session       *Session
	TempToken     string
	NeedsUsername bool
}

// TwoFactorSetup is the provisioning material for an authenticator app.
type TwoFactorSetup struct {
	OTPAuthURL string
	QRCode     string // data:image/png;base64 URI
	Secret     string // Base32
}

const (
	TokenTypeAccess = "access"
	TokenTypeTemp   = "temp"
)

// Purpose restricts what a temp token may be exchanged for.
type Purpose string

const (
	PurposeTwoFactor   Purpose = "2fa"
	PurposeOAuthSignup Purpose = "oauth_signup"
)

// AccessClaims are carried by access tokens.
type AccessClaims struct {
	jwt.RegisteredClaims
	Email    string `json:"email"`
	Username string `json:"username"`
	Type     string `json:"typ"`
}

// UserID parses the subject.
func (c *AccessClaims) UserID() (uuid.UUID, error) {
	return uuid.Parse(c.Subject)
}

// TempClaims are carried by temp tokens. For PurposeOAuthSignup the subject
// is the provider's user id, not a local one.
type TempClaims struct {
	jwt.RegisteredClaims
	Type     string  `json:"typ"`
	Purpose  Purpose `json:"purpose"`
	Email    string  `json:"email,omitempty"`
	Provider string  `json:"provider,omitempty"`
}
