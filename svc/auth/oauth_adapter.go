package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"golang.org/x/oauth2"

	"github.com/ftarena/authcore/pkg/sanitizer"
)

// Provider identifiers.
const (
	OAuthProviderGoogle = "google"
	OAuthProviderGithub = "github"
)

// ProviderAdapter hides one identity provider's protocol details.
type ProviderAdapter interface {
	// ProviderID is stored alongside the subject, e.g. "google".
	ProviderID() string

	// AuthURL builds the authorization redirect for state.
	AuthURL(state string) (string, error)

	// ResolveProfile exchanges code and fetches the user's profile.
	// A code the provider rejects returns ErrInvalidCode; a profile without
	// a usable email returns ErrNoPrimaryEmail. Transport failures and 5xx
	// responses come back wrapped so the caller can report a bad gateway.
	ResolveProfile(ctx context.Context, code string) (ProviderProfile, error)
}

// ProviderProfile is the typed profile an adapter returns.
type ProviderProfile struct {
	Subject       string // provider's stable user id, numeric ids rendered as strings
	Email         string
	EmailVerified bool
	Name          string
	AvatarURL     string
}

// normalize trims fields and checks that the profile is usable.
func (p ProviderProfile) normalize() (ProviderProfile, error) {
	p.Subject = strings.TrimSpace(p.Subject)
	p.Email = sanitizer.NormalizeEmail(p.Email)
	if p.Subject == "" {
		return p, ErrProviderUnavailable
	}
	if p.Email == "" {
		return p, ErrNoPrimaryEmail
	}
	return p, nil
}

// exchangeError classifies a failed code exchange. Only an explicit
// rejection of the code by the provider maps to ErrInvalidCode.
func exchangeError(err error) error {
	var re *oauth2.RetrieveError
	if errors.As(err, &re) {
		switch re.ErrorCode {
		case "invalid_grant", "bad_verification_code":
			return ErrInvalidCode
		}
		if re.Response != nil && re.Response.StatusCode >= http.StatusBadRequest &&
			re.Response.StatusCode < http.StatusInternalServerError {
			return ErrInvalidCode
		}
	}
	return fmt.Errorf("exchange code: %w", err)
}
