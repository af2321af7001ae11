package auth

import (
	"errors"

	"github.com/ftarena/authcore/pkg/validator"
)

var (
	ErrNoCredential            = errors.New("identity has neither password nor federated credential")
	ErrIdentityNotFound        = errors.New("identity not found")
	ErrEmailTaken              = errors.New("email already registered")
	ErrUsernameTaken           = errors.New("username already taken")
	ErrProviderLinked          = errors.New("federated identity already linked")
	ErrInvalidCredentials      = errors.New("invalid email or password")
	ErrUnauthorized            = errors.New("unauthorized")
	ErrTokenInvalid            = errors.New("invalid or expired token")
	ErrSessionNotFound         = errors.New("session not found")
	ErrInvalidSession          = errors.New("invalid refresh token")
	ErrExpiredSession          = errors.New("refresh token expired")
	ErrTwoFactorAlreadyEnabled = errors.New("two-factor authentication already enabled")
	ErrTwoFactorNotPending     = errors.New("two-factor setup not started")
	ErrTwoFactorNotEnabled     = errors.New("two-factor authentication not enabled")
	ErrInvalidTOTPCode         = errors.New("invalid verification code")
	ErrInvalidState            = errors.New("invalid oauth state")
	ErrInvalidCode             = errors.New("invalid authorization code")
	ErrNoPrimaryEmail          = errors.New("provider returned no usable email")
	ErrUnverifiedEmail         = errors.New("provider email not verified")
	ErrProviderEmailInUse      = errors.New("email already registered, sign in with password")
	ErrProviderUnavailable     = errors.New("identity provider unavailable")
	ErrProfileUnavailable      = errors.New("profile service unavailable")
	ErrMissingSigningKey       = errors.New("signing key is required")
)

// Kind classifies errors for the transport layer.
type Kind int

const (
	KindInternal Kind = iota
	KindValidation
	KindConflict
	KindUnauthorized
	KindNotFound
	KindBadGateway
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindConflict:
		return "conflict"
	case KindUnauthorized:
		return "unauthorized"
	case KindNotFound:
		return "not_found"
	case KindBadGateway:
		return "bad_gateway"
	default:
		return "internal"
	}
}

var kinds = []struct {
	kind Kind
	errs []error
}{
	{KindValidation, []error{ErrTwoFactorNotPending, ErrTwoFactorNotEnabled, ErrNoCredential}},
	{KindConflict, []error{
		ErrEmailTaken, ErrUsernameTaken, ErrProviderLinked,
		ErrTwoFactorAlreadyEnabled, ErrProviderEmailInUse,
	}},
	{KindUnauthorized, []error{
		ErrInvalidCredentials, ErrUnauthorized, ErrTokenInvalid,
		ErrInvalidSession, ErrExpiredSession, ErrInvalidTOTPCode,
		ErrInvalidState, ErrInvalidCode, ErrNoPrimaryEmail, ErrUnverifiedEmail,
	}},
	{KindNotFound, []error{ErrIdentityNotFound}},
	{KindBadGateway, []error{ErrProviderUnavailable, ErrProfileUnavailable}},
}

// KindOf classifies err. Unrecognised errors are KindInternal.
func KindOf(err error) Kind {
	if err == nil {
		return KindInternal
	}
	if validator.IsValidationError(err) {
		return KindValidation
	}
	for _, group := range kinds {
		for _, target := range group.errs {
			if errors.Is(err, target) {
				return group.kind
			}
		}
	}
	return KindInternal
}
