package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/ftarena/authcore/pkg/logger"
	"github.com/ftarena/authcore/pkg/qrcode"
	"github.com/ftarena/authcore/pkg/totp"
)

// Sealer encrypts secrets bound to a scope. *secrets.Sealer implements it.
type Sealer interface {
	Seal(scope, plaintext string) (string, error)
	Open(scope, sealed string) (string, error)
}

// TwoFactorService manages TOTP enrolment and step-up verification.
type TwoFactorService struct {
	identities CredentialStore
	sealer     Sealer
	issuer     *TokenIssuer
	rotator    *SessionRotator
	totpIssuer string
	logger     *slog.Logger
}

type TwoFactorOption func(*TwoFactorService)

func WithTwoFactorLogger(l *slog.Logger) TwoFactorOption {
	return func(s *TwoFactorService) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithTOTPIssuer sets the issuer label shown in authenticator apps.
func WithTOTPIssuer(name string) TwoFactorOption {
	return func(s *TwoFactorService) {
		if name != "" {
			s.totpIssuer = name
		}
	}
}

func NewTwoFactorService(
	identities CredentialStore,
	sealer Sealer,
	issuer *TokenIssuer,
	rotator *SessionRotator,
	opts ...TwoFactorOption,
) *TwoFactorService {
	s := &TwoFactorService{
		identities: identities,
		sealer:     sealer,
		issuer:     issuer,
		rotator:    rotator,
		totpIssuer: "FT Arena",
		logger:     logger.Discard(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With(logger.Component("two_factor"))
	return s
}

// Setup stores a fresh pending secret and returns provisioning material.
// Calling it again before Confirm replaces the pending secret.
func (s *TwoFactorService) Setup(ctx context.Context, userID uuid.UUID, email string) (*TwoFactorSetup, error) {
	identity, err := s.identities.GetIdentityByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("get identity: %w", err)
	}
	if identity.TwoFactorEnabled {
		return nil, ErrTwoFactorAlreadyEnabled
	}
	if email == "" {
		email = identity.Email
	}

	secret, err := totp.GenerateSecretKey()
	if err != nil {
		return nil, fmt.Errorf("generate totp secret: %w", err)
	}

	sealed, err := s.sealer.Seal(userID.String(), secret)
	if err != nil {
		return nil, fmt.Errorf("seal totp secret: %w", err)
	}
	if err := s.identities.SetTwoFactorSecret(ctx, userID, sealed); err != nil {
		return nil, fmt.Errorf("store totp secret: %w", err)
	}

	uri, err := totp.GetTOTPURI(totp.TOTPParams{
		Secret:      secret,
		AccountName: email,
		Issuer:      s.totpIssuer,
	})
	if err != nil {
		return nil, fmt.Errorf("build otpauth uri: %w", err)
	}

	qr, err := qrcode.DataURI(uri)
	if err != nil {
		return nil, fmt.Errorf("render qr code: %w", err)
	}

	s.logger.InfoContext(ctx, "two-factor setup started", logger.UserID(userID))
	return &TwoFactorSetup{OTPAuthURL: uri, QRCode: qr, Secret: secret}, nil
}

// Confirm enables 2FA once the user proves the pending secret works.
func (s *TwoFactorService) Confirm(ctx context.Context, userID uuid.UUID, code string) error {
	identity, err := s.identities.GetIdentityByID(ctx, userID)
	if err != nil {
		return fmt.Errorf("get identity: %w", err)
	}
	if identity.TwoFactorEnabled {
		return ErrTwoFactorAlreadyEnabled
	}
	if !identity.TwoFactorPending() {
		return ErrTwoFactorNotPending
	}

	if err := s.check(ctx, identity, code); err != nil {
		return err
	}
	if err := s.identities.EnableTwoFactor(ctx, userID); err != nil {
		return fmt.Errorf("enable two-factor: %w", err)
	}

	s.logger.InfoContext(ctx, "two-factor enabled", logger.UserID(userID))
	return nil
}

// Disable clears the secret and the flag. It succeeds when 2FA is already off.
func (s *TwoFactorService) Disable(ctx context.Context, userID uuid.UUID) error {
	if err := s.identities.DisableTwoFactor(ctx, userID); err != nil {
		return fmt.Errorf("disable two-factor: %w", err)
	}
	s.logger.InfoContext(ctx, "two-factor disabled", logger.UserID(userID))
	return nil
}

// VerifyStepUp completes a password login for a 2FA account.
func (s *TwoFactorService) VerifyStepUp(ctx context.Context, tempToken, code string) (*Session, error) {
	claims, err := s.issuer.VerifyTemp(tempToken, PurposeTwoFactor)
	if err != nil {
		return nil, err
	}
	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return nil, ErrTokenInvalid
	}

	identity, err := s.identities.GetIdentityByID(ctx, userID)
	if err != nil {
		if errors.Is(err, ErrIdentityNotFound) {
			return nil, ErrTokenInvalid
		}
		return nil, fmt.Errorf("get identity: %w", err)
	}
	if !identity.TwoFactorEnabled {
		return nil, ErrTwoFactorNotEnabled
	}

	if err := s.check(ctx, identity, code); err != nil {
		return nil, err
	}

	session, err := s.rotator.replace(ctx, identity)
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "two-factor login", logger.UserID(userID))
	return session, nil
}

// check validates code and marks its time step used, so a code that
// confirmed enrolment or completed a login cannot be presented again.
func (s *TwoFactorService) check(ctx context.Context, identity *Identity, code string) error {
	secret, err := s.sealer.Open(identity.ID.String(), identity.TwoFactorSecret)
	if err != nil {
		return fmt.Errorf("open totp secret: %w", err)
	}

	step, ok, err := totp.MatchTOTPAt(secret, code, s.issuer.Now(), totp.DefaultSkew)
	if err != nil {
		if errors.Is(err, totp.ErrInvalidOTP) {
			return ErrInvalidTOTPCode
		}
		return fmt.Errorf("validate totp: %w", err)
	}
	if !ok {
		return ErrInvalidTOTPCode
	}

	if err := s.identities.UseTwoFactorStep(ctx, identity.ID, step); err != nil {
		if errors.Is(err, ErrInvalidTOTPCode) {
			s.logger.WarnContext(ctx, "totp code reused", logger.UserID(identity.ID))
			return ErrInvalidTOTPCode
		}
		return fmt.Errorf("record totp step: %w", err)
	}
	return nil
}
