package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/ftarena/authcore/pkg/logger"
	"github.com/ftarena/authcore/pkg/sanitizer"
	"github.com/ftarena/authcore/pkg/validator"
)

// dummyHash is compared against when the email is unknown so that both
// failure paths cost one bcrypt evaluation.
var dummyHash, _ = bcrypt.GenerateFromPassword([]byte("timing-equaliser-password"), bcrypt.DefaultCost)

// PasswordService handles email and password authentication.
type PasswordService struct {
	identities     CredentialStore
	profiles       ProfileService
	issuer         *TokenIssuer
	rotator        *SessionRotator
	bcryptCost     int
	profileTimeout time.Duration
	keepSessions   bool
	logger         *slog.Logger
}

type PasswordOption func(*PasswordService)

func WithPasswordLogger(l *slog.Logger) PasswordOption {
	return func(s *PasswordService) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithBcryptCost sets the hashing cost. Values below 10 are raised to 10.
func WithBcryptCost(cost int) PasswordOption {
	return func(s *PasswordService) {
		s.bcryptCost = max(cost, 10)
	}
}

// WithProfileTimeout bounds the profile service call made during registration.
func WithProfileTimeout(d time.Duration) PasswordOption {
	return func(s *PasswordService) {
		if d > 0 {
			s.profileTimeout = d
		}
	}
}

// WithKeepSessionsOnPasswordChange leaves existing sessions alive after UpdatePassword.
func WithKeepSessionsOnPasswordChange() PasswordOption {
	return func(s *PasswordService) {
		s.keepSessions = true
	}
}

func NewPasswordService(
	identities CredentialStore,
	profiles ProfileService,
	issuer *TokenIssuer,
	rotator *SessionRotator,
	opts ...PasswordOption,
) *PasswordService {
	s := &PasswordService{
		identities:     identities,
		profiles:       profiles,
		issuer:         issuer,
		rotator:        rotator,
		bcryptCost:     12,
		profileTimeout: 5 * time.Second,
		logger:         logger.Discard(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With(logger.Component("password"))
	return s
}

// Login verifies email and password. Accounts with 2FA get a TEMP result
// carrying a step-up token; others get a fresh session that replaces any
// previous one.
func (s *PasswordService) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	email = sanitizer.NormalizeEmail(email)
	if email == "" || password == "" {
		return nil, ErrInvalidCredentials
	}

	identity, err := s.identities.GetIdentityByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrIdentityNotFound) {
			_ = bcrypt.CompareHashAndPassword(dummyHash, []byte(password))
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("get identity by email: %w", err)
	}

	if !identity.HasPassword() {
		_ = bcrypt.CompareHashAndPassword(dummyHash, []byte(password))
		return nil, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword(identity.PasswordHash, []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	if identity.TwoFactorEnabled {
		temp, err := s.issuer.IssueTemp(identity.ID)
		if err != nil {
			return nil, err
		}
		return &LoginResult{Type: LoginTemp, TempToken: temp}, nil
	}

	session, err := s.rotator.replace(ctx, identity)
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "password login", logger.UserID(identity.ID))
	return &LoginResult{Type: LoginFull, Session: session}, nil
}

// Register creates a password identity and its public profile. If the
// profile cannot be created the identity is deleted again and
// ErrProfileUnavailable is returned.
func (s *PasswordService) Register(ctx context.Context, email, password, username string) (*Identity, error) {
	email = sanitizer.NormalizeEmail(email)
	username = sanitizer.NormalizeUsername(username)

	if err := validator.Apply(
		validator.ValidEmail("email", email),
		validator.Password("password", password),
		validator.Username("username", username),
	); err != nil {
		return nil, err
	}

	// Fast path only. The store's unique constraints decide races.
	if err := ensureAbsent(s.identities.GetIdentityByEmail(ctx, email)); err != nil {
		return nil, errOr(err, ErrEmailTaken)
	}
	if err := ensureAbsent(s.identities.GetIdentityByUsername(ctx, username)); err != nil {
		return nil, errOr(err, ErrUsernameTaken)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	now := s.issuer.Now()
	identity := &Identity{
		ID:           uuid.New(),
		Email:        email,
		Username:     username,
		PasswordHash: hash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := identity.Validate(); err != nil {
		return nil, err
	}

	if err := s.identities.CreateIdentity(ctx, identity); err != nil {
		return nil, fmt.Errorf("create identity: %w", err)
	}

	if err := createProfile(ctx, s.profiles, s.identities, identity, s.profileTimeout, s.logger); err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "identity registered", logger.UserID(identity.ID))
	return identity, nil
}

// UpdatePassword replaces the password after checking the current one.
// All sessions are revoked afterwards unless WithKeepSessionsOnPasswordChange is set.
func (s *PasswordService) UpdatePassword(ctx context.Context, userID uuid.UUID, currentPassword, newPassword string) error {
	identity, err := s.identities.GetIdentityByID(ctx, userID)
	if err != nil {
		if errors.Is(err, ErrIdentityNotFound) {
			return ErrUnauthorized
		}
		return fmt.Errorf("get identity: %w", err)
	}

	if !identity.HasPassword() {
		return ErrUnauthorized
	}
	if err := bcrypt.CompareHashAndPassword(identity.PasswordHash, []byte(currentPassword)); err != nil {
		return ErrUnauthorized
	}

	if err := validator.Apply(validator.Password("newPassword", newPassword)); err != nil {
		return err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), s.bcryptCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	if err := s.identities.UpdatePasswordHash(ctx, userID, hash); err != nil {
		return fmt.Errorf("update password hash: %w", err)
	}

	if !s.keepSessions {
		if err := s.rotator.RevokeAll(ctx, userID); err != nil {
			return err
		}
	}

	s.logger.InfoContext(ctx, "password updated", logger.UserID(userID))
	return nil
}

var errFound = errors.New("identity exists")

// ensureAbsent maps a lookup to nil when nothing was found and to errFound
// when something was. Store failures pass through.
func ensureAbsent(_ *Identity, err error) error {
	switch {
	case err == nil:
		return errFound
	case errors.Is(err, ErrIdentityNotFound):
		return nil
	default:
		return fmt.Errorf("lookup identity: %w", err)
	}
}

// errOr replaces errFound with conflict.
func errOr(err, conflict error) error {
	if errors.Is(err, errFound) {
		return conflict
	}
	return err
}

// createProfile notifies the profile service and deletes identity if that fails.
func createProfile(
	ctx context.Context,
	profiles ProfileService,
	identities CredentialStore,
	identity *Identity,
	timeout time.Duration,
	log *slog.Logger,
) error {
	pctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	err := profiles.CreateProfile(pctx, identity.ID, identity.Email, identity.Username)
	if err == nil {
		return nil
	}

	log.ErrorContext(ctx, "profile creation failed, rolling back identity",
		logger.UserID(identity.ID),
		logger.Error(err),
	)
	if delErr := identities.DeleteIdentity(context.WithoutCancel(ctx), identity.ID); delErr != nil {
		log.ErrorContext(ctx, "failed to delete identity after profile failure",
			logger.UserID(identity.ID),
			logger.Error(delErr),
		)
	}
	return errors.Join(ErrProfileUnavailable, err)
}
