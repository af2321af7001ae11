package auth

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/ftarena/authcore/pkg/logger"
	"github.com/ftarena/authcore/pkg/sanitizer"
	"github.com/ftarena/authcore/pkg/validator"
)

// OAuthService links federated identities to local accounts. Identities are
// matched by (provider, subject) first. An email match alone never links an
// account.
type OAuthService struct {
	provider       ProviderAdapter
	states         StateStore
	identities     CredentialStore
	profiles       ProfileService
	issuer         *TokenIssuer
	rotator        *SessionRotator
	stateTTL       time.Duration
	timeout        time.Duration
	profileTimeout time.Duration
	verifiedOnly   bool
	logger         *slog.Logger
}

type OAuthOption func(*OAuthService)

func WithOAuthLogger(l *slog.Logger) OAuthOption {
	return func(s *OAuthService) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithStateTTL sets how long an authorization redirect stays valid.
func WithStateTTL(ttl time.Duration) OAuthOption {
	return func(s *OAuthService) {
		if ttl > 0 {
			s.stateTTL = ttl
		}
	}
}

// WithProviderTimeout bounds code exchange plus profile fetch.
func WithProviderTimeout(d time.Duration) OAuthOption {
	return func(s *OAuthService) {
		if d > 0 {
			s.timeout = d
		}
	}
}

func WithOAuthProfileTimeout(d time.Duration) OAuthOption {
	return func(s *OAuthService) {
		if d > 0 {
			s.profileTimeout = d
		}
	}
}

// WithVerifiedOnly controls whether unverified provider emails are rejected. Default true.
func WithVerifiedOnly(v bool) OAuthOption {
	return func(s *OAuthService) {
		s.verifiedOnly = v
	}
}

func NewOAuthService(
	provider ProviderAdapter,
	states StateStore,
	identities CredentialStore,
	profiles ProfileService,
	issuer *TokenIssuer,
	rotator *SessionRotator,
	opts ...OAuthOption,
) *OAuthService {
	s := &OAuthService{
		provider:       provider,
		states:         states,
		identities:     identities,
		profiles:       profiles,
		issuer:         issuer,
		rotator:        rotator,
		stateTTL:       10 * time.Minute,
		timeout:        10 * time.Second,
		profileTimeout: 5 * time.Second,
		verifiedOnly:   true,
		logger:         logger.Discard(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With(logger.Component("oauth"), logger.Provider(provider.ProviderID()))
	return s
}

// AuthURL stores a fresh state value and returns the provider redirect.
func (s *OAuthService) AuthURL(ctx context.Context) (string, error) {
	state, err := generateState()
	if err != nil {
		return "", err
	}
	if err := s.states.SaveState(ctx, state, s.stateTTL); err != nil {
		return "", fmt.Errorf("save oauth state: %w", err)
	}

	url, err := s.provider.AuthURL(state)
	if err != nil {
		return "", fmt.Errorf("build auth url: %w", err)
	}
	return url, nil
}

// Callback completes the provider redirect.
func (s *OAuthService) Callback(ctx context.Context, code, state string) (*CallbackResult, error) {
	if state == "" {
		return nil, ErrInvalidState
	}
	if code == "" {
		return nil, ErrInvalidCode
	}
	if err := s.states.ConsumeState(ctx, state); err != nil {
		if errors.Is(err, ErrInvalidState) {
			return nil, ErrInvalidState
		}
		return nil, fmt.Errorf("consume oauth state: %w", err)
	}

	profile, err := s.resolve(ctx, code)
	if err != nil {
		return nil, err
	}

	provider := s.provider.ProviderID()

	identity, err := s.identities.GetIdentityByOAuth(ctx, provider, profile.Subject)
	switch {
	case err == nil:
		session, err := s.rotator.replace(ctx, identity)
		if err != nil {
			return nil, err
		}
		s.logger.InfoContext(ctx, "federated login", logger.UserID(identity.ID))
		return &CallbackResult{Session: session}, nil
	case !errors.Is(err, ErrIdentityNotFound):
		return nil, fmt.Errorf("get identity by oauth: %w", err)
	}

	if err := ensureAbsent(s.identities.GetIdentityByEmail(ctx, profile.Email)); err != nil {
		if errors.Is(err, errFound) {
			s.logger.WarnContext(ctx, "federated email matches existing account, refusing to link")
			return nil, ErrProviderEmailInUse
		}
		return nil, err
	}

	temp, err := s.issuer.IssuePartialFederated(provider, profile.Subject, profile.Email)
	if err != nil {
		return nil, err
	}
	return &CallbackResult{TempToken: temp, NeedsUsername: true}, nil
}

// CompleteSignup creates a federated-only identity with the chosen username.
func (s *OAuthService) CompleteSignup(ctx context.Context, tempToken, username string) (*Session, error) {
	claims, err := s.issuer.VerifyTemp(tempToken, PurposeOAuthSignup)
	if err != nil {
		return nil, err
	}
	if claims.Provider != s.provider.ProviderID() {
		return nil, ErrTokenInvalid
	}

	username = sanitizer.NormalizeUsername(username)
	if err := validator.Apply(validator.Username("username", username)); err != nil {
		return nil, err
	}

	if err := ensureAbsent(s.identities.GetIdentityByUsername(ctx, username)); err != nil {
		return nil, errOr(err, ErrUsernameTaken)
	}
	if err := ensureAbsent(s.identities.GetIdentityByOAuth(ctx, claims.Provider, claims.Subject)); err != nil {
		return nil, errOr(err, ErrProviderLinked)
	}
	if err := ensureAbsent(s.identities.GetIdentityByEmail(ctx, claims.Email)); err != nil {
		return nil, errOr(err, ErrProviderEmailInUse)
	}

	now := s.issuer.Now()
	identity := &Identity{
		ID:            uuid.New(),
		Email:         claims.Email,
		Username:      username,
		OAuthProvider: claims.Provider,
		OAuthSubject:  claims.Subject,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := identity.Validate(); err != nil {
		return nil, err
	}
	if err := s.identities.CreateIdentity(ctx, identity); err != nil {
		if errors.Is(err, ErrEmailTaken) {
			return nil, ErrProviderEmailInUse
		}
		return nil, fmt.Errorf("create identity: %w", err)
	}

	if err := createProfile(ctx, s.profiles, s.identities, identity, s.profileTimeout, s.logger); err != nil {
		return nil, err
	}

	session, err := s.issuer.IssueSession(ctx, identity)
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "federated identity registered", logger.UserID(identity.ID))
	return session, nil
}

func (s *OAuthService) resolve(ctx context.Context, code string) (ProviderProfile, error) {
	pctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	profile, err := s.provider.ResolveProfile(pctx, code)
	if err != nil {
		if errors.Is(err, ErrInvalidCode) || errors.Is(err, ErrNoPrimaryEmail) {
			return ProviderProfile{}, err
		}
		s.logger.ErrorContext(ctx, "provider profile fetch failed", logger.Error(err))
		return ProviderProfile{}, errors.Join(ErrProviderUnavailable, err)
	}

	profile, err = profile.normalize()
	if err != nil {
		return ProviderProfile{}, err
	}
	if s.verifiedOnly && !profile.EmailVerified {
		return ProviderProfile{}, ErrUnverifiedEmail
	}
	return profile, nil
}

func generateState() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate oauth state: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
