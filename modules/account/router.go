package account

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/ftarena/authcore/pkg/clientip"
	"github.com/ftarena/authcore/pkg/jwt"
	"github.com/ftarena/authcore/pkg/logger"
	"github.com/ftarena/authcore/pkg/ratelimit"
	"github.com/ftarena/authcore/pkg/requestid"
	"github.com/ftarena/authcore/svc/auth"
)

// Services are the domain services behind the routes. OAuth is optional;
// without it the /oauth routes are not mounted.
type Services struct {
	Issuer    *auth.TokenIssuer
	Rotator   *auth.SessionRotator
	Password  *auth.PasswordService
	TwoFactor *auth.TwoFactorService
	OAuth     *auth.OAuthService
}

type Option func(*routerOptions)

type routerOptions struct {
	logger   *slog.Logger
	limiter  *ratelimit.Limiter
	resolver *clientip.Resolver
}

func WithLogger(l *slog.Logger) Option {
	return func(o *routerOptions) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithLimiter replaces the per-address limiter on credential routes.
func WithLimiter(l *ratelimit.Limiter) Option {
	return func(o *routerOptions) {
		if l != nil {
			o.limiter = l
		}
	}
}

// WithClientIP sets how client addresses are resolved for rate limiting.
func WithClientIP(r *clientip.Resolver) Option {
	return func(o *routerOptions) {
		if r != nil {
			o.resolver = r
		}
	}
}

// Router builds the /auth routes.
//
//	r := chi.NewRouter()
//	r.Mount("/", account.Router(account.Services{...}, account.WithLogger(log)))
func Router(svcs Services, opts ...Option) chi.Router {
	o := routerOptions{
		logger:   logger.Discard(),
		resolver: clientip.New(),
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.limiter == nil {
		o.limiter = ratelimit.New(ratelimit.Config{})
	}

	h := &handlers{
		issuer:    svcs.Issuer,
		rotator:   svcs.Rotator,
		password:  svcs.Password,
		twoFactor: svcs.TwoFactor,
		oauth:     svcs.OAuth,
		logger:    o.logger.With(logger.Component("http")),
	}

	limit := ratelimit.Middleware(o.limiter, func(r *http.Request) string {
		return clientip.FromContext(r.Context())
	}, func(w http.ResponseWriter, r *http.Request, _ time.Duration) {
		h.fail(w, r, errTooManyRequests)
	})

	r := chi.NewRouter()
	r.Use(requestid.Middleware)
	r.Use(o.resolver.Middleware)

	r.Route("/auth", func(r chi.Router) {
		r.Post("/register", h.register)
		r.With(limit).Post("/login", h.login)
		r.With(limit).Post("/token/refresh", h.refresh)
		r.With(limit, h.requireTemp).Post("/2fa/verify", h.verifyTwoFactor)

		r.Group(func(r chi.Router) {
			r.Use(h.requireAccess)
			r.Get("/me", h.me)
			r.Post("/logout", h.logout)
			r.Post("/logout/all", h.logoutAll)
			r.Post("/password", h.updatePassword)
			r.Post("/2fa/setup", h.setupTwoFactor)
			r.Post("/2fa/confirm", h.confirmTwoFactor)
			r.Post("/2fa/disable", h.disableTwoFactor)
		})

		if svcs.OAuth != nil {
			r.Get("/oauth/start", h.oauthStart)
			r.Get("/oauth/callback", h.oauthCallback)
			r.Post("/oauth/set-username", h.oauthSetUsername)
		}
	})

	return r
}

// requireAccess admits requests carrying a valid access token.
func (h *handlers) requireAccess(next http.Handler) http.Handler {
	return jwt.Middleware(jwt.MiddlewareConfig{
		Verify: func(ctx context.Context, token string) (context.Context, error) {
			claims, err := h.issuer.VerifyAccess(token)
			if err != nil {
				return nil, err
			}
			return auth.WithClaims(ctx, claims), nil
		},
		OnError: h.unauthorized,
	})(next)
}

// requireTemp passes the bearer token through for the step-up handler,
// which verifies it together with the code.
func (h *handlers) requireTemp(next http.Handler) http.Handler {
	return jwt.Middleware(jwt.MiddlewareConfig{
		Verify: func(ctx context.Context, token string) (context.Context, error) {
			return auth.WithTempToken(ctx, token), nil
		},
		OnError: h.unauthorized,
	})(next)
}

func (h *handlers) unauthorized(w http.ResponseWriter, r *http.Request, _ error) {
	h.fail(w, r, auth.ErrUnauthorized)
}
