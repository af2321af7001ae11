// Command authd serves the identity API.
//
// Storage is chosen by configuration: PostgreSQL when DATABASE_URL is set,
// process memory otherwise. OAuth state goes to Redis when REDIS_URL is set.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/ftarena/authcore/modules/account"
	"github.com/ftarena/authcore/pkg/clientip"
	"github.com/ftarena/authcore/pkg/config"
	"github.com/ftarena/authcore/pkg/httpserver"
	"github.com/ftarena/authcore/pkg/logger"
	"github.com/ftarena/authcore/pkg/pg"
	"github.com/ftarena/authcore/pkg/ratelimit"
	"github.com/ftarena/authcore/pkg/redis"
	"github.com/ftarena/authcore/pkg/requestid"
	"github.com/ftarena/authcore/pkg/secrets"
	"github.com/ftarena/authcore/svc/auth"
	"github.com/ftarena/authcore/svc/profile"
	"github.com/ftarena/authcore/svc/storage/memory"
	"github.com/ftarena/authcore/svc/storage/postgres"
	"github.com/ftarena/authcore/svc/storage/redisstore"
)

type appConfig struct {
	Env              string        `env:"APP_ENV" envDefault:"development"`
	Name             string        `env:"APP_NAME" envDefault:"authd"`
	OAuthProvider    string        `env:"OAUTH_PROVIDER"`
	DatabaseURL      string        `env:"DATABASE_URL"`
	RedisURL         string        `env:"REDIS_URL"`
	TrustedIPHeaders []string      `env:"TRUSTED_IP_HEADERS" envSeparator:","`
	PurgeInterval    time.Duration `env:"SESSION_PURGE_INTERVAL" envDefault:"1h"`
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	app, err := config.Load[appConfig]()
	if err != nil {
		return err
	}

	log := logger.New(
		logger.WithEnvironment(app.Env, app.Name),
		logger.WithContextExtractors(requestid.Extractor),
	)
	slog.SetDefault(log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	authCfg, err := config.Load[auth.Config]()
	if err != nil {
		return fatal(log, "load auth config", err)
	}
	httpCfg, err := config.Load[httpserver.Config]()
	if err != nil {
		return fatal(log, "load http config", err)
	}
	limitCfg, err := config.Load[ratelimit.Config]()
	if err != nil {
		return fatal(log, "load rate limit config", err)
	}

	totpKey, err := secrets.ParseKey(authCfg.TOTPEncryptionKey)
	if err != nil {
		return fatal(log, "parse TOTP_ENCRYPTION_KEY", err)
	}
	sealer, err := secrets.NewSealer(totpKey)
	if err != nil {
		return fatal(log, "create sealer", err)
	}

	var (
		identities auth.CredentialStore = memory.NewCredentials()
		sessions   auth.SessionStore    = memory.NewSessions()
		states     auth.StateStore      = memory.NewStates()
		checks                          = map[string]func(context.Context) error{}
	)

	if app.DatabaseURL != "" {
		pgCfg, err := config.Load[pg.Config]()
		if err != nil {
			return fatal(log, "load postgres config", err)
		}
		pool, err := pg.Connect(ctx, pgCfg)
		if err != nil {
			return fatal(log, "connect to postgres", err)
		}
		defer pool.Close()

		if err := pg.Migrate(ctx, pool, pgCfg, log); err != nil {
			return fatal(log, "run migrations", err)
		}

		identities = postgres.NewCredentials(pool)
		sessions = postgres.NewSessions(pool)
		checks["postgres"] = pg.Healthcheck(pool)
	} else {
		log.Warn("DATABASE_URL not set, identities and sessions are kept in memory")
	}

	if app.RedisURL != "" {
		redisCfg, err := config.Load[redis.Config]()
		if err != nil {
			return fatal(log, "load redis config", err)
		}
		client, err := redis.Connect(ctx, redisCfg)
		if err != nil {
			return fatal(log, "connect to redis", err)
		}
		defer func() { _ = client.Close() }()

		states = redisstore.NewStates(client, redisstore.WithPrefix(app.Name+":oauth_state:"))
		checks["redis"] = redis.Healthcheck(client)
	}

	profileCfg, err := config.Load[profile.Config]()
	if err != nil {
		return fatal(log, "load profile service config", err)
	}
	profiles, err := profile.New(profileCfg)
	if err != nil {
		return fatal(log, "create profile client", err)
	}

	issuer, err := auth.NewTokenIssuer(authCfg, sessions, auth.WithIssuerLogger(log))
	if err != nil {
		return fatal(log, "create token issuer", err)
	}
	rotator := auth.NewSessionRotator(issuer, sessions, identities, auth.WithRotatorLogger(log))

	svcs := account.Services{
		Issuer:  issuer,
		Rotator: rotator,
		Password: auth.NewPasswordService(identities, profiles, issuer, rotator,
			auth.WithPasswordLogger(log),
			auth.WithBcryptCost(authCfg.BcryptCost),
			auth.WithProfileTimeout(authCfg.ProfileTimeout),
		),
		TwoFactor: auth.NewTwoFactorService(identities, sealer, issuer, rotator,
			auth.WithTwoFactorLogger(log),
			auth.WithTOTPIssuer(authCfg.TOTPIssuer),
		),
	}

	adapter, err := providerAdapter(app.OAuthProvider)
	if err != nil {
		return fatal(log, "configure oauth provider", err)
	}
	if adapter != nil {
		svcs.OAuth = auth.NewOAuthService(adapter, states, identities, profiles, issuer, rotator,
			auth.WithOAuthLogger(log),
			auth.WithStateTTL(authCfg.OAuthStateTTL),
			auth.WithProviderTimeout(authCfg.OAuthTimeout),
			auth.WithOAuthProfileTimeout(authCfg.ProfileTimeout),
			auth.WithVerifiedOnly(authCfg.OAuthVerifiedOnly),
		)
	}

	go purgeExpired(ctx, rotator, app.PurgeInterval, log)

	r := chi.NewRouter()
	r.Get("/health/live", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	r.Get("/health/ready", readiness(checks, log))
	r.Mount("/", account.Router(svcs,
		account.WithLogger(log),
		account.WithLimiter(ratelimit.New(limitCfg)),
		account.WithClientIP(clientip.New(app.TrustedIPHeaders...)),
	))

	log.Info("starting", slog.String("addr", httpCfg.Addr), slog.Bool("oauth", svcs.OAuth != nil))
	return httpserver.New(httpCfg, r, httpserver.WithLogger(log)).Run(ctx)
}

func providerAdapter(name string) (auth.ProviderAdapter, error) {
	switch name {
	case "":
		return nil, nil
	case auth.OAuthProviderGoogle:
		cfg, err := config.Load[auth.GoogleOAuthConfig]()
		if err != nil {
			return nil, err
		}
		return auth.NewGoogleAdapter(cfg), nil
	case auth.OAuthProviderGithub:
		cfg, err := config.Load[auth.GitHubOAuthConfig]()
		if err != nil {
			return nil, err
		}
		return auth.NewGitHubAdapter(cfg), nil
	default:
		return nil, fmt.Errorf("unknown OAUTH_PROVIDER %q", name)
	}
}

// purgeExpired deletes refresh sessions that expired unused.
func purgeExpired(ctx context.Context, rotator *auth.SessionRotator, every time.Duration, log *slog.Logger) {
	if every <= 0 {
		return
	}
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := rotator.PurgeExpired(ctx)
			if err != nil {
				if !errors.Is(err, context.Canceled) {
					log.Error("purge expired sessions", logger.Error(err))
				}
				continue
			}
			if n > 0 {
				log.Info("purged expired sessions", slog.Int64("count", n))
			}
		}
	}
}

func readiness(checks map[string]func(context.Context) error, log *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		for name, check := range checks {
			if err := check(ctx); err != nil {
				log.WarnContext(ctx, "readiness check failed", slog.String("dependency", name), logger.Error(err))
				http.Error(w, name+" unavailable", http.StatusServiceUnavailable)
				return
			}
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func fatal(log *slog.Logger, step string, err error) error {
	log.Error("startup failure", slog.String("step", step), logger.Error(err))
	return fmt.Errorf("%s: %w", step, err)
}
