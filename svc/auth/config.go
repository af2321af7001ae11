package auth

import "time"

// Config is loaded from the environment at startup.
type Config struct {
	SigningKey string        `env:"JWT_SECRET,required,unset"`
	Issuer     string        `env:"JWT_ISSUER" envDefault:"ft-arena"`
	AccessTTL  time.Duration `env:"ACCESS_TOKEN_TTL" envDefault:"15m"`
	RefreshTTL time.Duration `env:"REFRESH_TOKEN_TTL" envDefault:"168h"`
	TempTTL    time.Duration `env:"TEMP_TOKEN_TTL" envDefault:"10m"`

	BcryptCost     int           `env:"BCRYPT_COST" envDefault:"12"`
	ProfileTimeout time.Duration `env:"PROFILE_CREATE_TIMEOUT" envDefault:"5s"`

	TOTPEncryptionKey string `env:"TOTP_ENCRYPTION_KEY,required,unset"`
	TOTPIssuer        string `env:"TOTP_ISSUER" envDefault:"FT Arena"`

	OAuthStateTTL     time.Duration `env:"OAUTH_STATE_TTL" envDefault:"10m"`
	OAuthTimeout      time.Duration `env:"OAUTH_TIMEOUT" envDefault:"10s"`
	OAuthVerifiedOnly bool          `env:"OAUTH_VERIFIED_ONLY" envDefault:"true"`
}

func (c Config) withDefaults() Config {
	if c.AccessTTL <= 0 {
		c.AccessTTL = 15 * time.Minute
	}
	if c.RefreshTTL <= 0 {
		c.RefreshTTL = 7 * 24 * time.Hour
	}
	if c.TempTTL <= 0 {
		c.TempTTL = 10 * time.Minute
	}
	return c
}
