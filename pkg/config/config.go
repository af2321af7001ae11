// Package config fills typed configuration structs from the process
// environment, optionally seeded from a .env file in the working directory.
//
// Struct fields use caarlos0/env tags:
//
//	type Config struct {
//		SigningKey string        `env:"JWT_SECRET,required"`
//		AccessTTL  time.Duration `env:"ACCESS_TOKEN_TTL" envDefault:"15m"`
//	}
//
//	cfg, err := config.Load[Config]()
package config

import (
	"errors"
	"sync"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

var (
	ErrParsingConfig = errors.New("failed to parse configuration")

	dotenvOnce sync.Once
)

// Load reads .env once per process, then parses the environment into a T.
func Load[T any]() (T, error) {
	dotenvOnce.Do(func() {
		// A missing .env file is normal outside local development.
		_ = godotenv.Load()
	})
	return parse[T](env.Options{})
}

// LoadFrom parses vars instead of the process environment.
func LoadFrom[T any](vars map[string]string) (T, error) {
	return parse[T](env.Options{Environment: vars})
}

func parse[T any](opts env.Options) (T, error) {
	v, err := env.ParseAsWithOptions[T](opts)
	if err != nil {
		var zero T
		return zero, errors.Join(ErrParsingConfig, err)
	}
	return v, nil
}
