// Package redisstore keeps short-lived auth state in Redis so that every
// instance behind a load balancer sees the same OAuth state values.
package redisstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/ftarena/authcore/svc/auth"
)

const defaultPrefix = "auth:oauth_state:"

// States is a Redis auth.StateStore. Expiry is delegated to key TTLs.
type States struct {
	client redis.Cmdable
	prefix string
}

type Option func(*States)

// WithPrefix namespaces keys, e.g. per environment.
func WithPrefix(prefix string) Option {
	return func(s *States) {
		if prefix != "" {
			s.prefix = prefix
		}
	}
}

func NewStates(client redis.Cmdable, opts ...Option) *States {
	s := &States{client: client, prefix: defaultPrefix}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *States) SaveState(ctx context.Context, state string, ttl time.Duration) error {
	if err := s.client.Set(ctx, s.prefix+state, 1, ttl).Err(); err != nil {
		return fmt.Errorf("save oauth state: %w", err)
	}
	return nil
}

// ConsumeState uses GETDEL so a state value is accepted at most once.
func (s *States) ConsumeState(ctx context.Context, state string) error {
	err := s.client.GetDel(ctx, s.prefix+state).Err()
	switch {
	case err == nil:
		return nil
	case errors.Is(err, redis.Nil):
		return auth.ErrInvalidState
	default:
		return fmt.Errorf("consume oauth state: %w", err)
	}
}

var _ auth.StateStore = (*States)(nil)
