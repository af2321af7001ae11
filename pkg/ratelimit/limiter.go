package ratelimit

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Config is the per-key budget.
type Config struct {
	RPS   float64       `env:"AUTH_RATE_LIMIT_RPS" envDefault:"1"`
	Burst int           `env:"AUTH_RATE_LIMIT_BURST" envDefault:"5"`
	Idle  time.Duration `env:"AUTH_RATE_LIMIT_IDLE" envDefault:"10m"`
}

type entry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// Limiter keeps one token bucket per key.
type Limiter struct {
	mu        sync.Mutex
	buckets   map[string]*entry
	limit     rate.Limit
	burst     int
	idle      time.Duration
	lastSweep time.Time
	now       func() time.Time
}

type Option func(*Limiter)

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(l *Limiter) {
		if now != nil {
			l.now = now
		}
	}
}

func New(cfg Config, opts ...Option) *Limiter {
	if cfg.RPS <= 0 {
		cfg.RPS = 1
	}
	if cfg.Burst <= 0 {
		cfg.Burst = 5
	}
	if cfg.Idle <= 0 {
		cfg.Idle = 10 * time.Minute
	}

	l := &Limiter{
		buckets: make(map[string]*entry),
		limit:   rate.Limit(cfg.RPS),
		burst:   cfg.Burst,
		idle:    cfg.Idle,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(l)
	}
	l.lastSweep = l.now()
	return l
}

// Allow consumes one token for key. It returns false and the time until a
// token is available when the bucket is empty.
func (l *Limiter) Allow(key string) (bool, time.Duration) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	if now.Sub(l.lastSweep) >= l.idle {
		l.sweep(now)
	}

	e, ok := l.buckets[key]
	if !ok {
		e = &entry{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.buckets[key] = e
	}
	e.lastSeen = now

	res := e.limiter.ReserveN(now, 1)
	if delay := res.DelayFrom(now); delay > 0 {
		res.CancelAt(now)
		return false, delay
	}
	return true, 0
}

// Len reports how many buckets are tracked.
func (l *Limiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.buckets)
}

func (l *Limiter) sweep(now time.Time) {
	for key, e := range l.buckets {
		if now.Sub(e.lastSeen) >= l.idle {
			delete(l.buckets, key)
		}
	}
	l.lastSweep = now
}
