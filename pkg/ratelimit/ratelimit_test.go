package ratelimit_test

import (
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/ftarena/authcore/pkg/ratelimit"
)

type clock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *clock) now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *clock) advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

func TestLimiter_Allow(t *testing.T) {
	t.Parallel()

	c := &clock{t: time.Unix(1_700_000_000, 0)}
	l := ratelimit.New(ratelimit.Config{RPS: 1, Burst: 2, Idle: time.Minute}, ratelimit.WithClock(c.now))

	ok, _ := l.Allow("a")
	assert.True(t, ok)
	ok, _ = l.Allow("a")
	assert.True(t, ok)

	ok, wait := l.Allow("a")
	assert.False(t, ok)
	assert.Equal(t, time.Second, wait)

	ok, _ = l.Allow("b")
	assert.True(t, ok, "keys are independent")

	c.advance(time.Second)
	ok, _ = l.Allow("a")
	assert.True(t, ok)
}

func TestLimiter_EvictsIdle(t *testing.T) {
	t.Parallel()

	c := &clock{t: time.Unix(1_700_000_000, 0)}
	l := ratelimit.New(ratelimit.Config{RPS: 1, Burst: 1, Idle: time.Minute}, ratelimit.WithClock(c.now))

	l.Allow("a")
	l.Allow("b")
	assert.Equal(t, 2, l.Len())

	c.advance(2 * time.Minute)
	l.Allow("c")
	assert.Equal(t, 1, l.Len())
}

func TestMiddleware(t *testing.T) {
	t.Parallel()

	l := ratelimit.New(ratelimit.Config{RPS: 0.01, Burst: 1})
	h := ratelimit.Middleware(l, func(r *http.Request) string { return r.Header.Get("X-Key") }, nil)(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusNoContent) }),
	)

	do := func(key string) *httptest.ResponseRecorder {
		r := httptest.NewRequest(http.MethodPost, "/", nil)
		if key != "" {
			r.Header.Set("X-Key", key)
		}
		w := httptest.NewRecorder()
		h.ServeHTTP(w, r)
		return w
	}

	assert.Equal(t, http.StatusNoContent, do("k").Code)

	limited := do("k")
	assert.Equal(t, http.StatusTooManyRequests, limited.Code)
	assert.NotEmpty(t, limited.Header().Get("Retry-After"))

	assert.Equal(t, http.StatusNoContent, do("").Code)
	assert.Equal(t, http.StatusNoContent, do("").Code)
}
