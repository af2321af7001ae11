package ratelimit

import (
	"math"
	"net/http"
	"strconv"
	"time"
)

// KeyFunc derives the bucket key for a request. An empty key skips limiting.
type KeyFunc func(r *http.Request) string

// RejectFunc writes the response for a limited request.
type RejectFunc func(w http.ResponseWriter, r *http.Request, retryAfter time.Duration)

// Middleware limits requests per key. Retry-After is always set on rejection;
// onReject defaults to a plain 429.
func Middleware(l *Limiter, keyFunc KeyFunc, onReject RejectFunc) func(http.Handler) http.Handler {
	if keyFunc == nil {
		panic("ratelimit.Middleware: keyFunc is required")
	}
	if onReject == nil {
		onReject = func(w http.ResponseWriter, _ *http.Request, _ time.Duration) {
			http.Error(w, http.StatusText(http.StatusTooManyRequests), http.StatusTooManyRequests)
		}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := keyFunc(r)
			if key == "" {
				next.ServeHTTP(w, r)
				return
			}

			ok, wait := l.Allow(key)
			if !ok {
				seconds := max(int(math.Ceil(wait.Seconds())), 1)
				w.Header().Set("Retry-After", strconv.Itoa(seconds))
				onReject(w, r, wait)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
