// Package ratelimit applies per-key token buckets (golang.org/x/time/rate)
// to HTTP handlers. Buckets live in process memory and idle ones are
// evicted lazily.
package ratelimit
