package memory

import (
	"context"
	"sync"
	"time"

	"github.com/ftarena/authcore/svc/auth"
)

// States is an in-memory auth.StateStore.
type States struct {
	mu      sync.Mutex
	expires map[string]time.Time
	now     func() time.Time
}

func NewStates() *States {
	return &States{expires: make(map[string]time.Time), now: time.Now}
}

func (s *States) SaveState(_ context.Context, state string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	for k, exp := range s.expires {
		if !now.Before(exp) {
			delete(s.expires, k)
		}
	}
	s.expires[state] = now.Add(ttl)
	return nil
}

func (s *States) ConsumeState(_ context.Context, state string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	exp, ok := s.expires[state]
	if !ok {
		return auth.ErrInvalidState
	}
	delete(s.expires, state)
	if !s.now().Before(exp) {
		return auth.ErrInvalidState
	}
	return nil
}

var _ auth.StateStore = (*States)(nil)
