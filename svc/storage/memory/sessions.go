package memory

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ftarena/authcore/svc/auth"
)

// Sessions is an in-memory auth.SessionStore.
type Sessions struct {
	mu     sync.Mutex
	byHash map[string]auth.RefreshSession
}

func NewSessions() *Sessions {
	return &Sessions{byHash: make(map[string]auth.RefreshSession)}
}

func (s *Sessions) CreateSession(_ context.Context, session *auth.RefreshSession) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.byHash[session.TokenHash] = *session
	return nil
}

func (s *Sessions) ConsumeSession(_ context.Context, tokenHash string) (*auth.RefreshSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, ok := s.byHash[tokenHash]
	if !ok {
		return nil, auth.ErrSessionNotFound
	}
	delete(s.byHash, tokenHash)
	return &session, nil
}

func (s *Sessions) DeleteSession(_ context.Context, tokenHash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.byHash, tokenHash)
	return nil
}

func (s *Sessions) DeleteUserSession(_ context.Context, userID uuid.UUID, tokenHash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if session, ok := s.byHash[tokenHash]; ok && session.UserID == userID {
		delete(s.byHash, tokenHash)
	}
	return nil
}

func (s *Sessions) DeleteUserSessions(_ context.Context, userID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for hash, session := range s.byHash {
		if session.UserID == userID {
			delete(s.byHash, hash)
		}
	}
	return nil
}

func (s *Sessions) DeleteExpiredSessions(_ context.Context, now time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for hash, session := range s.byHash {
		if session.Expired(now) {
			delete(s.byHash, hash)
			n++
		}
	}
	return n, nil
}

// CountForUser returns how many sessions userID holds.
func (s *Sessions) CountForUser(userID uuid.UUID) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, session := range s.byHash {
		if session.UserID == userID {
			n++
		}
	}
	return n
}

var _ auth.SessionStore = (*Sessions)(nil)
