package token

import (
	"context"
	"sync"
)

// Store persists the access/refresh token pair. An absent token is the
// empty string. Implementations must allow Clear to be called repeatedly.
//
// Only the session and the HTTP client's refresh path write to a Store;
// everything else treats it as read-only.
type Store interface {
	AccessToken(ctx context.Context) (string, error)
	RefreshToken(ctx context.Context) (string, error)
	SetAccessToken(ctx context.Context, access string) error
	SetTokens(ctx context.Context, access, refresh string) error
	Clear(ctx context.Context) error
}

// MemoryStore keeps tokens in memory. Used by tests and by callers that do
// not want credentials on disk.
type MemoryStore struct {
	mu      sync.Mutex
	access  string
	refresh string
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) AccessToken(_ context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.access, nil
}

func (s *MemoryStore) RefreshToken(_ context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.refresh, nil
}

func (s *MemoryStore) SetAccessToken(_ context.Context, access string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.access = access
	return nil
}

func (s *MemoryStore) SetTokens(_ context.Context, access, refresh string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.access = access
	s.refresh = refresh
	return nil
}

func (s *MemoryStore) Clear(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.access = ""
	s.refresh = ""
	return nil
}
