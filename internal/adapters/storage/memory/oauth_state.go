package memory

import (
	"context"
	"sync"
	"time"

	"taxi-pet/internal/domain/users"
)

type stateItem struct {
	entry     users.StateEntry
	expiresAt time.Time
}

// OAuthStates guarda el state OAuth2 en proceso (una sola instancia del API).
type OAuthStates struct {
	mu    sync.Mutex
	items map[string]stateItem
	now   func() time.Time
}

func NewOAuthStates() *OAuthStates {
	return &OAuthStates{items: map[string]stateItem{}, now: time.Now}
}

func (s *OAuthStates) Save(ctx context.Context, state string, e users.StateEntry, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	// limpieza perezosa de vencidos
	for k, it := range s.items {
		if now.After(it.expiresAt) {
			delete(s.items, k)
		}
	}
	s.items[state] = stateItem{entry: e, expiresAt: now.Add(ttl)}
	return nil
}

func (s *OAuthStates) Take(ctx context.Context, state string) (users.StateEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	it, ok := s.items[state]
	if !ok {
		return users.StateEntry{}, users.ErrStateNotFound
	}
	delete(s.items, state)
	if s.now().After(it.expiresAt) {
		return users.StateEntry{}, users.ErrStateNotFound
	}
	return it.entry, nil
}
