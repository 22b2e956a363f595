package settings

import (
	"context"
	"sync"
)

// MemoryStore is an in-memory Store for demo/test use. Settings saved here
// do not survive a restart, matching the zero-configuration default.
type MemoryStore struct {
	mu    sync.RWMutex
	saved *Persisted
}

// NewMemoryStore creates an empty in-memory settings store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Load(ctx context.Context) (*Persisted, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.saved == nil {
		return nil, ErrNotFound
	}
	p := *s.saved
	return &p, nil
}

func (s *MemoryStore) Save(ctx context.Context, p *Persisted) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *p
	s.saved = &cp
	return nil
}
