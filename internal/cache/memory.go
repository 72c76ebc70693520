package cache

import (
	"context"

	"github.com/couchcryptid/hazard-data-service/internal/domain"
	gocache "github.com/patrickmn/go-cache"
)

// MemoryStore keeps entries in process memory for the lifetime of the
// service. There is no expiry and no janitor.
type MemoryStore struct {
	items *gocache.Cache
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{items: gocache.New(gocache.NoExpiration, 0)}
}

func (s *MemoryStore) Get(_ context.Context, key Key) (domain.Activity, bool, error) {
	v, ok := s.items.Get(key.String())
	if !ok {
		return domain.Activity{}, false, nil
	}
	return v.(domain.Activity), true, nil
}

func (s *MemoryStore) Set(_ context.Context, key Key, entry domain.Activity) error {
	s.items.Set(key.String(), entry, gocache.NoExpiration)
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, key Key) error {
	s.items.Delete(key.String())
	return nil
}

func (s *MemoryStore) Clear(_ context.Context) error {
	s.items.Flush()
	return nil
}

// Len returns the number of cached entries.
func (s *MemoryStore) Len() int {
	return s.items.ItemCount()
}
