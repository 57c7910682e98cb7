package memory

import (
	"context"
	"sort"
	"sync"

	"polymarket-hypergraph-lab/internal/domain"
	"polymarket-hypergraph-lab/internal/storage"
)

// MarketStore is an in-memory implementation of storage.MarketStore.
type MarketStore struct {
	mu   sync.RWMutex
	data map[string]*domain.Market // keyed by slug
}

// NewMarketStore creates a new in-memory market store.
func NewMarketStore() *MarketStore {
	return &MarketStore{
		data: make(map[string]*domain.Market),
	}
}

// Compile-time interface check.
var _ storage.MarketStore = (*MarketStore)(nil)

// Insert adds a new market. Returns ErrDuplicateKey if the slug exists.
func (s *MarketStore) Insert(_ context.Context, m *domain.Market) error {
	if m == nil || m.Slug == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data[m.Slug]; exists {
		return storage.ErrDuplicateKey
	}

	copy := *m
	s.data[m.Slug] = &copy
	return nil
}

// GetBySlug retrieves a market by slug. Returns ErrNotFound if not exists.
func (s *MarketStore) GetBySlug(_ context.Context, slug string) (*domain.Market, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	m, ok := s.data[slug]
	if !ok {
		return nil, storage.ErrNotFound
	}
	copy := *m
	return &copy, nil
}

// List retrieves all stored markets, ordered by slug ASC.
func (s *MarketStore) List(_ context.Context) ([]*domain.Market, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*domain.Market, 0, len(s.data))
	for _, m := range s.data {
		copy := *m
		out = append(out, &copy)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Slug < out[j].Slug })
	return out, nil
}
