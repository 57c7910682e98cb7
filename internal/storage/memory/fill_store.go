package memory

import (
	"context"
	"sort"
	"sync"

	"polymarket-hypergraph-lab/internal/domain"
	"polymarket-hypergraph-lab/internal/storage"
)

// FillStore is an in-memory implementation of storage.FillStore.
type FillStore struct {
	mu   sync.RWMutex
	data map[string]*domain.Fill // keyed by fill id
}

// NewFillStore creates a new in-memory fill store.
func NewFillStore() *FillStore {
	return &FillStore{
		data: make(map[string]*domain.Fill),
	}
}

// Compile-time interface check.
var _ storage.FillStore = (*FillStore)(nil)

// Insert adds a new fill. Returns ErrDuplicateKey if exists.
func (s *FillStore) Insert(_ context.Context, f *domain.Fill) error {
	if f == nil || f.ID == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data[f.ID]; exists {
		return storage.ErrDuplicateKey
	}

	copy := *f
	s.data[f.ID] = &copy
	return nil
}

// InsertBulk adds multiple fills atomically. Fails entire batch on any duplicate.
func (s *FillStore) InsertBulk(_ context.Context, fills []*domain.Fill) error {
	if len(fills) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// Track keys in this batch to detect intra-batch duplicates
	batchKeys := make(map[string]struct{}, len(fills))

	for _, f := range fills {
		if f == nil || f.ID == "" {
			return storage.ErrInvalidInput
		}
		if _, exists := s.data[f.ID]; exists {
			return storage.ErrDuplicateKey
		}
		if _, exists := batchKeys[f.ID]; exists {
			return storage.ErrDuplicateKey
		}
		batchKeys[f.ID] = struct{}{}
	}

	for _, f := range fills {
		copy := *f
		s.data[f.ID] = &copy
	}
	return nil
}

// GetByMarket retrieves all fills for a market, ordered by (timestamp, id) ASC.
func (s *FillStore) GetByMarket(_ context.Context, slug string) ([]*domain.Fill, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*domain.Fill
	for _, f := range s.data {
		if f.MarketSlug == slug {
			copy := *f
			out = append(out, &copy)
		}
	}
	sortFills(out)
	return out, nil
}

// GetByTimeRange retrieves fills for a market within [start, end] inclusive.
func (s *FillStore) GetByTimeRange(_ context.Context, slug string, start, end int64) ([]*domain.Fill, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*domain.Fill
	for _, f := range s.data {
		if f.MarketSlug == slug && f.Timestamp >= start && f.Timestamp <= end {
			copy := *f
			out = append(out, &copy)
		}
	}
	sortFills(out)
	return out, nil
}

// GetAll retrieves every stored fill, ordered by (market, timestamp, id) ASC.
func (s *FillStore) GetAll(_ context.Context) ([]*domain.Fill, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*domain.Fill, 0, len(s.data))
	for _, f := range s.data {
		copy := *f
		out = append(out, &copy)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].MarketSlug != out[j].MarketSlug {
			return out[i].MarketSlug < out[j].MarketSlug
		}
		if out[i].Timestamp != out[j].Timestamp {
			return out[i].Timestamp < out[j].Timestamp
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

// ListMarkets returns distinct market slugs alphabetically.
func (s *FillStore) ListMarkets(_ context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	seen := make(map[string]struct{})
	for _, f := range s.data {
		seen[f.MarketSlug] = struct{}{}
	}
	out := make([]string, 0, len(seen))
	for slug := range seen {
		out = append(out, slug)
	}
	sort.Strings(out)
	return out, nil
}

func sortFills(fills []*domain.Fill) {
	sort.Slice(fills, func(i, j int) bool {
		if fills[i].Timestamp != fills[j].Timestamp {
			return fills[i].Timestamp < fills[j].Timestamp
		}
		return fills[i].ID < fills[j].ID
	})
}
