package hypergraph

import (
	"fmt"
	"sort"

	"polymarket-hypergraph-lab/internal/domain"
)

// directedPart accumulates the seller and buyer sets of one bucketed
// (market, outcome token) partition.
type directedPart struct {
	sellers map[string]struct{}
	buyers  map[string]struct{}
}

type directedKey struct {
	windowStart  int64
	marketSlug   string
	outcomeToken string
	seq          int64
}

// BuildDirected transforms fills into the seller→buyer two-list
// representation. Partitioning drops the side dimension: each bucketed
// (market, outcome token) pair yields at most one directed hyperedge,
// sources = sellers, destinations = buyers. A hyperedge is emitted only
// when both sides are non-empty, since the point-process model needs a
// transition to score.
//
// Node IDs follow the same two-pass rule as Build: first-seen while
// walking the sorted hyperedges, sources before destinations.
func BuildDirected(fills []*domain.Fill, opts Options) (*domain.DirectedDataset, error) {
	if err := opts.validate(); err != nil {
		return nil, err
	}

	parts := make(map[directedKey]*directedPart)

	for i, f := range fills {
		trade, err := Classify(f)
		if err != nil {
			return nil, fmt.Errorf("fill %d: %w", i, err)
		}
		start, seq := opts.bucketOf(f, i)

		key := directedKey{
			windowStart:  start,
			marketSlug:   f.MarketSlug,
			outcomeToken: trade.OutcomeToken,
			seq:          seq,
		}
		part, ok := parts[key]
		if !ok {
			part = &directedPart{
				sellers: make(map[string]struct{}),
				buyers:  make(map[string]struct{}),
			}
			parts[key] = part
		}
		part.sellers[trade.Seller] = struct{}{}
		part.buyers[trade.Buyer] = struct{}{}
	}

	keys := make([]directedKey, 0, len(parts))
	for key, part := range parts {
		if len(part.sellers) == 0 || len(part.buyers) == 0 {
			continue
		}
		keys = append(keys, key)
	}
	if len(keys) == 0 {
		return nil, ErrEmptyInput
	}
	sort.Slice(keys, func(i, j int) bool {
		return compareDirectedKeys(keys[i], keys[j]) < 0
	})

	index := opts.Index
	if index == nil {
		index = NewNodeIndex()
	}

	ds := &domain.DirectedDataset{
		Edges: make([]domain.DirectedHyperedge, 0, len(keys)),
	}
	for _, key := range keys {
		part := parts[key]

		sources := assignAll(index, sortedMembers(part.sellers))
		dests := assignAll(index, sortedMembers(part.buyers))

		ds.Edges = append(ds.Edges, domain.DirectedHyperedge{
			WindowStart:  key.windowStart,
			MarketSlug:   key.marketSlug,
			OutcomeToken: key.outcomeToken,
			Seq:          key.seq,
			Sources:      sources,
			Destinations: dests,
		})
	}

	ds.NodeLabels = index.Labels()
	return ds, nil
}

func assignAll(index *NodeIndex, addrs []string) []int {
	ids := make([]int, len(addrs))
	for i, addr := range addrs {
		ids[i] = index.Assign(addr)
	}
	return ids
}

// compareDirectedKeys mirrors compareKeys: (window start, sequence,
// market, outcome token), with sequence non-zero only in transaction
// mode so edges follow fill order there.
func compareDirectedKeys(a, b directedKey) int {
	if a.windowStart != b.windowStart {
		if a.windowStart < b.windowStart {
			return -1
		}
		return 1
	}
	if a.seq != b.seq {
		if a.seq < b.seq {
			return -1
		}
		return 1
	}
	if a.marketSlug != b.marketSlug {
		if a.marketSlug < b.marketSlug {
			return -1
		}
		return 1
	}
	if a.outcomeToken != b.outcomeToken {
		if a.outcomeToken < b.outcomeToken {
			return -1
		}
		return 1
	}
	return 0
}
