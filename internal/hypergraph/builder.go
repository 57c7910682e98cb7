// Package hypergraph builds the temporal co-participation hypergraph
// from raw trade fills: fills are bucketed in time, partitioned by
// (market, outcome token, side), ordered canonically and flattened into
// the four parallel artifacts the point-process models consume.
package hypergraph

import (
	"fmt"
	"sort"

	"polymarket-hypergraph-lab/internal/domain"
)

// Options configures a build.
type Options struct {
	// Mode selects the time bucketing.
	Mode domain.BucketMode
	// WindowSize is the bucket width in seconds. Required, positive,
	// for ModeTimeWindow; ignored otherwise.
	WindowSize int64
	// Index, when non-nil, is the shared node numbering to assign IDs
	// from. Leave nil for independent per-dataset numbering.
	Index *NodeIndex
}

func (o Options) validate() error {
	if !o.Mode.IsValid() {
		return fmt.Errorf("%w: unknown mode %q", ErrInvalidConfiguration, o.Mode)
	}
	if o.Mode == domain.ModeTimeWindow && o.WindowSize <= 0 {
		return fmt.Errorf("%w: window size must be a positive number of seconds, got %d",
			ErrInvalidConfiguration, o.WindowSize)
	}
	return nil
}

// bucketOf returns the bucket start and tie-break sequence for the i-th
// fill. Only transaction mode uses the sequence; it keeps same-second
// fills apart and deterministic in input order.
func (o Options) bucketOf(f *domain.Fill, i int) (start, seq int64) {
	switch o.Mode {
	case domain.ModeDaily:
		return DayStart(f.Timestamp), 0
	case domain.ModeTimeWindow:
		return WindowStart(f.Timestamp, o.WindowSize), 0
	default: // domain.ModeTransaction
		return f.Timestamp, int64(i)
	}
}

// Build transforms fills into the canonical four-artifact dataset.
//
// The build is two-pass: partitions are collected first, sorted by
// (window start, market, outcome token, side), and only then walked to
// assign node IDs. IDs are therefore first-seen under the final
// hyperedge order, not raw input order, and the output is byte-stable
// for identical input.
func Build(fills []*domain.Fill, opts Options) (*domain.Dataset, error) {
	if err := opts.validate(); err != nil {
		return nil, err
	}

	parts := make(map[domain.HyperedgeKey]map[string]struct{})
	add := func(key domain.HyperedgeKey, addr string) {
		members, ok := parts[key]
		if !ok {
			members = make(map[string]struct{})
			parts[key] = members
		}
		members[addr] = struct{}{}
	}

	for i, f := range fills {
		trade, err := Classify(f)
		if err != nil {
			return nil, fmt.Errorf("fill %d: %w", i, err)
		}
		start, seq := opts.bucketOf(f, i)

		base := domain.HyperedgeKey{
			WindowStart:  start,
			MarketSlug:   f.MarketSlug,
			OutcomeToken: trade.OutcomeToken,
			Seq:          seq,
		}

		buyKey := base
		buyKey.Side = domain.SideBuy
		add(buyKey, trade.Buyer)

		sellKey := base
		sellKey.Side = domain.SideSell
		add(sellKey, trade.Seller)
	}

	if len(parts) == 0 {
		return nil, ErrEmptyInput
	}

	keys := make([]domain.HyperedgeKey, 0, len(parts))
	for key := range parts {
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool {
		return compareKeys(keys[i], keys[j]) < 0
	})

	index := opts.Index
	if index == nil {
		index = NewNodeIndex()
	}

	ds := &domain.Dataset{
		Nverts: make([]int, 0, len(keys)),
		Times:  make([]int64, 0, len(keys)),
		Edges:  make([]domain.Hyperedge, 0, len(keys)),
	}

	for _, key := range keys {
		addrs := sortedMembers(parts[key])

		members := make([]int, len(addrs))
		for i, addr := range addrs {
			members[i] = index.Assign(addr)
		}

		ds.Nverts = append(ds.Nverts, len(members))
		ds.Times = append(ds.Times, key.WindowStart)
		ds.Simplices = append(ds.Simplices, members...)
		ds.Edges = append(ds.Edges, domain.Hyperedge{Key: key, Members: members})
	}

	ds.NodeLabels = index.Labels()
	return ds, nil
}

// sortedMembers returns the partition's member addresses in ascending
// order. Ordering inside a hyperedge carries no meaning; sorting only
// keeps the flattened output stable.
func sortedMembers(set map[string]struct{}) []string {
	addrs := make([]string, 0, len(set))
	for addr := range set {
		addrs = append(addrs, addr)
	}
	sort.Strings(addrs)
	return addrs
}

// compareKeys implements the total hyperedge order:
// (window start, sequence, market, outcome token, side), with BUY
// ordering before SELL. Seq is zero outside transaction mode; in
// transaction mode it is part of the bucket identity, keeping each
// fill's BUY/SELL pair adjacent instead of interleaving the sides of
// distinct fills. Markets are thereby contiguous per window and
// alphabetical, as the unified dataset requires.
func compareKeys(a, b domain.HyperedgeKey) int {
	if a.WindowStart != b.WindowStart {
		if a.WindowStart < b.WindowStart {
			return -1
		}
		return 1
	}
	if a.Seq != b.Seq {
		if a.Seq < b.Seq {
			return -1
		}
		return 1
	}
	if a.MarketSlug != b.MarketSlug {
		if a.MarketSlug < b.MarketSlug {
			return -1
		}
		return 1
	}
	if a.OutcomeToken != b.OutcomeToken {
		if a.OutcomeToken < b.OutcomeToken {
			return -1
		}
		return 1
	}
	if a.Side != b.Side {
		if a.Side < b.Side {
			return -1
		}
		return 1
	}
	return 0
}
