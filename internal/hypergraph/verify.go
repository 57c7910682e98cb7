package hypergraph

import (
	"fmt"

	"polymarket-hypergraph-lab/internal/domain"
)

// Violation describes one failed dataset invariant.
type Violation struct {
	Rule   string // short invariant name
	Detail string // human-readable description
}

func (v Violation) String() string {
	return v.Rule + ": " + v.Detail
}

// Verify re-checks the structural invariants of an undirected dataset.
// It returns one violation per failed check; an empty slice means the
// dataset is consistent.
func Verify(d *domain.Dataset) []Violation {
	var out []Violation

	if len(d.Nverts) != len(d.Times) {
		out = append(out, Violation{
			Rule:   "parallel-lengths",
			Detail: fmt.Sprintf("len(nverts)=%d != len(times)=%d", len(d.Nverts), len(d.Times)),
		})
	}

	total := 0
	for i, n := range d.Nverts {
		if n <= 0 {
			out = append(out, Violation{
				Rule:   "nonempty-hyperedge",
				Detail: fmt.Sprintf("hyperedge %d has size %d", i, n),
			})
		}
		total += n
	}
	if total != len(d.Simplices) {
		out = append(out, Violation{
			Rule:   "flattened-length",
			Detail: fmt.Sprintf("sum(nverts)=%d != len(simplices)=%d", total, len(d.Simplices)),
		})
	}

	for i, id := range d.Simplices {
		if id < 1 || id > len(d.NodeLabels) {
			out = append(out, Violation{
				Rule:   "id-range",
				Detail: fmt.Sprintf("simplices[%d]=%d outside [1, %d]", i, id, len(d.NodeLabels)),
			})
		}
	}

	out = append(out, verifyEdgeOrder(d)...)
	return out
}

// verifyEdgeOrder checks the keyed hyperedges, when present, against
// the canonical total order and the two-edges-per-category limit.
func verifyEdgeOrder(d *domain.Dataset) []Violation {
	var out []Violation

	for i := 1; i < len(d.Edges); i++ {
		prev, cur := d.Edges[i-1].Key, d.Edges[i].Key
		if compareKeys(prev, cur) >= 0 {
			out = append(out, Violation{
				Rule:   "canonical-order",
				Detail: fmt.Sprintf("hyperedge %d does not sort after hyperedge %d", i, i-1),
			})
		}
	}

	// At most one BUY and one SELL hyperedge per bucketed
	// (market, outcome) pair. Transaction-mode edges carry distinct
	// sequence numbers and are exempt by construction.
	seen := make(map[domain.HyperedgeKey]int)
	for i, e := range d.Edges {
		if prev, dup := seen[e.Key]; dup {
			out = append(out, Violation{
				Rule:   "category-split",
				Detail: fmt.Sprintf("hyperedges %d and %d share key %+v", prev, i, e.Key),
			})
		}
		seen[e.Key] = i
	}

	return out
}

// VerifyDirected re-checks invariants 1-3 independently for the source
// and destination lists of a directed dataset.
func VerifyDirected(d *domain.DirectedDataset) []Violation {
	var out []Violation

	checkIDs := func(list string, i int, ids []int) {
		if len(ids) == 0 {
			out = append(out, Violation{
				Rule:   "nonempty-side",
				Detail: fmt.Sprintf("hyperedge %d has an empty %s list", i, list),
			})
		}
		for _, id := range ids {
			if id < 1 || id > len(d.NodeLabels) {
				out = append(out, Violation{
					Rule:   "id-range",
					Detail: fmt.Sprintf("hyperedge %d %s id %d outside [1, %d]", i, list, id, len(d.NodeLabels)),
				})
			}
		}
	}

	for i, e := range d.Edges {
		checkIDs("source", i, e.Sources)
		checkIDs("destination", i, e.Destinations)
		if i > 0 && d.Edges[i-1].WindowStart > e.WindowStart {
			out = append(out, Violation{
				Rule:   "time-order",
				Detail: fmt.Sprintf("hyperedge %d precedes hyperedge %d in time", i, i-1),
			})
		}
	}

	return out
}
