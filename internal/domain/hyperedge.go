package domain

// Side identifies which side of a market a hyperedge groups.
type Side string

const (
	// SideBuy groups traders who bought the outcome token.
	SideBuy Side = "BUY"
	// SideSell groups traders who sold the outcome token.
	SideSell Side = "SELL"
)

// String returns the string representation of Side.
func (s Side) String() string {
	return string(s)
}

// HyperedgeKey is the categorical and temporal key a hyperedge groups by.
// BUY sorts before SELL, so the string values double as the sort order.
type HyperedgeKey struct {
	WindowStart  int64  // bucket start, Unix seconds UTC
	MarketSlug   string // market the fills belong to
	OutcomeToken string // outcome token id
	Side         Side   // BUY or SELL (undirected representation only)
	Seq          int64  // fill sequence, transaction mode tie-break
}

// Hyperedge is one group of trader node IDs sharing a HyperedgeKey.
// Members are 1-indexed node IDs in emission order.
type Hyperedge struct {
	Key     HyperedgeKey
	Members []int
}

// Dataset is the four-artifact temporal hypergraph representation.
// The parallel slices are the downstream contract:
//
//	len(Nverts) == len(Times)
//	sum(Nverts) == len(Simplices)
//	every Simplices value is in [1, len(NodeLabels)]
type Dataset struct {
	NodeLabels []string // index = node ID - 1
	Nverts     []int    // hyperedge sizes
	Simplices  []int    // flattened hyperedge members
	Times      []int64  // bucket start per hyperedge, Unix seconds

	// Edges carries the keyed hyperedges the parallel slices were
	// flattened from. Not part of the emitted file set.
	Edges []Hyperedge
}

// NodeCount returns the number of unique trader nodes.
func (d *Dataset) NodeCount() int {
	return len(d.NodeLabels)
}

// HyperedgeCount returns the number of hyperedges.
func (d *Dataset) HyperedgeCount() int {
	return len(d.Nverts)
}

// VertexOccurrences returns the total flattened membership count.
func (d *Dataset) VertexOccurrences() int {
	return len(d.Simplices)
}

// DirectedHyperedge is a seller→buyer hyperedge: one timestamped pair of
// node-ID lists for the same bucket and (market, outcome token).
type DirectedHyperedge struct {
	WindowStart  int64
	MarketSlug   string
	OutcomeToken string
	Seq          int64 // fill sequence, transaction mode tie-break
	Sources      []int // sellers, 1-indexed node IDs
	Destinations []int // buyers, 1-indexed node IDs
}

// DirectedDataset is the two-list directed variant consumed by the
// point-process model. Invariants 1-3 of Dataset hold independently for
// the source and destination lists.
type DirectedDataset struct {
	NodeLabels []string
	Edges      []DirectedHyperedge
}

// NodeCount returns the number of unique trader nodes.
func (d *DirectedDataset) NodeCount() int {
	return len(d.NodeLabels)
}

// HyperedgeCount returns the number of directed hyperedges.
func (d *DirectedDataset) HyperedgeCount() int {
	return len(d.Edges)
}
