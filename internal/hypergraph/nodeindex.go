package hypergraph

// NodeIndex assigns stable 1-indexed integer IDs to trader addresses in
// first-seen order. Sharing one index across multiple builds gives a
// trader the same ID in every dataset (unified numbering); a fresh index
// per build gives independent per-dataset numbering.
type NodeIndex struct {
	ids    map[string]int
	labels []string
}

// NewNodeIndex creates an empty node index.
func NewNodeIndex() *NodeIndex {
	return &NodeIndex{ids: make(map[string]int)}
}

// Assign returns the ID for an address, allocating the next ID on first
// sight. Addresses must already be canonicalized.
func (x *NodeIndex) Assign(addr string) int {
	if id, ok := x.ids[addr]; ok {
		return id
	}
	id := len(x.labels) + 1
	x.ids[addr] = id
	x.labels = append(x.labels, addr)
	return id
}

// Lookup returns the ID for an address without allocating.
func (x *NodeIndex) Lookup(addr string) (int, bool) {
	id, ok := x.ids[addr]
	return id, ok
}

// Len returns the number of assigned IDs.
func (x *NodeIndex) Len() int {
	return len(x.labels)
}

// Labels returns a copy of the address list; index = ID - 1.
func (x *NodeIndex) Labels() []string {
	out := make([]string, len(x.labels))
	copy(out, x.labels)
	return out
}
