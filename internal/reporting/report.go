// Package reporting renders dataset build summaries as Markdown and CSV.
package reporting

import "time"

// Report summarizes every published dataset under an output directory.
type Report struct {
	GeneratedAt  time.Time
	MarketCount  int
	TotalNodes   int
	TotalEdges   int
	Rows         []DatasetRow
	Unified      *DatasetRow
}

// DatasetRow is one dataset's shape.
type DatasetRow struct {
	Prefix            string // dataset prefix (market slug or unified)
	Nodes             int    // unique trader count
	Hyperedges        int    // hyperedge count
	VertexOccurrences int    // flattened membership count
	FirstTime         int64  // earliest hyperedge timestamp
	LastTime          int64  // latest hyperedge timestamp
}
