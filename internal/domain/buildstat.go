package domain

// BuildStat summarizes one dataset build. Corresponds to the
// dataset_builds table in ClickHouse.
type BuildStat struct {
	Prefix            string     // dataset prefix (market slug or "polymarket-unified")
	Mode              BucketMode // bucketing mode used
	WindowSize        int64      // seconds, timewindow mode only
	Directed          bool       // directed two-list variant
	Nodes             int        // unique trader count
	Hyperedges        int        // hyperedge count
	VertexOccurrences int        // flattened membership count
	FillCount         int        // input fills consumed
	BuiltAt           int64      // Unix seconds
}
