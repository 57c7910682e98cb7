package domain

// BucketMode selects how fills are assigned to hyperedge time buckets.
type BucketMode string

const (
	// ModeDaily buckets fills by UTC calendar day.
	ModeDaily BucketMode = "daily"
	// ModeTimeWindow buckets fills into fixed-size windows aligned to the
	// UTC epoch.
	ModeTimeWindow BucketMode = "timewindow"
	// ModeTransaction treats every fill as its own bucket.
	ModeTransaction BucketMode = "transaction"
)

// String returns the string representation of BucketMode.
func (m BucketMode) String() string {
	return string(m)
}

// IsValid checks if the mode is a known value.
func (m BucketMode) IsValid() bool {
	return m == ModeDaily || m == ModeTimeWindow || m == ModeTransaction
}
