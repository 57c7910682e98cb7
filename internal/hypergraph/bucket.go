package hypergraph

import "time"

// DayStart truncates a Unix timestamp to the start of its UTC calendar
// day.
func DayStart(ts int64) int64 {
	t := time.Unix(ts, 0).UTC()
	day := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	return day.Unix()
}

// WindowStart truncates a Unix timestamp to the start of its
// epoch-aligned window of the given size in seconds.
func WindowStart(ts, window int64) int64 {
	return (ts / window) * window
}
