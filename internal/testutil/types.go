package testutil

import "time"

// ExecutionRecord holds the timing of one attempt of one node.
type ExecutionRecord struct {
	Node    string
	Attempt int
	Start   time.Time
	End     time.Time
	Err     error
}

// Overlaps reports whether r and other ran at the same time.
func (r ExecutionRecord) Overlaps(other ExecutionRecord) bool {
	return r.Start.Before(other.End) && other.Start.Before(r.End)
}
