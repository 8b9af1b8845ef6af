package testutil

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// AssertRanBefore checks that every attempt of upstream finished before the
// first attempt of downstream began.
func AssertRanBefore(t *testing.T, e *RecordingExecutor, upstream, downstream string) {
	t.Helper()

	var lastUp, firstDown *ExecutionRecord
	records := e.Records()
	for i := range records {
		r := &records[i]
		switch r.Node {
		case upstream:
			if lastUp == nil || r.End.After(lastUp.End) {
				lastUp = r
			}
		case downstream:
			if firstDown == nil || r.Start.Before(firstDown.Start) {
				firstDown = r
			}
		}
	}
	require.NotNil(t, lastUp, "%s never ran", upstream)
	require.NotNil(t, firstDown, "%s never ran", downstream)
	require.False(t, firstDown.Start.Before(lastUp.End),
		"%s started at %v before %s finished at %v", downstream, firstDown.Start, upstream, lastUp.End)
}

// AssertNotRun checks that none of ids reached the executor.
func AssertNotRun(t *testing.T, e *RecordingExecutor, ids ...string) {
	t.Helper()
	for _, id := range ids {
		require.Zero(t, e.Attempts(id), "%s should not have been executed", id)
	}
}
