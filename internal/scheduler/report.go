package scheduler

import (
	"time"

	"github.com/vk/gridflow/internal/node"
	"github.com/vk/gridflow/internal/nodeid"
)

// RunResult is the outcome of one selected node.
type RunResult struct {
	NodeID nodeid.Address
	Status node.Status
	// Attempts is zero for nodes that never reached the executor.
	Attempts  int
	StartedAt time.Time
	Duration  time.Duration
	Message   string
	// Err is the error of the recorded attempt when Status is error.
	Err error
}

// RunReport lists every selected node's result in the order the nodes
// reached a terminal state.
type RunReport struct {
	InvocationID string
	StartedAt    time.Time
	FinishedAt   time.Time
	Results      []RunResult
	// Success is false when any node failed or the run was cancelled.
	Success bool
}

// Result returns the result recorded for id.
func (r *RunReport) Result(id nodeid.Address) (RunResult, bool) {
	for _, res := range r.Results {
		if res.NodeID == id {
			return res, true
		}
	}
	return RunResult{}, false
}

// Counts tallies results by status.
func (r *RunReport) Counts() map[node.Status]int {
	out := make(map[node.Status]int)
	for _, res := range r.Results {
		out[res.Status]++
	}
	return out
}

// Elapsed is the wall time of the run.
func (r *RunReport) Elapsed() time.Duration {
	return r.FinishedAt.Sub(r.StartedAt)
}
