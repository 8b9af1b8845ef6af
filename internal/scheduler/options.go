package scheduler

import (
	"time"

	"github.com/vk/gridflow/internal/node"
	"github.com/vk/gridflow/internal/nodeid"
)

// DefaultConcurrency is the worker count used when Options.MaxConcurrency
// is zero.
const DefaultConcurrency = 4

// RetryPolicy bounds how often a failing node is attempted.
type RetryPolicy struct {
	// MaxAttempts is the total number of attempts, the first included.
	// Zero means one attempt.
	MaxAttempts int
}

func (p RetryPolicy) attempts() int {
	if p.MaxAttempts < 1 {
		return 1
	}
	return p.MaxAttempts
}

// Options configures one Run.
type Options struct {
	MaxConcurrency int
	Retry          RetryPolicy
	// NodeTimeout bounds a single attempt. An attempt that runs out of time
	// counts as failed and may be retried. Zero disables the limit.
	NodeTimeout time.Duration
	Observers   []Observer
	// InvocationID identifies the run in its report. A random UUID is used
	// when empty.
	InvocationID string
}

// Event is one state transition of one node. Retries are reported as a
// Running to Running transition carrying the new attempt number.
type Event struct {
	NodeID  nodeid.Address
	From    node.State
	To      node.State
	Attempt int
	At      time.Time
	// Result is set when To is terminal.
	Result *RunResult
}

// Observer is notified of every transition, always from the coordinator
// goroutine. Implementations must not block for long.
type Observer interface {
	OnTransition(Event)
}

// ObserverFunc adapts a function to the Observer interface.
type ObserverFunc func(Event)

// OnTransition calls f(e).
func (f ObserverFunc) OnTransition(e Event) { f(e) }
