package scheduler

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"time"

	"github.com/vk/gridflow/internal/executor"
	"github.com/vk/gridflow/internal/node"
)

// attemptResult is the outcome of one completed attempt.
type attemptResult struct {
	attempt int
	outcome executor.Outcome
	err     error
}

// execute runs node i with retry and sends exactly one updateDone. Attempts
// use a context detached from the run's cancellation so a running node
// finishes; cancellation only prevents further attempts.
func (r *run) execute(ctx context.Context, i int, updates chan<- update) {
	n := r.g.Node(i)
	start := time.Now()
	maxAttempts := r.opts.Retry.attempts()

	// result is overwritten by every completed attempt and read only after
	// the loop, so the recorded outcome is the first success or the last
	// failure.
	var result attemptResult
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if attempt > 1 {
			if ctx.Err() != nil {
				break
			}
			updates <- update{kind: updateRetry, index: i, attempt: attempt}
		}
		out, err := r.attempt(ctx, n)
		result = attemptResult{attempt: attempt, outcome: out, err: err}
		if err == nil {
			break
		}
	}

	res := RunResult{
		NodeID:    n.ID,
		Attempts:  result.attempt,
		StartedAt: start,
		Duration:  time.Since(start),
		Message:   result.outcome.Message,
	}
	switch {
	case result.err != nil:
		res.Status = node.StatusError
		res.Err = result.err
		if res.Message == "" {
			res.Message = result.err.Error()
		}
	case result.outcome.Skipped:
		res.Status = node.StatusSkipped
	default:
		res.Status = node.StatusSuccess
	}
	updates <- update{kind: updateDone, index: i, result: res}
}

// attempt calls the executor once, converting a panic or an expired node
// timeout into an error.
func (r *run) attempt(ctx context.Context, n *node.Node) (out executor.Outcome, err error) {
	actx := context.WithoutCancel(ctx)
	if r.opts.NodeTimeout > 0 {
		var cancel context.CancelFunc
		actx, cancel = context.WithTimeout(actx, r.opts.NodeTimeout)
		defer cancel()
	}

	defer func() {
		if p := recover(); p != nil {
			out, err = executor.Outcome{}, &PanicError{Value: p, Stack: debug.Stack()}
		}
	}()

	out, err = r.exec.Execute(actx, n)
	if errors.Is(actx.Err(), context.DeadlineExceeded) {
		if err == nil {
			err = context.DeadlineExceeded
		}
		err = fmt.Errorf("%w after %s: %w", ErrNodeTimeout, r.opts.NodeTimeout, err)
	}
	return out, err
}
