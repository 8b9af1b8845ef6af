package scheduler

import (
	"container/heap"
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/vk/gridflow/internal/executor"
	"github.com/vk/gridflow/internal/graph"
	"github.com/vk/gridflow/internal/node"
)

type updateKind int

const (
	// updateRetry announces that an attempt failed and another begins.
	updateRetry updateKind = iota
	// updateDone carries the final result of a node.
	updateDone
)

type update struct {
	kind    updateKind
	index   int
	attempt int
	result  RunResult
}

// run is the coordinator-owned state of one Run call. Only the coordinator
// goroutine touches the fields below the executor.
type run struct {
	g       *graph.Graph
	exec    executor.Executor
	opts    Options
	workers int

	selected  []bool
	remaining []int
	state     []node.State
	ready     readyQueue
	report    *RunReport
}

// Run executes the nodes at the selected arena indices and returns one
// result per selected node. Edges to unselected nodes are ignored. The
// returned error is non-nil only when the arguments are invalid.
func Run(ctx context.Context, g *graph.Graph, selected []int, exec executor.Executor, opts Options) (*RunReport, error) {
	if g == nil {
		return nil, fmt.Errorf("%w: nil graph", ErrInvalidArgument)
	}
	if exec == nil {
		return nil, fmt.Errorf("%w: nil executor", ErrInvalidArgument)
	}
	if opts.MaxConcurrency < 0 {
		return nil, fmt.Errorf("%w: negative concurrency %d", ErrInvalidArgument, opts.MaxConcurrency)
	}
	if opts.Retry.MaxAttempts < 0 {
		return nil, fmt.Errorf("%w: negative attempt count %d", ErrInvalidArgument, opts.Retry.MaxAttempts)
	}
	if opts.NodeTimeout < 0 {
		return nil, fmt.Errorf("%w: negative node timeout %s", ErrInvalidArgument, opts.NodeTimeout)
	}

	r := &run{
		g:         g,
		exec:      exec,
		opts:      opts,
		workers:   opts.MaxConcurrency,
		selected:  make([]bool, g.Len()),
		remaining: make([]int, g.Len()),
		state:     make([]node.State, g.Len()),
	}
	if r.workers == 0 {
		r.workers = DefaultConcurrency
	}

	var order []int
	for _, i := range selected {
		if i < 0 || i >= g.Len() {
			return nil, fmt.Errorf("%w: node index %d is not in the graph", ErrInvalidArgument, i)
		}
		if !r.selected[i] {
			r.selected[i] = true
			order = append(order, i)
		}
	}
	slices.Sort(order)

	id := opts.InvocationID
	if id == "" {
		id = uuid.NewString()
	}
	r.report = &RunReport{
		InvocationID: id,
		StartedAt:    time.Now(),
		Results:      make([]RunResult, 0, len(order)),
	}

	r.coordinate(ctx, order)

	r.report.FinishedAt = time.Now()
	r.report.Success = true
	for _, res := range r.report.Results {
		if res.Status == node.StatusError || res.Status == node.StatusCancelled {
			r.report.Success = false
			break
		}
	}
	return r.report, nil
}

func (r *run) coordinate(ctx context.Context, order []int) {
	for _, i := range order {
		for _, u := range r.g.Upstream(i) {
			if r.selected[u] {
				r.remaining[i]++
			}
		}
	}
	for _, i := range order {
		if r.remaining[i] == 0 {
			r.makeRunnable(i)
		}
	}
	if len(order) == 0 {
		return
	}

	workers := min(r.workers, len(order))
	jobs := make(chan int)
	updates := make(chan update)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				r.execute(ctx, i, updates)
			}
		}()
	}

	running := 0
	cancelled := false
	done := ctx.Done()
	for {
		if !cancelled && ctx.Err() != nil {
			cancelled, done = true, nil
		}
		for !cancelled && running < workers && r.ready.Len() > 0 {
			i := heap.Pop(&r.ready).(int)
			r.transition(i, node.Running, 1, nil)
			running++
			jobs <- i
		}
		if running == 0 {
			break
		}

		select {
		case u := <-updates:
			switch u.kind {
			case updateRetry:
				r.transition(u.index, node.Running, u.attempt, nil)
			case updateDone:
				running--
				r.finish(u.index, u.result)
			}
		case <-done:
			cancelled, done = true, nil
		}
	}
	close(jobs)
	wg.Wait()

	// Anything not terminal now was never dispatched.
	for _, i := range order {
		if !r.state[i].Terminal() {
			r.settle(i, node.StatusCancelled, "run cancelled before the node started")
		}
	}
}

func (r *run) makeRunnable(i int) {
	r.transition(i, node.Runnable, 0, nil)
	heap.Push(&r.ready, i)
}

// finish records a dispatched node's result and releases or skips its
// selected dependents.
func (r *run) finish(i int, res RunResult) {
	r.record(i, res)

	if res.Status == node.StatusError {
		r.skipDownstream(i)
		return
	}
	for _, d := range r.g.Downstream(i) {
		if !r.selected[d] || r.state[d] != node.Pending {
			continue
		}
		r.remaining[d]--
		if r.remaining[d] == 0 {
			r.makeRunnable(d)
		}
	}
}

// skipDownstream marks every selected node reachable from failed through
// selected nodes as fail-upstream.
func (r *run) skipDownstream(failed int) {
	queue := []int{failed}
	for len(queue) > 0 {
		u := queue[0]
		queue = queue[1:]
		for _, d := range r.g.Downstream(u) {
			if !r.selected[d] || r.state[d].Terminal() {
				continue
			}
			msg := fmt.Sprintf("upstream %s failed", r.g.Node(failed).ID)
			if u != failed {
				msg = fmt.Sprintf("upstream %s was skipped after %s failed", r.g.Node(u).ID, r.g.Node(failed).ID)
			}
			r.settle(d, node.StatusFailUpstream, msg)
			queue = append(queue, d)
		}
	}
}

// settle terminates a node that never ran.
func (r *run) settle(i int, status node.Status, msg string) {
	r.record(i, RunResult{
		NodeID:    r.g.Node(i).ID,
		Status:    status,
		StartedAt: time.Now(),
		Message:   msg,
	})
}

func (r *run) record(i int, res RunResult) {
	r.report.Results = append(r.report.Results, res)
	r.transition(i, res.Status.State(), res.Attempts, &res)
}

func (r *run) transition(i int, to node.State, attempt int, res *RunResult) {
	from := r.state[i]
	r.state[i] = to
	if len(r.opts.Observers) == 0 {
		return
	}
	e := Event{
		NodeID:  r.g.Node(i).ID,
		From:    from,
		To:      to,
		Attempt: attempt,
		At:      time.Now(),
		Result:  res,
	}
	for _, o := range r.opts.Observers {
		o.OnTransition(e)
	}
}
