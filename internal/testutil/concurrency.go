package testutil

import (
	"context"
	"sync"
	"time"

	"github.com/vk/gridflow/internal/executor"
	"github.com/vk/gridflow/internal/node"
)

// Script decides the outcome of one attempt. attempt starts at 1.
type Script func(ctx context.Context, attempt int) (executor.Outcome, error)

// FailTimes fails the first n attempts with err and succeeds afterwards.
func FailTimes(n int, err error) Script {
	return func(_ context.Context, attempt int) (executor.Outcome, error) {
		if attempt <= n {
			return executor.Outcome{}, err
		}
		return executor.Success("ok"), nil
	}
}

// AlwaysFail fails every attempt with err.
func AlwaysFail(err error) Script {
	return func(context.Context, int) (executor.Outcome, error) {
		return executor.Outcome{}, err
	}
}

// SkipWith makes the adapter decline the node.
func SkipWith(msg string) Script {
	return func(context.Context, int) (executor.Outcome, error) {
		return executor.Skip(msg), nil
	}
}

// PanicWith panics inside the adapter.
func PanicWith(v any) Script {
	return func(context.Context, int) (executor.Outcome, error) {
		panic(v)
	}
}

// WaitFor blocks until gate is closed or ctx is done.
func WaitFor(gate <-chan struct{}) Script {
	return func(ctx context.Context, _ int) (executor.Outcome, error) {
		select {
		case <-gate:
			return executor.Success("released"), nil
		case <-ctx.Done():
			return executor.Outcome{}, ctx.Err()
		}
	}
}

// RecordingExecutor is a shared executor double for scheduler and app tests.
// It sleeps for a fixed duration per attempt, runs an optional per-node
// script and records the timing of every attempt.
type RecordingExecutor struct {
	mu         sync.Mutex
	delay      time.Duration
	scripts    map[string]Script
	attempts   map[string]int
	records    []ExecutionRecord
	started    []string
	running    int
	maxRunning int

	// Started, when set, receives the node id at the start of every attempt.
	Started chan<- string
}

// NewRecordingExecutor creates an executor that sleeps delay per attempt.
func NewRecordingExecutor(delay time.Duration) *RecordingExecutor {
	return &RecordingExecutor{
		delay:    delay,
		scripts:  make(map[string]Script),
		attempts: make(map[string]int),
	}
}

// On installs script for the node with the given qualified id.
func (e *RecordingExecutor) On(id string, script Script) *RecordingExecutor {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.scripts[id] = script
	return e
}

// Execute implements executor.Executor.
func (e *RecordingExecutor) Execute(ctx context.Context, n *node.Node) (executor.Outcome, error) {
	id := n.ID.String()

	e.mu.Lock()
	e.attempts[id]++
	attempt := e.attempts[id]
	script := e.scripts[id]
	e.started = append(e.started, id)
	e.running++
	if e.running > e.maxRunning {
		e.maxRunning = e.running
	}
	e.mu.Unlock()

	if e.Started != nil {
		e.Started <- id
	}

	start := time.Now()
	var (
		out executor.Outcome
		err error
	)
	defer func() {
		e.mu.Lock()
		e.running--
		e.records = append(e.records, ExecutionRecord{Node: id, Attempt: attempt, Start: start, End: time.Now(), Err: err})
		e.mu.Unlock()
	}()

	if e.delay > 0 {
		select {
		case <-time.After(e.delay):
		case <-ctx.Done():
			err = ctx.Err()
			return out, err
		}
	}

	if script == nil {
		out = executor.Success("ok")
		return out, nil
	}
	out, err = script(ctx, attempt)
	return out, err
}

// Attempts returns how many times id was executed.
func (e *RecordingExecutor) Attempts(id string) int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.attempts[id]
}

// StartOrder returns node ids in the order their attempts began.
func (e *RecordingExecutor) StartOrder() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]string(nil), e.started...)
}

// Records returns a copy of all finished attempts.
func (e *RecordingExecutor) Records() []ExecutionRecord {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]ExecutionRecord(nil), e.records...)
}

// Record returns the last finished attempt of id.
func (e *RecordingExecutor) Record(id string) (ExecutionRecord, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	for i := len(e.records) - 1; i >= 0; i-- {
		if e.records[i].Node == id {
			return e.records[i], true
		}
	}
	return ExecutionRecord{}, false
}

// MaxConcurrency is the highest number of attempts that were in flight at
// the same time.
func (e *RecordingExecutor) MaxConcurrency() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.maxRunning
}
