// Package metrics reports scheduler activity to a dogstatsd agent.
package metrics

import (
	"fmt"
	"time"

	"github.com/DataDog/datadog-go/statsd"
	"github.com/vk/gridflow/internal/node"
	"github.com/vk/gridflow/internal/scheduler"
)

// Namespace prefixes every metric name.
const Namespace = "gridflow."

// Client is the subset of *statsd.Client the observer uses.
type Client interface {
	Incr(name string, tags []string, rate float64) error
	Timing(name string, value time.Duration, tags []string, rate float64) error
	Gauge(name string, value float64, tags []string, rate float64) error
}

// Dial creates a statsd client for addr ("host:port").
func Dial(addr string) (*statsd.Client, error) {
	client, err := statsd.New(addr, statsd.WithNamespace(Namespace))
	if err != nil {
		return nil, fmt.Errorf("setting up dogstatsd reporting: %w", err)
	}
	return client, nil
}

// Observer is a scheduler.Observer that emits counters per status, attempt
// timings and a running-node gauge. It must only be used from one
// goroutine, which the scheduler guarantees.
type Observer struct {
	client  Client
	tags    []string
	running int
}

// NewObserver creates an Observer. tags are attached to every metric.
func NewObserver(client Client, tags ...string) *Observer {
	return &Observer{client: client, tags: tags}
}

var _ scheduler.Observer = (*Observer)(nil)

// OnTransition implements scheduler.Observer. Send errors are dropped.
func (o *Observer) OnTransition(e scheduler.Event) {
	switch {
	case e.From == node.Running && e.To == node.Running:
		_ = o.client.Incr("node.retry", o.tags, 1)
	case e.To == node.Running:
		o.running++
		_ = o.client.Gauge("nodes.running", float64(o.running), o.tags, 1)
	}

	if e.Result == nil {
		return
	}
	if e.From == node.Running {
		o.running--
		_ = o.client.Gauge("nodes.running", float64(o.running), o.tags, 1)
	}
	tags := append([]string{"status:" + string(e.Result.Status)}, o.tags...)
	_ = o.client.Incr("node.finished", tags, 1)
	if e.Result.Attempts > 0 {
		_ = o.client.Timing("node.duration", e.Result.Duration, tags, 1)
	}
}

// Finish records run-level metrics.
func (o *Observer) Finish(r *scheduler.RunReport) {
	outcome := "success"
	if !r.Success {
		outcome = "failure"
	}
	tags := append([]string{"outcome:" + outcome}, o.tags...)
	_ = o.client.Incr("run.finished", tags, 1)
	_ = o.client.Timing("run.duration", r.Elapsed(), tags, 1)
}
