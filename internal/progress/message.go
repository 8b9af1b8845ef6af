package progress

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/vk/gridflow/internal/node"
	"github.com/vk/gridflow/internal/scheduler"
)

// Socket.io event names.
const (
	EventTransition = "transition"
	EventFinished   = "finished"
)

// Message is the wire form of a scheduler.Event.
type Message struct {
	InvocationID string    `json:"invocation_id"`
	Node         string    `json:"node"`
	From         string    `json:"from"`
	To           string    `json:"to"`
	Attempt      int       `json:"attempt"`
	At           time.Time `json:"at"`
	Status       string    `json:"status,omitempty"`
	Message      string    `json:"message,omitempty"`
	Error        string    `json:"error,omitempty"`
	DurationMS   int64     `json:"duration_ms,omitempty"`
}

// NewMessage converts e.
func NewMessage(invocationID string, e scheduler.Event) Message {
	m := Message{
		InvocationID: invocationID,
		Node:         e.NodeID.String(),
		From:         e.From.String(),
		To:           e.To.String(),
		Attempt:      e.Attempt,
		At:           e.At,
	}
	if r := e.Result; r != nil {
		m.Status = string(r.Status)
		m.Message = r.Message
		m.DurationMS = r.Duration.Milliseconds()
		if r.Err != nil {
			m.Error = r.Err.Error()
		}
	}
	return m
}

// Summary is sent once when a run completes.
type Summary struct {
	InvocationID string         `json:"invocation_id"`
	Success      bool           `json:"success"`
	Counts       map[string]int `json:"counts"`
	ElapsedMS    int64          `json:"elapsed_ms"`
}

// NewSummary condenses r.
func NewSummary(r *scheduler.RunReport) Summary {
	counts := make(map[string]int)
	for status, n := range r.Counts() {
		counts[string(status)] = n
	}
	return Summary{
		InvocationID: r.InvocationID,
		Success:      r.Success,
		Counts:       counts,
		ElapsedMS:    r.Elapsed().Milliseconds(),
	}
}

// decode converts a socket.io payload (already JSON-decoded into generic
// values by the client) into v.
func decode(payload any, v any) error {
	raw, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("re-encoding payload: %w", err)
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("decoding payload: %w", err)
	}
	return nil
}

// Format renders m as a single human-readable line.
func Format(m Message) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s %-40s %s -> %s", m.At.Format("15:04:05"), m.Node, m.From, m.To)
	if m.From == node.Running.String() && m.To == node.Running.String() {
		fmt.Fprintf(&b, " (attempt %d)", m.Attempt)
	}
	if m.Status != "" {
		fmt.Fprintf(&b, " [%s]", m.Status)
	}
	if m.Error != "" {
		fmt.Fprintf(&b, " error=%q", m.Error)
	} else if m.Message != "" {
		fmt.Fprintf(&b, " %s", m.Message)
	}
	return b.String()
}

// FormatSummary renders s as a single line.
func FormatSummary(s Summary) string {
	outcome := "succeeded"
	if !s.Success {
		outcome = "failed"
	}
	statuses := []node.Status{node.StatusSuccess, node.StatusError, node.StatusSkipped, node.StatusFailUpstream, node.StatusCancelled}
	parts := make([]string, 0, len(statuses))
	for _, st := range statuses {
		if n := s.Counts[string(st)]; n > 0 {
			parts = append(parts, fmt.Sprintf("%s=%d", st, n))
		}
	}
	return fmt.Sprintf("run %s %s in %s: %s", s.InvocationID, outcome,
		(time.Duration(s.ElapsedMS) * time.Millisecond).String(), strings.Join(parts, " "))
}
