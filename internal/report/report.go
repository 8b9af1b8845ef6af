// Package report writes a run's results as a JSON artifact.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/vk/gridflow/internal/scheduler"
)

// SchemaVersion is bumped whenever the artifact layout changes.
const SchemaVersion = 1

// Artifact is the on-disk form of a scheduler.RunReport.
type Artifact struct {
	Metadata Metadata `json:"metadata"`
	Success  bool     `json:"success"`
	Elapsed  float64  `json:"elapsed_seconds"`
	Results  []Result `json:"results"`
}

// Metadata describes the invocation that produced the artifact.
type Metadata struct {
	SchemaVersion int       `json:"schema_version"`
	GeneratedAt   time.Time `json:"generated_at"`
	InvocationID  string    `json:"invocation_id"`
	StartedAt     time.Time `json:"started_at"`
	FinishedAt    time.Time `json:"finished_at"`
	// Selector is the expression the run was invoked with, if any.
	Selector string `json:"selector,omitempty"`
}

// Result is one node's entry.
type Result struct {
	UniqueID      string     `json:"unique_id"`
	Status        string     `json:"status"`
	Attempts      int        `json:"attempts"`
	StartedAt     *time.Time `json:"started_at,omitempty"`
	ExecutionTime float64    `json:"execution_time"`
	Message       string     `json:"message,omitempty"`
	Error         string     `json:"error,omitempty"`
}

// New converts r. now is stamped as the generation time.
func New(r *scheduler.RunReport, selector string, now time.Time) Artifact {
	a := Artifact{
		Metadata: Metadata{
			SchemaVersion: SchemaVersion,
			GeneratedAt:   now.UTC(),
			InvocationID:  r.InvocationID,
			StartedAt:     r.StartedAt.UTC(),
			FinishedAt:    r.FinishedAt.UTC(),
			Selector:      selector,
		},
		Success: r.Success,
		Elapsed: r.Elapsed().Seconds(),
		Results: make([]Result, 0, len(r.Results)),
	}
	for _, res := range r.Results {
		out := Result{
			UniqueID:      res.NodeID.String(),
			Status:        string(res.Status),
			Attempts:      res.Attempts,
			ExecutionTime: res.Duration.Seconds(),
			Message:       res.Message,
		}
		if !res.StartedAt.IsZero() {
			started := res.StartedAt.UTC()
			out.StartedAt = &started
		}
		if res.Err != nil {
			out.Error = res.Err.Error()
		}
		a.Results = append(a.Results, out)
	}
	return a
}

// Encode writes a as indented JSON.
func Encode(w io.Writer, a Artifact) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(a)
}

// Write stores a at path, creating parent directories. The file is written
// to a temporary name first and renamed into place.
func Write(path string, a Artifact) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating report directory: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".run_results-*.json")
	if err != nil {
		return fmt.Errorf("creating report file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := Encode(tmp, a); err != nil {
		tmp.Close()
		return fmt.Errorf("encoding report: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing report file: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("moving report into place: %w", err)
	}
	return nil
}
