package scheduler

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidArgument is returned by Run for arguments it cannot start
	// with. Node failures are never returned as errors.
	ErrInvalidArgument = errors.New("invalid scheduler argument")
	// ErrNodeTimeout marks an attempt that exceeded Options.NodeTimeout.
	ErrNodeTimeout = errors.New("node timed out")
)

// PanicError is the failure recorded for an attempt whose executor
// panicked.
type PanicError struct {
	Value any
	Stack []byte
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("executor panicked: %v", e.Value)
}
