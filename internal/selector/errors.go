package selector

import (
	"errors"
	"fmt"
)

var (
	ErrUnknownMethod = errors.New("unknown selector method")
	ErrInvalidDepth  = errors.New("invalid traversal depth")
	ErrMalformed     = errors.New("malformed selector expression")
)

// SelectorError reports a failure to parse or evaluate one selection. Kind
// is one of the sentinel errors above.
type SelectorError struct {
	Kind  error
	Input string
	// Pos is the byte offset in Input, or -1 when not applicable.
	Pos int
	Msg string
}

func (e *SelectorError) Error() string {
	if e == nil {
		return ""
	}
	msg := e.Kind.Error()
	if e.Msg != "" {
		msg += ": " + e.Msg
	}
	if e.Pos >= 0 && e.Input != "" {
		msg += fmt.Sprintf(" at offset %d in %q", e.Pos, e.Input)
	}
	return msg
}

func (e *SelectorError) Unwrap() error { return e.Kind }

func newError(kind error, format string, args ...any) *SelectorError {
	return &SelectorError{Kind: kind, Pos: -1, Msg: fmt.Sprintf(format, args...)}
}
