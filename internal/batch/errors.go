package batch

import (
	"errors"
	"fmt"
)

// Domain errors for command generation. All of them are configuration or
// caller defects; none is transient.
var (
	// ErrConfiguration indicates an invalid configuration combination.
	ErrConfiguration = errors.New("batch: invalid configuration")

	// ErrUnknownReferenceBody indicates a body name missing from the frame table.
	ErrUnknownReferenceBody = errors.New("batch: unknown reference body")

	// ErrIndexOutOfRange indicates an agent index outside [0, N).
	ErrIndexOutOfRange = errors.New("batch: agent index out of range")

	// ErrDimensionMismatch indicates a snapshot whose length differs from N.
	ErrDimensionMismatch = errors.New("batch: dimension mismatch between snapshot and batch")
)

// AgentError wraps an error with the offending agent index.
type AgentError struct {
	Index   int
	Size    int
	Wrapped error
}

func (e *AgentError) Error() string {
	return fmt.Sprintf("%v: index %d not in [0, %d)", e.Wrapped, e.Index, e.Size)
}

func (e *AgentError) Unwrap() error {
	return e.Wrapped
}

// CheckIndices returns an *AgentError for the first id outside [0, n).
func CheckIndices(ids []int, n int) error {
	for _, id := range ids {
		if id < 0 || id >= n {
			return &AgentError{Index: id, Size: n, Wrapped: ErrIndexOutOfRange}
		}
	}
	return nil
}
