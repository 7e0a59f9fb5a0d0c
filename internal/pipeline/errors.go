package pipeline

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidState = errors.New("invalid pipeline state")
	// ErrNoBlockData reports a chain block whose body the node never stored.
	ErrNoBlockData = errors.New("block data not stored")
	// ErrUnsupportedHeight reports a range starting above the coin's MaxHeight.
	ErrUnsupportedHeight = errors.New("height beyond supported block format")
)

// RunError is a fatal failure of a run.
type RunError struct {
	// LastHeight is the last delivered height; valid when HasDelivered.
	LastHeight   uint64
	HasDelivered bool
	Err          error
}

func (e *RunError) Error() string {
	if !e.HasDelivered {
		return fmt.Sprintf("pipeline failed before delivering a block: %v", e.Err)
	}
	return fmt.Sprintf("pipeline failed after height %d: %v", e.LastHeight, e.Err)
}

func (e *RunError) Unwrap() error { return e.Err }
