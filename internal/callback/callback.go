// Package callback defines the consumer contract of the pipeline and the
// consumers shipped with the parser.
package callback

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/goodnatureofminers/blockinsight7000-blockparser/internal/block"
	"github.com/goodnatureofminers/blockinsight7000-blockparser/internal/model"
)

// ErrSkip marks a callback error that should skip the block instead of
// aborting the run.
var ErrSkip = errors.New("skip block")

// Skippable wraps err so that the pipeline counts it and continues.
func Skippable(err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%w: %w", ErrSkip, err)
}

// Callback consumes blocks in height order. The pipeline never calls it
// concurrently.
type Callback interface {
	OnStart(ctx context.Context, coin model.CoinParams, rng model.HeightRange) error
	OnBlock(ctx context.Context, blk *block.Block, height uint64) error
	OnComplete(ctx context.Context, stats Stats) error
}

// Stats summarises a run.
type Stats struct {
	Blocks       uint64
	Transactions uint64
	Inputs       uint64
	Outputs      uint64
	// Skipped counts blocks not delivered; Errors counts every tolerated failure.
	Skipped uint64
	Errors  uint64

	StartHeight uint64
	// LastHeight is the highest height delivered or skipped.
	LastHeight uint64
	Duration   time.Duration
	// Partial is set when the run stopped before the end of its range.
	Partial bool
}

// EndHeight is LastHeight, or StartHeight when nothing was processed.
func (s Stats) EndHeight() uint64 {
	if s.Blocks == 0 && s.Skipped == 0 {
		return s.StartHeight
	}
	return s.LastHeight
}
