package index

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/goodnatureofminers/blockinsight7000-blockparser/internal/block"
	"github.com/goodnatureofminers/blockinsight7000-blockparser/internal/model"
	"github.com/goodnatureofminers/blockinsight7000-blockparser/pkg/workerpool"
	"go.uber.org/zap"
)

type BlockFetcher interface {
	Read(loc model.Locator) ([]byte, error)
}

type VerifyOptions struct {
	Workers int
	// Skip decides whether a read or decode failure is logged and
	// tolerated instead of aborting verification.
	Skip func(error) bool
}

type VerifyResult struct {
	Checked int64
	Skipped int64
}

// Verify re-reads every stored block and checks its merkle root.
func Verify(ctx context.Context, table *Table, blocks BlockFetcher, opts VerifyOptions, logger *zap.Logger) (VerifyResult, error) {
	logger = logger.Named("verify")
	stored := make([]*Record, 0, table.Len())
	for _, rec := range table.Records() {
		if rec.HasLocator {
			stored = append(stored, rec)
		}
	}

	var checked, skipped atomic.Int64
	err := workerpool.Process(ctx, max(opts.Workers, 1), stored, func(_ context.Context, rec *Record) error {
		err := verifyRecord(rec, blocks)
		if err == nil {
			checked.Add(1)
			return nil
		}
		if opts.Skip != nil && opts.Skip(err) {
			skipped.Add(1)
			logger.Warn("block not verified",
				zap.Stringer("hash", rec.Hash),
				zap.Uint64("height", rec.Height),
				zap.Error(err),
			)
			return nil
		}
		return err
	})

	res := VerifyResult{Checked: checked.Load(), Skipped: skipped.Load()}
	logger.Info("verification finished", zap.Int64("checked", res.Checked), zap.Int64("skipped", res.Skipped))
	return res, err
}

func verifyRecord(rec *Record, blocks BlockFetcher) error {
	raw, err := blocks.Read(rec.Locator)
	if err != nil {
		return fmt.Errorf("read block %s: %w", rec.Hash, err)
	}
	blk, err := block.Decode(raw)
	if err != nil {
		return fmt.Errorf("decode block %s: %w", rec.Hash, err)
	}
	if blk.Hash != rec.Hash {
		return &block.MalformedTransactionError{
			Index: block.HeaderIndex,
			Err:   fmt.Errorf("stored block is %s, want %s: %w", blk.Hash, rec.Hash, block.ErrHashMismatch),
		}
	}
	if computed := block.MerkleRoot(blk.TxIDs()); computed != blk.Header.MerkleRoot {
		return &MerkleMismatchError{
			Hash:     rec.Hash,
			Height:   rec.Height,
			Header:   blk.Header.MerkleRoot,
			Computed: computed,
		}
	}
	return nil
}
