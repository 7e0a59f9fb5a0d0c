// Package pipeline drives a parser run: it loads the block index, selects
// the canonical chain and streams decoded blocks to one callback in height
// order.
package pipeline

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/goodnatureofminers/blockinsight7000-blockparser/internal/block"
	"github.com/goodnatureofminers/blockinsight7000-blockparser/internal/blockfile"
	"github.com/goodnatureofminers/blockinsight7000-blockparser/internal/callback"
	"github.com/goodnatureofminers/blockinsight7000-blockparser/internal/chain"
	"github.com/goodnatureofminers/blockinsight7000-blockparser/internal/index"
	"github.com/goodnatureofminers/blockinsight7000-blockparser/internal/model"
	"github.com/goodnatureofminers/blockinsight7000-blockparser/pkg/workerpool"
	"go.uber.org/zap"
)

type State int32

const (
	StateIdle State = iota
	StateRunning
	StateComplete
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRunning:
		return "running"
	case StateComplete:
		return "complete"
	case StateFailed:
		return "failed"
	default:
		return fmt.Sprintf("state(%d)", int32(s))
	}
}

// Driver runs one pass over one index snapshot. It is not reusable.
type Driver struct {
	loader  IndexLoader
	blocks  BlockReader
	cb      callback.Callback
	metrics Metrics
	cfg     Config
	logger  *zap.Logger

	mu       sync.Mutex
	state    State
	stopped  bool
	finished bool
	cancel   context.CancelFunc
	err      *RunError

	// Owned by the goroutine calling Start and Run.
	coin          model.CoinParams
	window        []*index.Record
	stats         callback.Stats
	started       time.Time
	lastDelivered uint64
	hasDelivered  bool
}

func NewDriver(
	loader IndexLoader,
	blocks BlockReader,
	cb callback.Callback,
	metrics Metrics,
	cfg Config,
	logger *zap.Logger,
) (*Driver, error) {
	if loader == nil {
		return nil, errors.New("index loader is required")
	}
	if blocks == nil {
		return nil, errors.New("block reader is required")
	}
	if cb == nil {
		return nil, errors.New("callback is required")
	}
	if metrics == nil {
		return nil, errors.New("pipeline metrics is required")
	}

	return &Driver{
		loader:  loader,
		blocks:  blocks,
		cb:      cb,
		metrics: metrics,
		cfg:     cfg.withDefaults(),
		logger:  logger.Named("pipeline"),
	}, nil
}

func (d *Driver) State() State {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.state
}

// Start loads the index, selects the chain and resolves rng against it.
// rng.End may be model.TipHeight.
func (d *Driver) Start(ctx context.Context, coin model.CoinParams, rng model.HeightRange) error {
	d.mu.Lock()
	if d.state != StateIdle {
		state := d.state
		d.mu.Unlock()
		return fmt.Errorf("start in state %s: %w", state, ErrInvalidState)
	}
	d.state = StateRunning
	d.mu.Unlock()

	d.coin = coin
	d.started = time.Now()
	d.logger = d.logger.With(
		zap.String("coin", string(coin.Coin)),
		zap.String("network", string(coin.Network)),
	)

	if err := d.start(ctx, rng); err != nil {
		return d.fail(err)
	}
	return nil
}

func (d *Driver) start(ctx context.Context, rng model.HeightRange) error {
	started := time.Now()
	table, err := d.loader.Load(ctx)
	records := 0
	if table != nil {
		records = table.Len()
	}
	d.metrics.ObserveIndexLoad(err, records, started)
	if err != nil {
		return fmt.Errorf("load index: %w", err)
	}

	if d.cfg.Verify {
		if _, err := index.Verify(ctx, table, d.blocks, index.VerifyOptions{
			Workers: d.cfg.Workers,
			Skip:    d.recoverable,
		}, d.logger); err != nil {
			return fmt.Errorf("verify index: %w", err)
		}
	}

	opts := chain.Options{RequireData: d.cfg.RequireData}
	if d.coin.GenesisHash != (chainhash.Hash{}) {
		genesis := d.coin.GenesisHash
		opts.GenesisHash = &genesis
	}
	best, err := chain.Select(table, opts)
	if err != nil {
		return fmt.Errorf("select chain: %w", err)
	}

	if limit := d.coin.MaxHeight; limit != 0 {
		if rng.Start > limit {
			return fmt.Errorf("start height %d above %d: %w", rng.Start, limit, ErrUnsupportedHeight)
		}
		if rng.End > limit {
			d.logger.Warn("range clamped to the last supported height", zap.Uint64("max_height", limit))
			rng.End = limit
		}
	}

	window, resolved, err := best.Window(rng)
	if err != nil {
		return err
	}
	d.window = window
	d.stats.StartHeight = resolved.Start
	d.stats.LastHeight = resolved.Start

	d.logger.Info("chain selected",
		zap.Uint64("tip_height", best.TipHeight()),
		zap.Stringer("tip_hash", best.Tip().Hash),
		zap.String("work", best.Work().String()),
		zap.Uint64("start", resolved.Start),
		zap.Uint64("end", resolved.End),
	)

	if err := d.cb.OnStart(ctx, d.coin, resolved); err != nil {
		return fmt.Errorf("callback start: %w", err)
	}
	return nil
}

// Run delivers every block of the window. Cancelling ctx or calling Stop
// ends the run early as a partial success.
func (d *Driver) Run(ctx context.Context) error {
	d.mu.Lock()
	if d.state != StateRunning || d.cancel != nil {
		state := d.state
		d.mu.Unlock()
		return fmt.Errorf("run in state %s: %w", state, ErrInvalidState)
	}
	ctx, cancel := context.WithCancel(ctx)
	d.cancel = cancel
	if d.stopped {
		cancel()
	}
	d.mu.Unlock()
	defer cancel()

	err := workerpool.Ordered(ctx, d.cfg.Workers, d.cfg.ReadAhead, d.window, compareLocators, d.fetch,
		func(i int, blk *block.Block, err error) error {
			return d.deliver(ctx, d.window[i], blk, err)
		})
	switch {
	case err == nil:
		d.complete(false)
		return nil
	case ctx.Err() != nil && (errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)):
		d.logger.Info("run stopped", zap.Uint64("blocks", d.stats.Blocks))
		d.complete(true)
		return nil
	default:
		return d.fail(err)
	}
}

// Stop cancels a run. The delivery in progress completes; nothing after
// it is delivered.
func (d *Driver) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.stopped = true
	if d.cancel != nil {
		d.cancel()
	}
}

// Finish hands the statistics to the callback. For a failed run it returns
// the *RunError and skips the callback.
func (d *Driver) Finish(ctx context.Context) (callback.Stats, error) {
	d.mu.Lock()
	state, runErr, finished := d.state, d.err, d.finished
	if state == StateComplete {
		d.finished = true
	}
	d.mu.Unlock()

	stats := d.stats
	switch {
	case state == StateFailed:
		return stats, runErr
	case state != StateComplete:
		return stats, fmt.Errorf("finish in state %s: %w", state, ErrInvalidState)
	case finished:
		return stats, fmt.Errorf("finish called twice: %w", ErrInvalidState)
	}

	if err := d.cb.OnComplete(ctx, stats); err != nil {
		return stats, fmt.Errorf("callback complete: %w", err)
	}
	d.logger.Info("run finished",
		zap.Uint64("blocks", stats.Blocks),
		zap.Uint64("transactions", stats.Transactions),
		zap.Uint64("skipped", stats.Skipped),
		zap.Uint64("errors", stats.Errors),
		zap.Duration("duration", stats.Duration),
		zap.Bool("partial", stats.Partial),
	)
	return stats, nil
}

func (d *Driver) complete(partial bool) {
	d.stats.Partial = partial
	d.stats.Duration = time.Since(d.started)

	d.mu.Lock()
	d.state = StateComplete
	d.mu.Unlock()
}

func (d *Driver) fail(err error) error {
	d.stats.Duration = time.Since(d.started)
	runErr := &RunError{LastHeight: d.lastDelivered, HasDelivered: d.hasDelivered, Err: err}
	d.logger.Error("run failed", zap.Error(runErr))

	d.mu.Lock()
	d.state = StateFailed
	d.err = runErr
	d.mu.Unlock()
	return runErr
}

func compareLocators(a, b *index.Record) int {
	if c := cmp.Compare(a.Locator.File, b.Locator.File); c != 0 {
		return c
	}
	return cmp.Compare(a.Locator.Offset, b.Locator.Offset)
}

func (d *Driver) fetch(_ context.Context, rec *index.Record) (*block.Block, error) {
	started := time.Now()
	blk, err := d.readBlock(rec)
	d.metrics.ObserveFetchBlock(err, rec.Height, started)
	return blk, err
}

func (d *Driver) readBlock(rec *index.Record) (*block.Block, error) {
	if !rec.HasLocator {
		return nil, fmt.Errorf("block %s: %w", rec.Hash, ErrNoBlockData)
	}
	raw, err := d.blocks.Read(rec.Locator)
	if err != nil {
		return nil, err
	}

	decode := block.Decode
	if d.cfg.Granularity == SkipTransaction && !d.cfg.Strict {
		decode = block.DecodeLenient
	}
	blk, err := decode(raw)
	if blk == nil {
		return nil, err
	}
	if blk.Hash != rec.Hash {
		return nil, &block.MalformedTransactionError{
			Index: block.HeaderIndex,
			Err:   fmt.Errorf("stored block is %s, want %s: %w", blk.Hash, rec.Hash, block.ErrHashMismatch),
		}
	}
	if err == nil && rec.TxCount != 0 && uint64(len(blk.Transactions)) != rec.TxCount {
		return nil, &block.MalformedTransactionError{
			Index: block.HeaderIndex,
			Err:   fmt.Errorf("%d transactions, index has %d: %w", len(blk.Transactions), rec.TxCount, block.ErrTxCountMismatch),
		}
	}
	return blk, err
}

func (d *Driver) deliver(ctx context.Context, rec *index.Record, blk *block.Block, err error) error {
	if err != nil {
		if !d.recoverable(err) {
			return fmt.Errorf("block %s at height %d: %w", rec.Hash, rec.Height, err)
		}
		d.stats.Errors++
		if blk == nil {
			d.skip(rec, skipReason(err), err)
			return nil
		}
		d.logger.Warn("delivering partially decoded block",
			zap.Uint64("height", rec.Height),
			zap.Int("transactions", len(blk.Transactions)),
			zap.Error(err),
		)
	}

	started := time.Now()
	err = d.cb.OnBlock(ctx, blk, rec.Height)
	d.metrics.ObserveDeliverBlock(err, rec.Height, started)
	if err != nil {
		if errors.Is(err, callback.ErrSkip) {
			d.stats.Errors++
			d.skip(rec, "callback", err)
			return nil
		}
		return fmt.Errorf("callback at height %d: %w", rec.Height, err)
	}

	d.stats.Blocks++
	d.stats.Transactions += uint64(len(blk.Transactions))
	for i := range blk.Transactions {
		d.stats.Inputs += uint64(len(blk.Transactions[i].Inputs))
		d.stats.Outputs += uint64(len(blk.Transactions[i].Outputs))
	}
	d.stats.LastHeight = rec.Height
	d.lastDelivered = rec.Height
	d.hasDelivered = true

	if rec.Height%progressLogInterval == 0 {
		d.logger.Info("progress",
			zap.Uint64("height", rec.Height),
			zap.Uint64("blocks", d.stats.Blocks),
			zap.Uint64("transactions", d.stats.Transactions),
		)
	}
	return nil
}

func (d *Driver) skip(rec *index.Record, reason string, err error) {
	d.stats.Skipped++
	d.stats.LastHeight = rec.Height
	d.metrics.ObserveSkippedBlock(reason)
	d.logger.Warn("block skipped",
		zap.Uint64("height", rec.Height),
		zap.Stringer("hash", rec.Hash),
		zap.String("reason", reason),
		zap.Error(err),
	)
}

// recoverable reports whether err only costs the affected block.
func (d *Driver) recoverable(err error) bool {
	if d.cfg.Strict {
		return false
	}
	var (
		truncated *blockfile.TruncatedFileError
		magic     *blockfile.MagicMismatchError
		malformed *block.MalformedTransactionError
	)
	return errors.As(err, &truncated) ||
		errors.As(err, &magic) ||
		errors.As(err, &malformed) ||
		errors.Is(err, ErrNoBlockData)
}

func skipReason(err error) string {
	var (
		truncated *blockfile.TruncatedFileError
		magic     *blockfile.MagicMismatchError
	)
	switch {
	case errors.As(err, &truncated):
		return "truncated_file"
	case errors.As(err, &magic):
		return "magic_mismatch"
	case errors.Is(err, ErrNoBlockData):
		return "no_data"
	default:
		return "malformed"
	}
}
