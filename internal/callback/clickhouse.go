package callback

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/goodnatureofminers/blockinsight7000-blockparser/internal/block"
	"github.com/goodnatureofminers/blockinsight7000-blockparser/internal/model"
	"github.com/goodnatureofminers/blockinsight7000-blockparser/internal/script"
	"github.com/goodnatureofminers/blockinsight7000-blockparser/pkg/batcher"
	"go.uber.org/zap"
)

// ClickHouse stores every delivered block with its transactions, inputs and
// outputs. Rows are written in batches; a block row is written after the
// rows derived from it.
type ClickHouse struct {
	repo   Repository
	logger *zap.Logger

	batchSize     int
	flushInterval time.Duration
	flushRPS      int

	coin    model.CoinParams
	decoder *script.Decoder
	utxo    *unspentSet
	batcher *batcher.Batcher[model.InsertBlock]
	queued  uint64
}

type ClickHouseOption func(*ClickHouse)

// WithBatchSize sets how many blocks are written per flush.
func WithBatchSize(n int) ClickHouseOption {
	return func(c *ClickHouse) {
		if n > 0 {
			c.batchSize = n
		}
	}
}

// WithFlushInterval sets the longest time a queued block waits for a flush.
func WithFlushInterval(d time.Duration) ClickHouseOption {
	return func(c *ClickHouse) {
		if d > 0 {
			c.flushInterval = d
		}
	}
}

func NewClickHouse(repo Repository, logger *zap.Logger, opts ...ClickHouseOption) (*ClickHouse, error) {
	if repo == nil {
		return nil, errors.New("clickhouse repository is required")
	}
	c := &ClickHouse{
		repo:          repo,
		logger:        logger.Named("clickhouse"),
		batchSize:     clickhouseBatchSize,
		flushInterval: clickhouseFlushInterval,
		flushRPS:      clickhouseFlushRPS,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

func (c *ClickHouse) OnStart(ctx context.Context, coin model.CoinParams, rng model.HeightRange) error {
	decoder, err := script.NewDecoder(coin.Params)
	if err != nil {
		return fmt.Errorf("clickhouse: %w", err)
	}
	c.coin = coin
	c.decoder = decoder
	c.utxo = newUnspentSet()
	c.logger = c.logger.With(
		zap.String("coin", string(coin.Coin)),
		zap.String("network", string(coin.Network)),
	)

	// Queued rows are flushed on completion even when the run was cancelled.
	c.batcher = batcher.New(c.logger.Named("blockBatcher"), c.flush, c.batchSize, c.flushInterval, c.flushRPS)
	c.batcher.Start(context.WithoutCancel(ctx))

	c.logger.Info("writing blocks to clickhouse", zap.Uint64("start", rng.Start), zap.Uint64("end", rng.End))
	return nil
}

func (c *ClickHouse) OnBlock(ctx context.Context, blk *block.Block, height uint64) error {
	rows, err := c.rows(blk, height)
	if err != nil {
		return Skippable(fmt.Errorf("block %d: %w", height, err))
	}
	if err := c.batcher.Add(ctx, rows); err != nil {
		return fmt.Errorf("queue block %d: %w", height, err)
	}
	c.queued++
	return nil
}

func (c *ClickHouse) OnComplete(_ context.Context, stats Stats) error {
	if err := c.batcher.Stop(); err != nil {
		return fmt.Errorf("flush clickhouse rows: %w", err)
	}
	c.logger.Info("blocks written",
		zap.Uint64("blocks", c.queued),
		zap.Uint64("start", stats.StartHeight),
		zap.Uint64("end", stats.EndHeight()),
		zap.Bool("partial", stats.Partial),
	)
	return nil
}

// Close flushes whatever is still queued.
func (c *ClickHouse) Close() error {
	if c.batcher == nil {
		return nil
	}
	return c.batcher.Stop()
}

func (c *ClickHouse) flush(ctx context.Context, insertBlocks []model.InsertBlock) error {
	var (
		blocks  = make([]model.Block, 0, len(insertBlocks))
		txs     []model.Transaction
		inputs  []model.TransactionInput
		outputs []model.TransactionOutput
	)

	for _, b := range insertBlocks {
		blocks = append(blocks, b.Block)
		txs = append(txs, b.Txs...)
		outputs = append(outputs, b.Outputs...)
		inputs = append(inputs, b.Inputs...)

		if len(outputs) >= outputFlushThreshold {
			if err := c.repo.InsertTransactionOutputs(ctx, outputs); err != nil {
				return err
			}
			outputs = outputs[:0]
		}
		if len(inputs) >= inputFlushThreshold {
			if err := c.repo.InsertTransactionInputs(ctx, inputs); err != nil {
				return err
			}
			inputs = inputs[:0]
		}
	}

	if err := c.repo.InsertTransactions(ctx, txs); err != nil {
		return err
	}
	if err := c.repo.InsertTransactionOutputs(ctx, outputs); err != nil {
		return err
	}
	if err := c.repo.InsertTransactionInputs(ctx, inputs); err != nil {
		return err
	}
	if err := c.repo.InsertBlocks(ctx, blocks); err != nil {
		return err
	}
	c.logger.Debug("blocks flushed",
		zap.Int("blocks", len(blocks)),
		zap.Uint64("last_height", blocks[len(blocks)-1].Height),
	)
	return nil
}
