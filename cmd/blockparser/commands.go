package main

import (
	"context"
	"fmt"
	"time"

	"github.com/jessevdk/go-flags"
	"go.uber.org/zap"

	"github.com/goodnatureofminers/blockinsight7000-blockparser/internal/callback"
	"github.com/goodnatureofminers/blockinsight7000-blockparser/internal/clock"
	"github.com/goodnatureofminers/blockinsight7000-blockparser/internal/metrics"
	"github.com/goodnatureofminers/blockinsight7000-blockparser/internal/model"
	"github.com/goodnatureofminers/blockinsight7000-blockparser/internal/repository/clickhouse"
)

type dumpDirOption struct {
	DumpDir string `long:"dump-dir" env:"BLOCKPARSER_DUMP_DIR" required:"true" description:"directory for the csv files"`
}

type sigdumpCommand struct {
	dumpDirOption
	app *app
}

func (c *sigdumpCommand) Execute([]string) error {
	return c.app.execute(func(logger *zap.Logger) (callback.Callback, error) {
		return callback.NewSigDump(c.DumpDir, logger)
	})
}

type csvdumpCommand struct {
	dumpDirOption
	app *app
}

func (c *csvdumpCommand) Execute([]string) error {
	return c.app.execute(func(logger *zap.Logger) (callback.Callback, error) {
		return callback.NewCSVDump(c.DumpDir, logger)
	})
}

type unspentCommand struct {
	dumpDirOption
	app *app
}

func (c *unspentCommand) Execute([]string) error {
	return c.app.execute(func(logger *zap.Logger) (callback.Callback, error) {
		return callback.NewUnspentCSVDump(c.DumpDir, logger)
	})
}

type balancesCommand struct {
	dumpDirOption
	app *app
}

func (c *balancesCommand) Execute([]string) error {
	return c.app.execute(func(logger *zap.Logger) (callback.Callback, error) {
		return callback.NewBalances(c.DumpDir, logger)
	})
}

type simplestatsCommand struct {
	app *app
}

func (c *simplestatsCommand) Execute([]string) error {
	return c.app.execute(func(logger *zap.Logger) (callback.Callback, error) {
		return callback.NewSimpleStats(logger), nil
	})
}

type clickhouseCommand struct {
	ClickhouseDSN string        `long:"clickhouse-dsn" env:"BLOCKPARSER_CLICKHOUSE_DSN" required:"true" description:"ClickHouse DSN"`
	BatchSize     int           `long:"batch-size" env:"BLOCKPARSER_CLICKHOUSE_BATCH_SIZE" default:"1000" description:"blocks per insert batch"`
	FlushInterval time.Duration `long:"flush-interval" env:"BLOCKPARSER_CLICKHOUSE_FLUSH_INTERVAL" default:"30s" description:"longest wait before queued blocks are written"`
	Resume        bool          `long:"resume" env:"BLOCKPARSER_CLICKHOUSE_RESUME" description:"start after the highest stored block"`
	PingAttempts  int           `long:"ping-attempts" env:"BLOCKPARSER_CLICKHOUSE_PING_ATTEMPTS" default:"5" description:"connection attempts before giving up"`
	app           *app
}

func (c *clickhouseCommand) Execute([]string) error {
	if err := c.app.init(); err != nil {
		return err
	}

	repo, err := clickhouse.NewRepository(c.ClickhouseDSN, metrics.NewClickhouseRepository())
	if err != nil {
		return fmt.Errorf("init repository: %w", err)
	}
	defer func() {
		_ = repo.Close()
	}()
	err = clock.Retry(c.app.ctx, c.PingAttempts, 2*time.Second, func(ctx context.Context) error {
		if err := repo.Ping(ctx); err != nil {
			c.app.logger.Warn("clickhouse not ready", zap.Error(err))
			return err
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("connect clickhouse: %w", err)
	}

	params, err := c.app.params()
	if err != nil {
		return err
	}
	rng, err := c.app.heightRange()
	if err != nil {
		return err
	}
	if c.Resume {
		if rng, err = c.resume(repo, params, rng); err != nil {
			return err
		}
	}

	cb, err := callback.NewClickHouse(repo, c.app.logger,
		callback.WithBatchSize(c.BatchSize),
		callback.WithFlushInterval(c.FlushInterval),
	)
	if err != nil {
		return err
	}
	return c.app.run(params, rng, cb)
}

func (c *clickhouseCommand) resume(repo *clickhouse.Repository, params model.CoinParams, rng model.HeightRange) (model.HeightRange, error) {
	height, ok, err := repo.MaxBlockHeight(c.app.ctx, params.Coin, params.Network)
	if err != nil {
		return rng, err
	}
	if !ok {
		return rng, nil
	}
	if height+1 > rng.Start {
		rng.Start = height + 1
	}
	if rng.Start > rng.End {
		return rng, fmt.Errorf("nothing to resume: stored height %d reaches end %d", height, rng.End)
	}
	c.app.logger.Info("resuming after stored blocks", zap.Uint64("stored_height", height), zap.Uint64("start", rng.Start))
	return rng, nil
}

// execute builds the callback of a command and runs it over the selected range.
func (a *app) execute(build func(*zap.Logger) (callback.Callback, error)) error {
	if err := a.init(); err != nil {
		return err
	}
	params, err := a.params()
	if err != nil {
		return err
	}
	rng, err := a.heightRange()
	if err != nil {
		return err
	}
	cb, err := build(a.logger)
	if err != nil {
		return err
	}
	return a.run(params, rng, cb)
}

func addCommands(parser *flags.Parser, a *app) error {
	commands := []struct {
		name, short, long string
		data              any
	}{
		{"sigdump", "Dump signatures", "Writes r, s, public key, txid and signed digest of every standard signature to signatures-<start>-<end>.csv", &sigdumpCommand{app: a}},
		{"csvdump", "Dump the chain as CSV", "Writes blocks, transactions, tx_in and tx_out CSV files", &csvdumpCommand{app: a}},
		{"unspentcsvdump", "Dump unspent outputs", "Writes the outputs still unspent at the end of the range to unspent-<start>-<end>.csv", &unspentCommand{app: a}},
		{"balances", "Dump address balances", "Writes the unspent balance of every address to balances-<start>-<end>.csv", &balancesCommand{app: a}},
		{"simplestats", "Log chain statistics", "Counts blocks, transactions, inputs, outputs and script types", &simplestatsCommand{app: a}},
		{"clickhouse", "Write the chain to ClickHouse", "Inserts blocks, transactions, inputs and outputs into ClickHouse", &clickhouseCommand{app: a}},
	}
	for _, c := range commands {
		if _, err := parser.AddCommand(c.name, c.short, c.long, c.data); err != nil {
			return fmt.Errorf("add command %s: %w", c.name, err)
		}
	}
	return nil
}
