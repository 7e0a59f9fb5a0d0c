package main

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/goodnatureofminers/blockinsight7000-blockparser/internal/blockfile"
	"github.com/goodnatureofminers/blockinsight7000-blockparser/internal/callback"
	"github.com/goodnatureofminers/blockinsight7000-blockparser/internal/index"
	"github.com/goodnatureofminers/blockinsight7000-blockparser/internal/metrics"
	"github.com/goodnatureofminers/blockinsight7000-blockparser/internal/model"
	"github.com/goodnatureofminers/blockinsight7000-blockparser/internal/pipeline"
	"go.uber.org/zap"
)

// options are shared by every command.
type options struct {
	Coin         string `long:"coin" env:"BLOCKPARSER_COIN" default:"BTC" description:"coin name (BTC, LTC)"`
	Network      string `long:"network" env:"BLOCKPARSER_NETWORK" default:"mainnet" description:"network name (mainnet, testnet, regtest, signet)"`
	DataDir      string `long:"datadir" env:"BLOCKPARSER_DATADIR" description:"node data directory; defaults to the coin's standard location"`
	IndexDir     string `long:"index-dir" env:"BLOCKPARSER_INDEX_DIR" description:"block index directory; overrides --datadir"`
	BlocksDir    string `long:"blocks-dir" env:"BLOCKPARSER_BLOCKS_DIR" description:"blk*.dat directory; overrides --datadir"`
	Start        uint64 `long:"start" env:"BLOCKPARSER_START" default:"0" description:"first height to deliver"`
	End          int64  `long:"end" env:"BLOCKPARSER_END" default:"-1" description:"last height to deliver; -1 means the chain tip"`
	Workers      int    `long:"workers" env:"BLOCKPARSER_WORKERS" default:"8" description:"concurrent block readers"`
	ReadAhead    int    `long:"read-ahead" env:"BLOCKPARSER_READ_AHEAD" default:"64" description:"blocks read ahead of delivery"`
	MaxOpen      int    `long:"max-open-files" env:"BLOCKPARSER_MAX_OPEN_FILES" default:"32" description:"block files kept open"`
	Strict       bool   `long:"strict" env:"BLOCKPARSER_STRICT" description:"abort on unreadable or malformed blocks instead of skipping them"`
	Granularity  string `long:"granularity" env:"BLOCKPARSER_GRANULARITY" default:"block" choice:"block" choice:"transaction" description:"unit dropped when a block is malformed"`
	Verify       bool   `long:"verify" env:"BLOCKPARSER_VERIFY" description:"check merkle roots of stored blocks before the run"`
	AllowMissing bool   `long:"allow-missing-data" env:"BLOCKPARSER_ALLOW_MISSING_DATA" description:"select the best chain among all known headers, skipping blocks without data on disk"`
	MetricsAddr  string `long:"metrics-addr" env:"BLOCKPARSER_METRICS_ADDR" description:"address for the metrics server; disabled when empty"`
	LogLevel     string `long:"log-level" env:"BLOCKPARSER_LOG_LEVEL" default:"info" description:"log level"`
}

type app struct {
	ctx    context.Context
	opts   options
	logger *zap.Logger
}

func (a *app) init() error {
	if a.logger != nil {
		return nil
	}
	logger, err := newLogger(a.opts.LogLevel)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	a.logger = logger
	return nil
}

func (a *app) sync() {
	if a.logger != nil {
		_ = a.logger.Sync()
	}
}

func (a *app) params() (model.CoinParams, error) {
	return model.ParamsFor(model.Coin(a.opts.Coin), model.Network(a.opts.Network))
}

func (a *app) heightRange() (model.HeightRange, error) {
	rng := model.HeightRange{Start: a.opts.Start, End: model.TipHeight}
	switch {
	case a.opts.End < -1:
		return rng, fmt.Errorf("invalid end height %d", a.opts.End)
	case a.opts.End >= 0:
		rng.End = uint64(a.opts.End)
		if rng.End < rng.Start {
			return rng, fmt.Errorf("end height %d is below start %d", rng.End, rng.Start)
		}
	}
	return rng, nil
}

func (a *app) pipelineConfig() (pipeline.Config, error) {
	granularity, err := pipeline.ParseGranularity(a.opts.Granularity)
	if err != nil {
		return pipeline.Config{}, err
	}
	return pipeline.Config{
		Workers:     a.opts.Workers,
		ReadAhead:   a.opts.ReadAhead,
		Strict:      a.opts.Strict,
		Granularity: granularity,
		Verify:      a.opts.Verify,
		RequireData: !a.opts.AllowMissing,
	}, nil
}

// run streams the selected range through cb.
func (a *app) run(params model.CoinParams, rng model.HeightRange, cb callback.Callback) error {
	if closer, ok := cb.(io.Closer); ok {
		defer func() {
			if err := closer.Close(); err != nil {
				a.logger.Warn("close callback", zap.Error(err))
			}
		}()
	}

	cfg, err := a.pipelineConfig()
	if err != nil {
		return err
	}
	if a.opts.MetricsAddr != "" {
		startMetricsServer(a.ctx, a.opts.MetricsAddr, a.logger)
	}

	indexDir := a.opts.IndexDir
	if indexDir == "" {
		indexDir = params.IndexDir(a.opts.DataDir)
	}
	blocksDir := a.opts.BlocksDir
	if blocksDir == "" {
		blocksDir = params.BlocksDir(a.opts.DataDir)
	}
	a.logger.Info("opening node data",
		zap.String("coin", string(params.Coin)),
		zap.String("network", string(params.Network)),
		zap.String("index_dir", indexDir),
		zap.String("blocks_dir", blocksDir),
	)

	store, err := index.OpenLevelDB(indexDir)
	if err != nil {
		return err
	}
	defer func() {
		_ = store.Close()
	}()

	blocks, err := blockfile.NewReader(blocksDir, params.Magic,
		blockfile.WithMaxOpenFiles(a.opts.MaxOpen),
		blockfile.WithLogger(a.logger),
	)
	if err != nil {
		return fmt.Errorf("open block files: %w", err)
	}
	defer func() {
		_ = blocks.Close()
	}()

	d, err := pipeline.NewDriver(
		index.NewReader(store, a.logger),
		blocks,
		cb,
		metrics.NewPipeline(params.Coin, params.Network),
		cfg,
		a.logger,
	)
	if err != nil {
		return err
	}

	if err := d.Start(a.ctx, params, rng); err != nil {
		return err
	}
	if err := d.Run(a.ctx); err != nil {
		var runErr *pipeline.RunError
		if errors.As(err, &runErr) && runErr.HasDelivered {
			a.logger.Error("last delivered height", zap.Uint64("height", runErr.LastHeight))
		}
		return err
	}

	// The run context may be cancelled by now; completion still has to
	// flush and rename outputs.
	_, err = d.Finish(context.WithoutCancel(a.ctx))
	return err
}
