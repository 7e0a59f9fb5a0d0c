package callback

import (
	"context"
	"fmt"
	"maps"
	"slices"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/goodnatureofminers/blockinsight7000-blockparser/internal/block"
	"github.com/goodnatureofminers/blockinsight7000-blockparser/internal/model"
	"github.com/goodnatureofminers/blockinsight7000-blockparser/internal/script"
	"go.uber.org/zap"
)

// StatsReport is what SimpleStats gathered over a run.
type StatsReport struct {
	Blocks              uint64
	Transactions        uint64
	Inputs              uint64
	Outputs             uint64
	WitnessTransactions uint64
	// OutputValue sums every output, coinbases included.
	OutputValue int64

	LargestTx      chainhash.Hash
	LargestTxValue int64
	MostInputsTx   chainhash.Hash
	MostInputs     int

	ScriptTypes map[string]uint64
}

// AvgTxPerBlock is zero when no block was seen.
func (r StatsReport) AvgTxPerBlock() float64 {
	if r.Blocks == 0 {
		return 0
	}
	return float64(r.Transactions) / float64(r.Blocks)
}

// SimpleStats counts chain contents and logs a summary on completion.
type SimpleStats struct {
	logger  *zap.Logger
	decoder *script.Decoder
	report  StatsReport
}

func NewSimpleStats(logger *zap.Logger) *SimpleStats {
	return &SimpleStats{logger: logger.Named("simplestats")}
}

func (s *SimpleStats) OnStart(_ context.Context, coin model.CoinParams, rng model.HeightRange) error {
	decoder, err := script.NewDecoder(coin.Params)
	if err != nil {
		return fmt.Errorf("simplestats: %w", err)
	}
	s.decoder = decoder
	s.report = StatsReport{ScriptTypes: make(map[string]uint64)}
	s.logger.Info("collecting stats", zap.Uint64("start", rng.Start), zap.Uint64("end", rng.End))
	return nil
}

func (s *SimpleStats) OnBlock(_ context.Context, blk *block.Block, _ uint64) error {
	r := &s.report
	r.Blocks++
	for i := range blk.Transactions {
		tx := &blk.Transactions[i]
		r.Transactions++
		r.Inputs += uint64(len(tx.Inputs))
		r.Outputs += uint64(len(tx.Outputs))
		if tx.HasWitness {
			r.WitnessTransactions++
		}

		var value int64
		for _, out := range tx.Outputs {
			value += out.Value
			class, _, _ := s.decoder.Decode(out.ScriptPubKey)
			r.ScriptTypes[class]++
		}
		r.OutputValue += value

		if value > r.LargestTxValue {
			r.LargestTx, r.LargestTxValue = tx.TxID, value
		}
		if !tx.IsCoinbase() && len(tx.Inputs) > r.MostInputs {
			r.MostInputsTx, r.MostInputs = tx.TxID, len(tx.Inputs)
		}
	}
	return nil
}

func (s *SimpleStats) OnComplete(_ context.Context, stats Stats) error {
	r := s.report
	fields := []zap.Field{
		zap.Uint64("start", stats.StartHeight),
		zap.Uint64("end", stats.EndHeight()),
		zap.Uint64("blocks", r.Blocks),
		zap.Uint64("transactions", r.Transactions),
		zap.Uint64("inputs", r.Inputs),
		zap.Uint64("outputs", r.Outputs),
		zap.Uint64("witness_transactions", r.WitnessTransactions),
		zap.Float64("avg_tx_per_block", r.AvgTxPerBlock()),
		zap.Int64("output_value", r.OutputValue),
		zap.Stringer("largest_tx", r.LargestTx),
		zap.Int64("largest_tx_value", r.LargestTxValue),
		zap.Stringer("most_inputs_tx", r.MostInputsTx),
		zap.Int("most_inputs", r.MostInputs),
		zap.Uint64("skipped", stats.Skipped),
		zap.Duration("elapsed", stats.Duration),
	}
	for _, class := range slices.Sorted(maps.Keys(r.ScriptTypes)) {
		fields = append(fields, zap.Uint64("script_"+class, r.ScriptTypes[class]))
	}
	s.logger.Info("chain stats", fields...)
	return nil
}

// Report returns the counters gathered so far.
func (s *SimpleStats) Report() StatsReport {
	r := s.report
	r.ScriptTypes = maps.Clone(s.report.ScriptTypes)
	return r
}
