package callback

import (
	"bytes"
	"cmp"
	"context"
	"errors"
	"fmt"
	"slices"
	"strconv"

	"github.com/goodnatureofminers/blockinsight7000-blockparser/internal/block"
	"github.com/goodnatureofminers/blockinsight7000-blockparser/internal/model"
	"github.com/goodnatureofminers/blockinsight7000-blockparser/internal/script"
	"go.uber.org/zap"
)

// UnspentCSVDump tracks outputs over the run and writes the ones still
// unspent at the end: txid;indexOut;height;value;address.
type UnspentCSVDump struct {
	dir    string
	logger *zap.Logger

	decoder *script.Decoder
	utxo    *unspentSet
	start   uint64
}

func NewUnspentCSVDump(dir string, logger *zap.Logger) (*UnspentCSVDump, error) {
	if dir == "" {
		return nil, errors.New("unspentcsvdump dump dir is required")
	}
	return &UnspentCSVDump{dir: dir, logger: logger.Named("unspentcsvdump")}, nil
}

func (u *UnspentCSVDump) OnStart(_ context.Context, coin model.CoinParams, rng model.HeightRange) error {
	decoder, err := script.NewDecoder(coin.Params)
	if err != nil {
		return fmt.Errorf("unspentcsvdump: %w", err)
	}
	u.decoder = decoder
	u.utxo = newUnspentSet()
	u.start = rng.Start
	u.logger.Info("tracking unspent outputs", zap.String("dir", u.dir), zap.Uint64("start", rng.Start), zap.Uint64("end", rng.End))
	return nil
}

func (u *UnspentCSVDump) OnBlock(_ context.Context, blk *block.Block, height uint64) error {
	for i := range blk.Transactions {
		u.utxo.apply(&blk.Transactions[i], height)
	}
	return nil
}

func (u *UnspentCSVDump) OnComplete(_ context.Context, stats Stats) error {
	file, err := createCSV(u.dir, "unspent")
	if err != nil {
		return err
	}
	defer func() {
		_ = file.close()
	}()

	var value int64
	for _, e := range sortedUnspent(u.utxo) {
		if err := file.write(
			e.op.TxID.String(),
			strconv.FormatUint(uint64(e.op.Index), 10),
			strconv.FormatUint(e.out.Height, 10),
			strconv.FormatInt(e.out.Value, 10),
			u.decoder.Address(e.out.Script),
		); err != nil {
			return err
		}
		value += e.out.Value
	}

	path, err := file.commit(u.start, stats.EndHeight())
	if err != nil {
		return err
	}
	u.logger.Info("unspent outputs dumped",
		zap.String("file", path),
		zap.Uint64("outputs", file.rows),
		zap.Int64("value", value),
	)
	return nil
}

type unspentEntry struct {
	op  block.OutPoint
	out unspentOutput
}

// sortedUnspent orders the set by height, then txid, then output index.
func sortedUnspent(u *unspentSet) []unspentEntry {
	entries := make([]unspentEntry, 0, u.len())
	for op, out := range u.outputs {
		entries = append(entries, unspentEntry{op: op, out: out})
	}
	slices.SortFunc(entries, func(a, b unspentEntry) int {
		if c := cmp.Compare(a.out.Height, b.out.Height); c != 0 {
			return c
		}
		if c := bytes.Compare(a.op.TxID[:], b.op.TxID[:]); c != 0 {
			return c
		}
		return cmp.Compare(a.op.Index, b.op.Index)
	})
	return entries
}
