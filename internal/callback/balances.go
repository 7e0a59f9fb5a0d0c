package callback

import (
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

// Balances sums the unspent outputs of every address at the end of the run
// and writes address;balance, largest first.
type Balances struct {
	dir    string
	logger *zap.Logger

	decoder *script.Decoder
	utxo    *unspentSet
	start   uint64
}

func NewBalances(dir string, logger *zap.Logger) (*Balances, error) {
	if dir == "" {
		return nil, errors.New("balances dump dir is required")
	}
	return &Balances{dir: dir, logger: logger.Named("balances")}, nil
}

func (b *Balances) OnStart(_ context.Context, coin model.CoinParams, rng model.HeightRange) error {
	decoder, err := script.NewDecoder(coin.Params)
	if err != nil {
		return fmt.Errorf("balances: %w", err)
	}
	b.decoder = decoder
	b.utxo = newUnspentSet()
	b.start = rng.Start
	b.logger.Info("collecting balances", zap.String("dir", b.dir), zap.Uint64("start", rng.Start), zap.Uint64("end", rng.End))
	return nil
}

func (b *Balances) OnBlock(_ context.Context, blk *block.Block, height uint64) error {
	for i := range blk.Transactions {
		b.utxo.apply(&blk.Transactions[i], height)
	}
	return nil
}

type balance struct {
	address string
	value   int64
}

func (b *Balances) balances() []balance {
	sums := make(map[string]int64)
	for _, out := range b.utxo.outputs {
		addr := b.decoder.Address(out.Script)
		if addr == "" {
			continue
		}
		sums[addr] += out.Value
	}

	result := make([]balance, 0, len(sums))
	for addr, value := range sums {
		result = append(result, balance{address: addr, value: value})
	}
	slices.SortFunc(result, func(x, y balance) int {
		if c := cmp.Compare(y.value, x.value); c != 0 {
			return c
		}
		return cmp.Compare(x.address, y.address)
	})
	return result
}

func (b *Balances) OnComplete(_ context.Context, stats Stats) error {
	file, err := createCSV(b.dir, "balances")
	if err != nil {
		return err
	}
	defer func() {
		_ = file.close()
	}()

	for _, bal := range b.balances() {
		if err := file.write(bal.address, strconv.FormatInt(bal.value, 10)); err != nil {
			return err
		}
	}

	path, err := file.commit(b.start, stats.EndHeight())
	if err != nil {
		return err
	}
	b.logger.Info("balances dumped", zap.String("file", path), zap.Uint64("addresses", file.rows))
	return nil
}
