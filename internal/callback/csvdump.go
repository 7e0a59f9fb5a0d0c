package callback

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"

	"github.com/goodnatureofminers/blockinsight7000-blockparser/internal/block"
	"github.com/goodnatureofminers/blockinsight7000-blockparser/internal/model"
	"github.com/goodnatureofminers/blockinsight7000-blockparser/internal/script"
	"go.uber.org/zap"
)

// CSVDump writes blocks, transactions, inputs and outputs to four CSV files.
type CSVDump struct {
	dir    string
	logger *zap.Logger

	decoder *script.Decoder
	blocks  *csvFile
	txs     *csvFile
	inputs  *csvFile
	outputs *csvFile
	start   uint64
}

func NewCSVDump(dir string, logger *zap.Logger) (*CSVDump, error) {
	if dir == "" {
		return nil, errors.New("csvdump dump dir is required")
	}
	return &CSVDump{dir: dir, logger: logger.Named("csvdump")}, nil
}

func (c *CSVDump) OnStart(_ context.Context, coin model.CoinParams, rng model.HeightRange) (err error) {
	c.decoder, err = script.NewDecoder(coin.Params)
	if err != nil {
		return fmt.Errorf("csvdump: %w", err)
	}

	defer func() {
		if err != nil {
			_ = c.Close()
		}
	}()
	if c.blocks, err = createCSV(c.dir, "blocks"); err != nil {
		return err
	}
	if c.txs, err = createCSV(c.dir, "transactions"); err != nil {
		return err
	}
	if c.inputs, err = createCSV(c.dir, "tx_in"); err != nil {
		return err
	}
	if c.outputs, err = createCSV(c.dir, "tx_out"); err != nil {
		return err
	}

	c.start = rng.Start
	c.logger.Info("dumping chain", zap.String("dir", c.dir), zap.Uint64("start", rng.Start), zap.Uint64("end", rng.End))
	return nil
}

func (c *CSVDump) OnBlock(_ context.Context, blk *block.Block, height uint64) error {
	blockHash := blk.Hash.String()
	if err := c.blocks.write(
		blockHash,
		strconv.FormatUint(height, 10),
		strconv.FormatInt(int64(blk.Header.Version), 10),
		strconv.Itoa(blk.Size),
		blk.Header.PrevHash.String(),
		blk.Header.MerkleRoot.String(),
		strconv.FormatUint(uint64(blk.Header.Timestamp), 10),
		strconv.FormatUint(uint64(blk.Header.Bits), 10),
		strconv.FormatUint(uint64(blk.Header.Nonce), 10),
	); err != nil {
		return err
	}

	for i := range blk.Transactions {
		tx := &blk.Transactions[i]
		txid := tx.TxID.String()
		if err := c.txs.write(
			txid,
			blockHash,
			strconv.FormatInt(int64(tx.Version), 10),
			strconv.FormatUint(uint64(tx.LockTime), 10),
		); err != nil {
			return err
		}

		for _, in := range tx.Inputs {
			if err := c.inputs.write(
				txid,
				in.PrevOut.TxID.String(),
				strconv.FormatUint(uint64(in.PrevOut.Index), 10),
				hex.EncodeToString(in.ScriptSig),
				strconv.FormatUint(uint64(in.Sequence), 10),
			); err != nil {
				return err
			}
		}

		for idx, out := range tx.Outputs {
			if err := c.outputs.write(
				txid,
				strconv.Itoa(idx),
				strconv.FormatInt(out.Value, 10),
				hex.EncodeToString(out.ScriptPubKey),
				c.decoder.Address(out.ScriptPubKey),
			); err != nil {
				return err
			}
		}
	}
	return nil
}

func (c *CSVDump) OnComplete(_ context.Context, stats Stats) error {
	end := stats.EndHeight()
	for _, f := range []*csvFile{c.blocks, c.txs, c.inputs, c.outputs} {
		if _, err := f.commit(c.start, end); err != nil {
			return err
		}
	}
	c.logger.Info("chain dumped",
		zap.Uint64("start", c.start),
		zap.Uint64("end", end),
		zap.Uint64("blocks", c.blocks.rows),
		zap.Uint64("transactions", c.txs.rows),
		zap.Uint64("inputs", c.inputs.rows),
		zap.Uint64("outputs", c.outputs.rows),
		zap.Bool("partial", stats.Partial),
	)
	return nil
}

// Close releases the output files of a run that did not complete.
func (c *CSVDump) Close() error {
	return closeAll(c.blocks, c.txs, c.inputs, c.outputs)
}
