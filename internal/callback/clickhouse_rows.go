package callback

import (
	"encoding/hex"
	"fmt"

	"github.com/goodnatureofminers/blockinsight7000-blockparser/internal/block"
	"github.com/goodnatureofminers/blockinsight7000-blockparser/internal/model"
	"github.com/goodnatureofminers/blockinsight7000-blockparser/pkg/safe"
)

// rows converts blk into ClickHouse rows and advances the unspent set.
// Input values and addresses are filled for outputs created earlier in the
// run.
func (c *ClickHouse) rows(blk *block.Block, height uint64) (model.InsertBlock, error) {
	size, err := safe.Uint32(blk.Size)
	if err != nil {
		return model.InsertBlock{}, fmt.Errorf("block size: %w", err)
	}
	txCount, err := safe.Uint32(len(blk.Transactions))
	if err != nil {
		return model.InsertBlock{}, fmt.Errorf("tx count: %w", err)
	}

	ts := blk.Header.Time()
	result := model.InsertBlock{
		Block: model.Block{
			Coin:       c.coin.Coin,
			Network:    c.coin.Network,
			Height:     height,
			Hash:       blk.Hash.String(),
			PrevHash:   blk.Header.PrevHash.String(),
			Timestamp:  ts,
			Version:    blk.Header.Version,
			MerkleRoot: blk.Header.MerkleRoot.String(),
			Bits:       blk.Header.Bits,
			Nonce:      blk.Header.Nonce,
			Size:       size,
			TXCount:    txCount,
		},
		Txs: make([]model.Transaction, 0, len(blk.Transactions)),
	}

	for i := range blk.Transactions {
		tx := &blk.Transactions[i]
		txid := tx.TxID.String()

		txSize, err := safe.Uint32(tx.Size)
		if err != nil {
			return model.InsertBlock{}, fmt.Errorf("tx %s size: %w", txid, err)
		}
		inCount, err := safe.Uint32(len(tx.Inputs))
		if err != nil {
			return model.InsertBlock{}, fmt.Errorf("tx %s input count: %w", txid, err)
		}
		outCount, err := safe.Uint32(len(tx.Outputs))
		if err != nil {
			return model.InsertBlock{}, fmt.Errorf("tx %s output count: %w", txid, err)
		}

		result.Txs = append(result.Txs, model.Transaction{
			Coin:        c.coin.Coin,
			Network:     c.coin.Network,
			TxID:        txid,
			BlockHeight: height,
			Timestamp:   ts,
			Size:        txSize,
			Version:     tx.Version,
			LockTime:    tx.LockTime,
			InputCount:  inCount,
			OutputCount: outCount,
			HasWitness:  tx.HasWitness,
		})

		spent := c.utxo.apply(tx, height)
		coinbase := tx.IsCoinbase()
		for idx, in := range tx.Inputs {
			row := model.TransactionInput{
				Coin:         c.coin.Coin,
				Network:      c.coin.Network,
				BlockHeight:  height,
				TxID:         txid,
				Index:        uint32(idx),
				PrevTxID:     in.PrevOut.TxID.String(),
				PrevVout:     in.PrevOut.Index,
				Sequence:     in.Sequence,
				IsCoinbase:   coinbase,
				ScriptSigHex: hex.EncodeToString(in.ScriptSig),
				Witness:      hexItems(in.Witness),
				Addresses:    []string{},
			}
			if !coinbase && spent[idx].Known {
				value, err := safe.Uint64(spent[idx].Value)
				if err != nil {
					return model.InsertBlock{}, fmt.Errorf("tx %s input %d value: %w", txid, idx, err)
				}
				row.Value = value
				if _, addrs, err := c.decoder.Decode(spent[idx].Script); err == nil && addrs != nil {
					row.Addresses = addrs
				}
			}
			result.Inputs = append(result.Inputs, row)
		}

		for idx, out := range tx.Outputs {
			value, err := safe.Uint64(out.Value)
			if err != nil {
				return model.InsertBlock{}, fmt.Errorf("tx %s output %d value: %w", txid, idx, err)
			}
			class, addrs, _ := c.decoder.Decode(out.ScriptPubKey)
			if addrs == nil {
				addrs = []string{}
			}
			result.Outputs = append(result.Outputs, model.TransactionOutput{
				Coin:        c.coin.Coin,
				Network:     c.coin.Network,
				BlockHeight: height,
				TxID:        txid,
				Index:       uint32(idx),
				Value:       value,
				ScriptType:  class,
				ScriptHex:   hex.EncodeToString(out.ScriptPubKey),
				Addresses:   addrs,
			})
		}
	}
	return result, nil
}

func hexItems(items [][]byte) []string {
	out := make([]string, len(items))
	for i, item := range items {
		out[i] = hex.EncodeToString(item)
	}
	return out
}
