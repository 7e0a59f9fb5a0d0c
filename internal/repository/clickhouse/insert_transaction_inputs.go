package clickhouse

import (
	"context"

	"github.com/goodnatureofminers/blockinsight7000-blockparser/internal/model"
)

const insertTransactionInputsQuery = `
INSERT INTO blockparser_transaction_inputs (
	coin,
	network,
	block_height,
	txid,
	input_index,
	prev_txid,
	prev_vout,
	sequence,
	is_coinbase,
	value,
	script_sig_hex,
	witness,
	addresses
) VALUES`

var transactionInputRows = rowSpec[model.TransactionInput]{
	operation: "insert_transaction_inputs",
	table:     "transaction inputs",
	row:       "transaction input",
	query:     insertTransactionInputsQuery,
	values: func(in model.TransactionInput) []any {
		return []any{
			string(in.Coin),
			string(in.Network),
			in.BlockHeight,
			in.TxID,
			in.Index,
			in.PrevTxID,
			in.PrevVout,
			in.Sequence,
			in.IsCoinbase,
			in.Value,
			in.ScriptSigHex,
			in.Witness,
			in.Addresses,
		}
	},
}

// InsertTransactionInputs stores transaction inputs in ClickHouse.
func (r *Repository) InsertTransactionInputs(ctx context.Context, inputs []model.TransactionInput) error {
	return insertRows(ctx, r, transactionInputRows, inputs)
}
