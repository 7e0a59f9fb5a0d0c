package clickhouse

import (
	"context"

	"github.com/goodnatureofminers/blockinsight7000-blockparser/internal/model"
)

const insertTransactionOutputsQuery = `
INSERT INTO blockparser_transaction_outputs (
	coin,
	network,
	block_height,
	txid,
	output_index,
	value,
	script_type,
	script_hex,
	addresses
) VALUES`

var transactionOutputRows = rowSpec[model.TransactionOutput]{
	operation: "insert_transaction_outputs",
	table:     "transaction outputs",
	row:       "transaction output",
	query:     insertTransactionOutputsQuery,
	values: func(out model.TransactionOutput) []any {
		return []any{
			string(out.Coin),
			string(out.Network),
			out.BlockHeight,
			out.TxID,
			out.Index,
			out.Value,
			out.ScriptType,
			out.ScriptHex,
			out.Addresses,
		}
	},
}

// InsertTransactionOutputs stores transaction outputs in ClickHouse.
func (r *Repository) InsertTransactionOutputs(ctx context.Context, outputs []model.TransactionOutput) error {
	return insertRows(ctx, r, transactionOutputRows, outputs)
}
