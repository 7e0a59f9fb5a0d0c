package clickhouse

import (
	"context"

	"github.com/goodnatureofminers/blockinsight7000-blockparser/internal/model"
)

const insertTransactionsQuery = `
INSERT INTO blockparser_transactions (
	coin,
	network,
	txid,
	block_height,
	timestamp,
	size,
	version,
	locktime,
	input_count,
	output_count,
	has_witness
) VALUES`

var transactionRows = rowSpec[model.Transaction]{
	operation: "insert_transactions",
	table:     "transactions",
	row:       "transaction",
	query:     insertTransactionsQuery,
	values: func(tx model.Transaction) []any {
		return []any{
			string(tx.Coin),
			string(tx.Network),
			tx.TxID,
			tx.BlockHeight,
			tx.Timestamp,
			tx.Size,
			tx.Version,
			tx.LockTime,
			tx.InputCount,
			tx.OutputCount,
			tx.HasWitness,
		}
	},
}

// InsertTransactions stores transaction rows in ClickHouse.
func (r *Repository) InsertTransactions(ctx context.Context, txs []model.Transaction) error {
	return insertRows(ctx, r, transactionRows, txs)
}
