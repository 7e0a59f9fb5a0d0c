package clickhouse

import (
	"context"

	"github.com/goodnatureofminers/blockinsight7000-blockparser/internal/model"
)

const insertBlocksQuery = `
INSERT INTO blockparser_blocks (
	coin,
	network,
	height,
	hash,
	prev_hash,
	timestamp,
	version,
	merkleroot,
	bits,
	nonce,
	size,
	tx_count
) VALUES`

var blockRows = rowSpec[model.Block]{
	operation: "insert_blocks",
	table:     "blocks",
	row:       "block",
	query:     insertBlocksQuery,
	values: func(b model.Block) []any {
		return []any{
			string(b.Coin),
			string(b.Network),
			b.Height,
			b.Hash,
			b.PrevHash,
			b.Timestamp,
			b.Version,
			b.MerkleRoot,
			b.Bits,
			b.Nonce,
			b.Size,
			b.TXCount,
		}
	},
}

// InsertBlocks stores block rows in ClickHouse.
func (r *Repository) InsertBlocks(ctx context.Context, blocks []model.Block) error {
	return insertRows(ctx, r, blockRows, blocks)
}
