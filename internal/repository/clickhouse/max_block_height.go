package clickhouse

import (
	"context"
	"fmt"
	"time"

	"github.com/goodnatureofminers/blockinsight7000-blockparser/internal/model"
)

const maxBlockHeightQuery = `
SELECT max(height) AS max_height, count() AS blocks
FROM blockparser_blocks
WHERE coin = ? AND network = ?`

// MaxBlockHeight returns the highest stored height for a coin and network.
// ok is false when nothing is stored.
func (r *Repository) MaxBlockHeight(ctx context.Context, coin model.Coin, network model.Network) (height uint64, ok bool, err error) {
	start := time.Now()
	defer func() {
		r.metrics.Observe("max_block_height", coin, network, 1, err, start)
	}()

	rows, err := r.conn.Query(ctx, maxBlockHeightQuery, string(coin), string(network))
	if err != nil {
		return 0, false, fmt.Errorf("query max block height: %w", err)
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("close rows: %w", closeErr)
		}
	}()

	if !rows.Next() {
		return 0, false, fmt.Errorf("max block height not found")
	}

	var count uint64
	if err = rows.Scan(&height, &count); err != nil {
		return 0, false, fmt.Errorf("scan max block height: %w", err)
	}
	if err = rows.Err(); err != nil {
		return 0, false, fmt.Errorf("iterate max block height: %w", err)
	}

	return height, count > 0, nil
}
