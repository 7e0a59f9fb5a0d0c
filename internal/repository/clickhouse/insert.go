package clickhouse

import (
	"context"
	"fmt"
	"time"

	"github.com/goodnatureofminers/blockinsight7000-blockparser/internal/model"
)

type scoped interface {
	Scope() (model.Coin, model.Network)
}

// rowSpec maps one row type onto an INSERT statement.
type rowSpec[T scoped] struct {
	// operation labels metrics.
	operation string
	// table and row name the rows in errors.
	table  string
	row    string
	query  string
	values func(T) []any
}

// insertRows writes rows as a single batch. A failed append aborts the batch.
func insertRows[T scoped](ctx context.Context, r *Repository, spec rowSpec[T], rows []T) (err error) {
	start := time.Now()
	defer func() {
		coin, network := firstScope(rows)
		r.metrics.Observe(spec.operation, coin, network, len(rows), err, start)
	}()

	if len(rows) == 0 {
		return nil
	}

	batch, err := r.conn.PrepareBatch(ctx, spec.query)
	if err != nil {
		return fmt.Errorf("prepare %s batch: %w", spec.table, err)
	}

	for _, row := range rows {
		if err = batch.Append(spec.values(row)...); err != nil {
			_ = batch.Abort()
			return fmt.Errorf("append %s: %w", spec.row, err)
		}
	}

	if err = batch.Send(); err != nil {
		return fmt.Errorf("insert %s: %w", spec.table, err)
	}
	return nil
}

func firstScope[T scoped](rows []T) (model.Coin, model.Network) {
	if len(rows) == 0 {
		return "", ""
	}
	return rows[0].Scope()
}
