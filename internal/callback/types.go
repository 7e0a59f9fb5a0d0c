package callback

import (
	"context"

	"github.com/goodnatureofminers/blockinsight7000-blockparser/internal/model"
)

//go:generate mockgen -source=$GOFILE -destination=mocks_test.go -package=$GOPACKAGE

type (
	Repository interface {
		InsertBlocks(ctx context.Context, blocks []model.Block) error
		InsertTransactions(ctx context.Context, txs []model.Transaction) error
		InsertTransactionInputs(ctx context.Context, inputs []model.TransactionInput) error
		InsertTransactionOutputs(ctx context.Context, outputs []model.TransactionOutput) error
	}
)
