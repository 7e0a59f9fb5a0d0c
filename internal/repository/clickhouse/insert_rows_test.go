package clickhouse

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/golang/mock/gomock"

	"github.com/goodnatureofminers/blockinsight7000-blockparser/internal/model"
)

func TestRepository_InsertTransactionRows(t *testing.T) {
	ctx := context.Background()
	now := time.Unix(1700000000, 0).UTC()

	tx := model.Transaction{
		Coin: model.BTC, Network: model.Regtest, TxID: "tx", BlockHeight: 5, Timestamp: now,
		Size: 200, Version: 2, LockTime: 0, InputCount: 1, OutputCount: 2, HasWitness: true,
	}
	input := model.TransactionInput{
		Coin: model.BTC, Network: model.Regtest, BlockHeight: 5, TxID: "tx", Index: 0,
		PrevTxID: "prev", PrevVout: 1, Sequence: 0xffffffff, Value: 5000,
		ScriptSigHex: "00", Witness: []string{"aa"}, Addresses: []string{"addr"},
	}
	output := model.TransactionOutput{
		Coin: model.BTC, Network: model.Regtest, BlockHeight: 5, TxID: "tx", Index: 1,
		Value: 4000, ScriptType: "pubkeyhash", ScriptHex: "76a9", Addresses: []string{"addr"},
	}

	type insertCase struct {
		operation string
		query     string
		args      []any
		insert    func(r *Repository) error
	}
	cases := map[string]insertCase{
		"transactions": {
			operation: "insert_transactions",
			query:     insertTransactionsQuery,
			args: []any{
				string(tx.Coin), string(tx.Network), tx.TxID, tx.BlockHeight, tx.Timestamp,
				tx.Size, tx.Version, tx.LockTime, tx.InputCount, tx.OutputCount, tx.HasWitness,
			},
			insert: func(r *Repository) error { return r.InsertTransactions(ctx, []model.Transaction{tx}) },
		},
		"inputs": {
			operation: "insert_transaction_inputs",
			query:     insertTransactionInputsQuery,
			args: []any{
				string(input.Coin), string(input.Network), input.BlockHeight, input.TxID, input.Index,
				input.PrevTxID, input.PrevVout, input.Sequence, input.IsCoinbase, input.Value,
				input.ScriptSigHex, input.Witness, input.Addresses,
			},
			insert: func(r *Repository) error { return r.InsertTransactionInputs(ctx, []model.TransactionInput{input}) },
		},
		"outputs": {
			operation: "insert_transaction_outputs",
			query:     insertTransactionOutputsQuery,
			args: []any{
				string(output.Coin), string(output.Network), output.BlockHeight, output.TxID, output.Index,
				output.Value, output.ScriptType, output.ScriptHex, output.Addresses,
			},
			insert: func(r *Repository) error { return r.InsertTransactionOutputs(ctx, []model.TransactionOutput{output}) },
		},
	}

	for name, c := range cases {
		t.Run(name+"/success", func(t *testing.T) {
			ctrl := gomock.NewController(t)
			mockConn := NewMockConn(ctrl)
			mockBatch := NewMockBatch(ctrl)
			mockMetrics := NewMockMetrics(ctrl)

			gomock.InOrder(
				mockConn.EXPECT().PrepareBatch(ctx, c.query).Return(mockBatch, nil),
				mockBatch.EXPECT().Append(c.args...).Return(nil),
				mockBatch.EXPECT().Send().Return(nil),
				mockMetrics.EXPECT().Observe(c.operation, model.BTC, model.Regtest, 1, nil, gomock.AssignableToTypeOf(time.Time{})),
			)

			if err := c.insert(&Repository{conn: mockConn, metrics: mockMetrics}); err != nil {
				t.Fatalf("insert error = %v", err)
			}
		})

		t.Run(name+"/send error", func(t *testing.T) {
			ctrl := gomock.NewController(t)
			mockConn := NewMockConn(ctrl)
			mockBatch := NewMockBatch(ctrl)
			mockMetrics := NewMockMetrics(ctrl)
			sendErr := errors.New("send failed")

			gomock.InOrder(
				mockConn.EXPECT().PrepareBatch(ctx, c.query).Return(mockBatch, nil),
				mockBatch.EXPECT().Append(c.args...).Return(nil),
				mockBatch.EXPECT().Send().Return(sendErr),
				mockMetrics.EXPECT().
					Observe(c.operation, model.BTC, model.Regtest, 1, gomock.Any(), gomock.AssignableToTypeOf(time.Time{})).
					Do(func(_ string, _ model.Coin, _ model.Network, _ int, err error, _ time.Time) {
						if !errors.Is(err, sendErr) {
							t.Fatalf("unexpected error in metrics: %v", err)
						}
					}),
			)

			err := c.insert(&Repository{conn: mockConn, metrics: mockMetrics})
			if !errors.Is(err, sendErr) {
				t.Fatalf("insert error = %v, want %v", err, sendErr)
			}
		})

		t.Run(name+"/append error", func(t *testing.T) {
			ctrl := gomock.NewController(t)
			mockConn := NewMockConn(ctrl)
			mockBatch := NewMockBatch(ctrl)
			mockMetrics := NewMockMetrics(ctrl)
			appendErr := errors.New("append failed")

			gomock.InOrder(
				mockConn.EXPECT().PrepareBatch(ctx, c.query).Return(mockBatch, nil),
				mockBatch.EXPECT().Append(c.args...).Return(appendErr),
				mockBatch.EXPECT().Abort().Return(nil),
				mockMetrics.EXPECT().Observe(c.operation, model.BTC, model.Regtest, 1, gomock.Any(), gomock.Any()),
			)

			err := c.insert(&Repository{conn: mockConn, metrics: mockMetrics})
			if !errors.Is(err, appendErr) {
				t.Fatalf("insert error = %v, want %v", err, appendErr)
			}
		})
	}
}
