package pipeline

import (
	"context"
	"time"

	"github.com/goodnatureofminers/blockinsight7000-blockparser/internal/index"
	"github.com/goodnatureofminers/blockinsight7000-blockparser/internal/model"
)

//go:generate mockgen -source=$GOFILE -destination=mocks_test.go -package=$GOPACKAGE

type (
	IndexLoader interface {
		Load(ctx context.Context) (*index.Table, error)
	}
	BlockReader interface {
		Read(loc model.Locator) ([]byte, error)
	}
	Metrics interface {
		ObserveIndexLoad(err error, records int, started time.Time)
		ObserveFetchBlock(err error, height uint64, started time.Time)
		ObserveDeliverBlock(err error, height uint64, started time.Time)
		ObserveSkippedBlock(reason string)
	}
)
