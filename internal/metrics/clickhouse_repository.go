package metrics

import (
	"time"

	"github.com/goodnatureofminers/blockinsight7000-blockparser/internal/model"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	clickhouseRepositoryRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "blockinsight7000",
		Subsystem: "blockparser_clickhouse",
		Name:      "operations_total",
		Help:      "Count of repository operations.",
	}, []string{"operation", "coin", "network", "status"})
	clickhouseRepositoryRowsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "blockinsight7000",
		Subsystem: "blockparser_clickhouse",
		Name:      "rows_total",
		Help:      "Count of rows written by repository operations.",
	}, []string{"operation", "coin", "network"})
	clickhouseRepositoryRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "blockinsight7000",
		Subsystem: "blockparser_clickhouse",
		Name:      "operation_duration_seconds",
		Help:      "Duration of repository operations.",
		Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10, 15, 20, 30},
	}, []string{"operation", "coin", "network", "status"})
)

// ClickhouseRepository tracks metrics for ClickHouse inserts.
type ClickhouseRepository struct{}

func NewClickhouseRepository() *ClickhouseRepository {
	return &ClickhouseRepository{}
}

// Observe records an insert of rows rows.
func (m ClickhouseRepository) Observe(operation string, coin model.Coin, network model.Network, rows int, err error, started time.Time) {
	if coin == "" {
		coin = "unknown"
	}
	if network == "" {
		network = "unknown"
	}
	s := status(err)

	clickhouseRepositoryRequestsTotal.WithLabelValues(operation, string(coin), string(network), s).Inc()
	clickhouseRepositoryRequestDuration.WithLabelValues(operation, string(coin), string(network), s).Observe(time.Since(started).Seconds())
	if err == nil {
		clickhouseRepositoryRowsTotal.WithLabelValues(operation, string(coin), string(network)).Add(float64(rows))
	}
}
