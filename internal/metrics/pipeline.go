// Package metrics exposes application metrics collectors.
package metrics

import (
	"time"

	"github.com/goodnatureofminers/blockinsight7000-blockparser/internal/model"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	pipelineIndexLoadTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "blockinsight7000",
		Subsystem: "blockparser_pipeline",
		Name:      "index_load_total",
		Help:      "Count of block index loads.",
	}, []string{"coin", "network", "status"})

	pipelineIndexRecords = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "blockinsight7000",
		Subsystem: "blockparser_pipeline",
		Name:      "index_records",
		Help:      "Number of records in the loaded block index.",
	}, []string{"coin", "network"})

	pipelineIndexLoadDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "blockinsight7000",
		Subsystem: "blockparser_pipeline",
		Name:      "index_load_duration_seconds",
		Help:      "Duration of loading the block index.",
		Buckets:   []float64{.1, .5, 1, 2.5, 5, 10, 30, 60, 120, 300},
	}, []string{"coin", "network", "status"})

	pipelineFetchBlockTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "blockinsight7000",
		Subsystem: "blockparser_pipeline",
		Name:      "fetch_block_total",
		Help:      "Count of block reads with decoding.",
	}, []string{"coin", "network", "status"})

	pipelineFetchBlockDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "blockinsight7000",
		Subsystem: "blockparser_pipeline",
		Name:      "fetch_block_duration_seconds",
		Help:      "Duration of reading and decoding a block.",
		Buckets:   []float64{.0005, .001, .0025, .005, .01, .025, .05, .1, .25, .5, 1},
	}, []string{"coin", "network", "status"})

	pipelineDeliverBlockTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "blockinsight7000",
		Subsystem: "blockparser_pipeline",
		Name:      "deliver_block_total",
		Help:      "Count of blocks handed to the callback.",
	}, []string{"coin", "network", "status"})

	pipelineDeliverBlockDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "blockinsight7000",
		Subsystem: "blockparser_pipeline",
		Name:      "deliver_block_duration_seconds",
		Help:      "Duration of the callback for one block.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"coin", "network", "status"})

	pipelineSkippedBlocksTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "blockinsight7000",
		Subsystem: "blockparser_pipeline",
		Name:      "skipped_blocks_total",
		Help:      "Count of blocks skipped by the error policy.",
	}, []string{"coin", "network", "reason"})

	pipelineHeight = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "blockinsight7000",
		Subsystem: "blockparser_pipeline",
		Name:      "height",
		Help:      "Height of the last delivered block.",
	}, []string{"coin", "network"})
)

// Pipeline tracks metrics for one parser run.
type Pipeline struct {
	coin    string
	network string
}

func NewPipeline(coin model.Coin, network model.Network) *Pipeline {
	if coin == "" {
		coin = "unknown"
	}
	if network == "" {
		network = "unknown"
	}
	return &Pipeline{coin: string(coin), network: string(network)}
}

func status(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}

// ObserveIndexLoad records loading of the block index.
func (m Pipeline) ObserveIndexLoad(err error, records int, started time.Time) {
	s := status(err)
	pipelineIndexLoadTotal.WithLabelValues(m.coin, m.network, s).Inc()
	pipelineIndexLoadDuration.WithLabelValues(m.coin, m.network, s).Observe(time.Since(started).Seconds())
	if err == nil {
		pipelineIndexRecords.WithLabelValues(m.coin, m.network).Set(float64(records))
	}
}

// ObserveFetchBlock records reading and decoding of one block.
func (m Pipeline) ObserveFetchBlock(err error, _ uint64, started time.Time) {
	s := status(err)
	pipelineFetchBlockTotal.WithLabelValues(m.coin, m.network, s).Inc()
	pipelineFetchBlockDuration.WithLabelValues(m.coin, m.network, s).Observe(time.Since(started).Seconds())
}

// ObserveDeliverBlock records one callback invocation.
func (m Pipeline) ObserveDeliverBlock(err error, height uint64, started time.Time) {
	s := status(err)
	pipelineDeliverBlockTotal.WithLabelValues(m.coin, m.network, s).Inc()
	pipelineDeliverBlockDuration.WithLabelValues(m.coin, m.network, s).Observe(time.Since(started).Seconds())
	if err == nil {
		pipelineHeight.WithLabelValues(m.coin, m.network).Set(float64(height))
	}
}

// ObserveSkippedBlock records a block dropped by the error policy.
func (m Pipeline) ObserveSkippedBlock(reason string) {
	pipelineSkippedBlocksTotal.WithLabelValues(m.coin, m.network, reason).Inc()
}
