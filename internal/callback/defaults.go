package callback

import "time"

const (
	csvBufferSize = 4 << 20

	clickhouseBatchSize     = 1000
	clickhouseFlushInterval = 30 * time.Second
	clickhouseFlushRPS      = 20
	inputFlushThreshold     = 10_000
	outputFlushThreshold    = 10_000
)
