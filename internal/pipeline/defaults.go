package pipeline

const (
	defaultWorkerCount = 8
	// defaultReadAhead bounds decoded blocks waiting for delivery.
	defaultReadAhead = 64
	maxReadAhead     = 4096

	progressLogInterval uint64 = 10_000
)
