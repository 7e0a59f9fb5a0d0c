package pipeline

import (
	"fmt"
	"strings"
)

// Granularity selects what a recoverable decode failure skips.
type Granularity int

const (
	// SkipBlock drops the whole block.
	SkipBlock Granularity = iota
	// SkipTransaction delivers the block cut before the failing transaction.
	SkipTransaction
)

func (g Granularity) String() string {
	switch g {
	case SkipBlock:
		return "block"
	case SkipTransaction:
		return "transaction"
	default:
		return fmt.Sprintf("granularity(%d)", int(g))
	}
}

// ParseGranularity accepts "block" or "transaction".
func ParseGranularity(s string) (Granularity, error) {
	switch strings.ToLower(s) {
	case "", "block":
		return SkipBlock, nil
	case "transaction", "tx":
		return SkipTransaction, nil
	default:
		return SkipBlock, fmt.Errorf("unknown granularity %q", s)
	}
}

type Config struct {
	// Workers read and decode blocks concurrently.
	Workers int
	// ReadAhead caps blocks claimed but not yet delivered.
	ReadAhead int
	// Strict makes file and decode failures fatal.
	Strict      bool
	Granularity Granularity
	// Verify checks every stored block's merkle root before the run.
	Verify bool
	// RequireData selects the best chain among fully stored blocks only.
	RequireData bool
}

func DefaultConfig() Config {
	return Config{
		Workers:     defaultWorkerCount,
		ReadAhead:   defaultReadAhead,
		RequireData: true,
	}
}

func (c Config) withDefaults() Config {
	if c.Workers <= 0 {
		c.Workers = defaultWorkerCount
	}
	if c.ReadAhead <= 0 {
		c.ReadAhead = defaultReadAhead
	}
	c.ReadAhead = min(c.ReadAhead, maxReadAhead)
	c.Workers = min(c.Workers, c.ReadAhead)
	return c
}
