package chain

import (
	"errors"
	"fmt"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
)

var (
	ErrNoChain          = errors.New("no eligible chain tip")
	ErrRangeOutOfBounds = errors.New("height range outside the selected chain")
)

// BrokenChainError reports a record whose predecessor is not in the index.
type BrokenChainError struct {
	Hash     chainhash.Hash
	PrevHash chainhash.Hash
	Height   uint64
}

func (e *BrokenChainError) Error() string {
	return fmt.Sprintf("block %s at height %d references unknown block %s", e.Hash, e.Height, e.PrevHash)
}
