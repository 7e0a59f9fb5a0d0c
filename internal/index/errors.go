package index

import (
	"errors"
	"fmt"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
)

var (
	ErrNotFound  = errors.New("key not found")
	ErrBadKey    = errors.New("malformed block index key")
	ErrTrailing  = errors.New("trailing bytes in block index value")
	ErrKeyHash   = errors.New("header hash differs from key")
	ErrBadHeight = errors.New("height out of range")
)

// CorruptError reports a block index entry that cannot be trusted.
type CorruptError struct {
	Hash chainhash.Hash
	Err  error
}

func (e *CorruptError) Error() string {
	return fmt.Sprintf("block index entry %s corrupt: %v", e.Hash, e.Err)
}

func (e *CorruptError) Unwrap() error { return e.Err }

// MerkleMismatchError reports a stored block whose transactions do not
// hash to the merkle root of its header.
type MerkleMismatchError struct {
	Hash     chainhash.Hash
	Height   uint64
	Header   chainhash.Hash
	Computed chainhash.Hash
}

func (e *MerkleMismatchError) Error() string {
	return fmt.Sprintf("block %s at height %d: merkle root %s, computed %s",
		e.Hash, e.Height, e.Header, e.Computed)
}
