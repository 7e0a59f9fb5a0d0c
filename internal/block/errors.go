package block

import (
	"errors"
	"fmt"
)

var (
	ErrTrailingData    = errors.New("trailing data after last transaction")
	ErrCountTooLarge   = errors.New("count exceeds remaining data")
	ErrUnknownTxFlag   = errors.New("unknown transaction flag")
	ErrNoTransactions  = errors.New("block has no transactions")
	ErrTxCountMismatch = errors.New("transaction count differs from index")
	ErrHashMismatch    = errors.New("header hash differs from index")
)

// HeaderIndex marks a failure that is not tied to a single transaction.
const HeaderIndex = -1

// MalformedTransactionError reports a block that could not be decoded.
// Index is the position of the failing transaction, or HeaderIndex.
type MalformedTransactionError struct {
	Index  int
	Offset int
	Err    error
}

func (e *MalformedTransactionError) Error() string {
	if e.Index == HeaderIndex {
		return fmt.Sprintf("malformed block at offset %d: %v", e.Offset, e.Err)
	}
	return fmt.Sprintf("malformed transaction %d at offset %d: %v", e.Index, e.Offset, e.Err)
}

func (e *MalformedTransactionError) Unwrap() error { return e.Err }
