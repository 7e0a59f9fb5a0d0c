// Package block decodes and serializes raw blocks and transactions.
package block

import (
	"time"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
)

// HeaderSize is the serialized size of a block header.
const HeaderSize = 80

type Header struct {
	Version    int32
	PrevHash   chainhash.Hash
	MerkleRoot chainhash.Hash
	Timestamp  uint32
	Bits       uint32
	Nonce      uint32
}

// Hash is the double SHA-256 of the serialized header.
func (h *Header) Hash() chainhash.Hash {
	return chainhash.DoubleHashH(h.Serialize())
}

// Time returns the header timestamp in UTC.
func (h *Header) Time() time.Time {
	return time.Unix(int64(h.Timestamp), 0).UTC()
}

type OutPoint struct {
	TxID  chainhash.Hash
	Index uint32
}

// IsNull reports whether the outpoint is the coinbase placeholder.
func (o OutPoint) IsNull() bool {
	return o.Index == 0xffffffff && o.TxID == chainhash.Hash{}
}

type TxIn struct {
	PrevOut   OutPoint
	ScriptSig []byte
	Sequence  uint32
	// Witness holds the input's stack items when the transaction uses the
	// segregated witness layout.
	Witness [][]byte
}

type TxOut struct {
	Value        int64
	ScriptPubKey []byte
}

type Transaction struct {
	Version  int32
	Inputs   []TxIn
	Outputs  []TxOut
	LockTime uint32

	// TxID is computed over the serialization without witness data.
	TxID       chainhash.Hash
	HasWitness bool
	// Size is the full serialized size, witness included.
	Size int
}

// IsCoinbase reports whether tx is the coinbase of its block.
func (tx *Transaction) IsCoinbase() bool {
	return len(tx.Inputs) == 1 && tx.Inputs[0].PrevOut.IsNull()
}

type Block struct {
	Header       Header
	Hash         chainhash.Hash
	Transactions []Transaction
	Size         int
	// Truncated is set by DecodeLenient when transactions after a
	// malformed one were dropped.
	Truncated bool
}

// TxIDs lists transaction ids in block order.
func (b *Block) TxIDs() []chainhash.Hash {
	ids := make([]chainhash.Hash, len(b.Transactions))
	for i := range b.Transactions {
		ids[i] = b.Transactions[i].TxID
	}
	return ids
}
