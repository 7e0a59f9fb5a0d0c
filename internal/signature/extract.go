package signature

import (
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/txscript"
	"github.com/goodnatureofminers/blockinsight7000-blockparser/internal/block"
)

// Record is one signature found in a transaction.
type Record struct {
	TxID       chainhash.Hash
	InputIndex int
	R          [32]byte
	S          [32]byte
	HighS      bool
	PubKey     []byte
	HashType   txscript.SigHashType
	// Digest is the signed message hash in signing byte order.
	Digest chainhash.Hash
}

// ScriptLookup returns the locking script of a spent output, or nil when
// it is unknown.
type ScriptLookup func(block.OutPoint) []byte

// ExtractTx returns the signatures of every input with a standard
// single-key unlocking script. Other inputs, including those with
// malformed DER, are skipped.
func ExtractTx(tx *block.Transaction, lookup ScriptLookup) []Record {
	if tx.IsCoinbase() {
		return nil
	}

	var records []Record
	for i := range tx.Inputs {
		in := &tx.Inputs[i]
		sig, err := ParseScriptSig(in.ScriptSig)
		if err != nil {
			continue
		}
		r, s, err := ParseDER(sig.DER)
		if err != nil {
			continue
		}

		var subscript []byte
		if lookup != nil {
			subscript = lookup(in.PrevOut)
		}
		records = append(records, Record{
			TxID:       tx.TxID,
			InputIndex: i,
			R:          r,
			S:          s,
			HighS:      IsHighS(s),
			PubKey:     sig.PubKey,
			HashType:   sig.HashType,
			Digest:     LegacySigHash(tx, i, subscript, sig.HashType),
		})
	}
	return records
}
