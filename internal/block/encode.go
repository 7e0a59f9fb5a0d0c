package block

import (
	"encoding/binary"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/goodnatureofminers/blockinsight7000-blockparser/internal/encoding"
)

// AppendTo appends the 80-byte serialization of h.
func (h *Header) AppendTo(dst []byte) []byte {
	dst = binary.LittleEndian.AppendUint32(dst, uint32(h.Version))
	dst = append(dst, h.PrevHash[:]...)
	dst = append(dst, h.MerkleRoot[:]...)
	dst = binary.LittleEndian.AppendUint32(dst, h.Timestamp)
	dst = binary.LittleEndian.AppendUint32(dst, h.Bits)
	return binary.LittleEndian.AppendUint32(dst, h.Nonce)
}

func (h *Header) Serialize() []byte {
	return h.AppendTo(make([]byte, 0, HeaderSize))
}

// Serialize encodes tx in the layout it was decoded from.
func (tx *Transaction) Serialize() []byte {
	return tx.appendTo(nil, tx.HasWitness)
}

// SerializeNoWitness encodes tx without marker, flag and witness data.
func (tx *Transaction) SerializeNoWitness() []byte {
	return tx.appendTo(nil, false)
}

// ComputeTxID hashes the witness-stripped serialization.
func (tx *Transaction) ComputeTxID() chainhash.Hash {
	return chainhash.DoubleHashH(tx.SerializeNoWitness())
}

func (tx *Transaction) appendTo(dst []byte, witness bool) []byte {
	dst = binary.LittleEndian.AppendUint32(dst, uint32(tx.Version))
	if witness {
		dst = append(dst, witnessMarker, witnessFlag)
	}

	dst = encoding.AppendCompactSize(dst, uint64(len(tx.Inputs)))
	for i := range tx.Inputs {
		in := &tx.Inputs[i]
		dst = append(dst, in.PrevOut.TxID[:]...)
		dst = binary.LittleEndian.AppendUint32(dst, in.PrevOut.Index)
		dst = encoding.AppendVarSlice(dst, in.ScriptSig)
		dst = binary.LittleEndian.AppendUint32(dst, in.Sequence)
	}

	dst = encoding.AppendCompactSize(dst, uint64(len(tx.Outputs)))
	for i := range tx.Outputs {
		dst = binary.LittleEndian.AppendUint64(dst, uint64(tx.Outputs[i].Value))
		dst = encoding.AppendVarSlice(dst, tx.Outputs[i].ScriptPubKey)
	}

	if witness {
		for i := range tx.Inputs {
			dst = encoding.AppendCompactSize(dst, uint64(len(tx.Inputs[i].Witness)))
			for _, item := range tx.Inputs[i].Witness {
				dst = encoding.AppendVarSlice(dst, item)
			}
		}
	}

	return binary.LittleEndian.AppendUint32(dst, tx.LockTime)
}

// Serialize encodes the full block record.
func (b *Block) Serialize() []byte {
	dst := b.Header.AppendTo(make([]byte, 0, b.Size))
	dst = encoding.AppendCompactSize(dst, uint64(len(b.Transactions)))
	for i := range b.Transactions {
		dst = b.Transactions[i].appendTo(dst, b.Transactions[i].HasWitness)
	}
	return dst
}
