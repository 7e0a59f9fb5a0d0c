package signature

import (
	"encoding/binary"
	"io"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/txscript"
	"github.com/goodnatureofminers/blockinsight7000-blockparser/internal/block"
	"github.com/goodnatureofminers/blockinsight7000-blockparser/internal/encoding"
)

const sigHashMask = 0x1f

// singleOutOfRange is what legacy SIGHASH_SINGLE signs when the input has no
// matching output.
var singleOutOfRange = chainhash.Hash{0x01}

// LegacySigHash computes the pre-segwit digest signed by input idx of tx.
// subscript is the locking script of the spent output; OP_CODESEPARATOR
// opcodes are removed from it.
func LegacySigHash(tx *block.Transaction, idx int, subscript []byte, hashType txscript.SigHashType) chainhash.Hash {
	base := hashType & sigHashMask
	if base == txscript.SigHashSingle && idx >= len(tx.Outputs) {
		return singleOutOfRange
	}
	anyoneCanPay := hashType&txscript.SigHashAnyOneCanPay != 0
	subscript = removeCodeSeparators(subscript)

	return chainhash.DoubleHashRaw(func(w io.Writer) error {
		var buf []byte
		buf = binary.LittleEndian.AppendUint32(buf, uint32(tx.Version))

		if anyoneCanPay {
			buf = encoding.AppendCompactSize(buf, 1)
			buf = appendInput(buf, &tx.Inputs[idx], subscript, tx.Inputs[idx].Sequence)
		} else {
			buf = encoding.AppendCompactSize(buf, uint64(len(tx.Inputs)))
			for i := range tx.Inputs {
				in := &tx.Inputs[i]
				script, sequence := []byte(nil), in.Sequence
				if i == idx {
					script = subscript
				} else if base == txscript.SigHashNone || base == txscript.SigHashSingle {
					sequence = 0
				}
				buf = appendInput(buf, in, script, sequence)
			}
		}

		switch base {
		case txscript.SigHashNone:
			buf = encoding.AppendCompactSize(buf, 0)
		case txscript.SigHashSingle:
			buf = encoding.AppendCompactSize(buf, uint64(idx+1))
			for i := 0; i < idx; i++ {
				buf = binary.LittleEndian.AppendUint64(buf, ^uint64(0))
				buf = encoding.AppendCompactSize(buf, 0)
			}
			buf = appendOutput(buf, &tx.Outputs[idx])
		default:
			buf = encoding.AppendCompactSize(buf, uint64(len(tx.Outputs)))
			for i := range tx.Outputs {
				buf = appendOutput(buf, &tx.Outputs[i])
			}
		}

		buf = binary.LittleEndian.AppendUint32(buf, tx.LockTime)
		buf = binary.LittleEndian.AppendUint32(buf, uint32(hashType))
		_, err := w.Write(buf)
		return err
	})
}

func appendInput(buf []byte, in *block.TxIn, script []byte, sequence uint32) []byte {
	buf = append(buf, in.PrevOut.TxID[:]...)
	buf = binary.LittleEndian.AppendUint32(buf, in.PrevOut.Index)
	buf = encoding.AppendVarSlice(buf, script)
	return binary.LittleEndian.AppendUint32(buf, sequence)
}

func appendOutput(buf []byte, out *block.TxOut) []byte {
	buf = binary.LittleEndian.AppendUint64(buf, uint64(out.Value))
	return encoding.AppendVarSlice(buf, out.ScriptPubKey)
}

// removeCodeSeparators drops OP_CODESEPARATOR opcodes. Scripts that do not
// parse are kept as they are.
func removeCodeSeparators(script []byte) []byte {
	tok := txscript.MakeScriptTokenizer(0, script)
	found := false
	for tok.Next() {
		if tok.Opcode() == txscript.OP_CODESEPARATOR {
			found = true
			break
		}
	}
	if !found || tok.Err() != nil {
		return script
	}

	result := make([]byte, 0, len(script))
	tok = txscript.MakeScriptTokenizer(0, script)
	prev := int32(0)
	for tok.Next() {
		end := tok.ByteIndex()
		if tok.Opcode() != txscript.OP_CODESEPARATOR {
			result = append(result, script[prev:end]...)
		}
		prev = end
	}
	if tok.Err() != nil {
		return script
	}
	return result
}
