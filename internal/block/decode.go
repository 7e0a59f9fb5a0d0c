package block

import (
	"fmt"
	"io"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/goodnatureofminers/blockinsight7000-blockparser/internal/encoding"
)

// Smallest possible encodings, used to reject counts before allocating.
const (
	minTxSize     = 10
	minTxInSize   = 41
	minTxOutSize  = 9
	witnessMarker = 0x00
	witnessFlag   = 0x01
)

// Decode parses a full block record. The whole buffer must be consumed.
// Scripts and witness items in the result alias buf.
func Decode(buf []byte) (*Block, error) {
	blk, err := decode(buf)
	if err != nil {
		return nil, err
	}
	return blk, nil
}

// DecodeLenient is Decode that also returns the transactions decoded
// before a malformed one. The block is nil only when the header or the
// transaction count cannot be read.
func DecodeLenient(buf []byte) (*Block, error) {
	return decode(buf)
}

func decode(buf []byte) (*Block, error) {
	r := encoding.NewReader(buf)

	hdr, err := readHeader(r)
	if err != nil {
		return nil, &MalformedTransactionError{Index: HeaderIndex, Offset: r.Offset(), Err: err}
	}

	count, err := r.CompactSize()
	if err != nil {
		return nil, &MalformedTransactionError{Index: HeaderIndex, Offset: r.Offset(), Err: err}
	}
	if count == 0 {
		return nil, &MalformedTransactionError{Index: HeaderIndex, Offset: r.Offset(), Err: ErrNoTransactions}
	}
	if count > uint64(r.Remaining()/minTxSize) {
		return nil, &MalformedTransactionError{
			Index:  HeaderIndex,
			Offset: r.Offset(),
			Err:    fmt.Errorf("%d transactions: %w", count, ErrCountTooLarge),
		}
	}

	blk := &Block{
		Header:       hdr,
		Hash:         chainhash.DoubleHashH(buf[:HeaderSize]),
		Transactions: make([]Transaction, 0, count),
		Size:         len(buf),
	}
	for i := 0; i < int(count); i++ {
		start := r.Offset()
		tx, err := readTransaction(r)
		if err != nil {
			blk.Truncated = true
			return blk, &MalformedTransactionError{Index: i, Offset: start, Err: err}
		}
		blk.Transactions = append(blk.Transactions, tx)
	}

	if r.Remaining() != 0 {
		return blk, &MalformedTransactionError{
			Index:  HeaderIndex,
			Offset: r.Offset(),
			Err:    fmt.Errorf("%d bytes: %w", r.Remaining(), ErrTrailingData),
		}
	}
	return blk, nil
}

// DecodeHeader parses an 80-byte header.
func DecodeHeader(buf []byte) (Header, error) {
	return readHeader(encoding.NewReader(buf))
}

func readHeader(r *encoding.Reader) (Header, error) {
	var (
		h   Header
		err error
	)
	if h.Version, err = r.Int32(); err != nil {
		return h, err
	}
	if h.PrevHash, err = r.Hash(); err != nil {
		return h, err
	}
	if h.MerkleRoot, err = r.Hash(); err != nil {
		return h, err
	}
	if h.Timestamp, err = r.Uint32(); err != nil {
		return h, err
	}
	if h.Bits, err = r.Uint32(); err != nil {
		return h, err
	}
	if h.Nonce, err = r.Uint32(); err != nil {
		return h, err
	}
	return h, nil
}

// DecodeTransaction parses a single transaction and returns the number
// of bytes it occupied.
func DecodeTransaction(buf []byte) (Transaction, int, error) {
	r := encoding.NewReader(buf)
	tx, err := readTransaction(r)
	if err != nil {
		return Transaction{}, 0, err
	}
	return tx, r.Offset(), nil
}

func readTransaction(r *encoding.Reader) (Transaction, error) {
	var (
		tx  Transaction
		err error
	)
	start := r.Offset()
	if tx.Version, err = r.Int32(); err != nil {
		return tx, err
	}

	if p, err := r.Peek(2); err == nil && p[0] == witnessMarker && p[1] != 0 {
		if p[1] != witnessFlag {
			return tx, fmt.Errorf("flag %#x: %w", p[1], ErrUnknownTxFlag)
		}
		if _, err := r.Bytes(2); err != nil {
			return tx, err
		}
		tx.HasWitness = true
	}

	bodyStart := r.Offset()
	if tx.Inputs, err = readInputs(r); err != nil {
		return tx, err
	}
	if tx.Outputs, err = readOutputs(r); err != nil {
		return tx, err
	}
	bodyEnd := r.Offset()

	if tx.HasWitness {
		for i := range tx.Inputs {
			if tx.Inputs[i].Witness, err = readWitness(r); err != nil {
				return tx, fmt.Errorf("witness of input %d: %w", i, err)
			}
		}
	}

	lockStart := r.Offset()
	if tx.LockTime, err = r.Uint32(); err != nil {
		return tx, err
	}
	end := r.Offset()
	tx.Size = end - start

	if !tx.HasWitness {
		tx.TxID = chainhash.DoubleHashH(r.Slice(start, end))
		return tx, nil
	}
	tx.TxID = chainhash.DoubleHashRaw(func(w io.Writer) error {
		if _, err := w.Write(r.Slice(start, start+4)); err != nil {
			return err
		}
		if _, err := w.Write(r.Slice(bodyStart, bodyEnd)); err != nil {
			return err
		}
		_, err := w.Write(r.Slice(lockStart, end))
		return err
	})
	return tx, nil
}

func readCount(r *encoding.Reader, minSize int) (int, error) {
	n, err := r.CompactSize()
	if err != nil {
		return 0, err
	}
	if n > uint64(r.Remaining()/minSize) {
		return 0, fmt.Errorf("%d items: %w", n, ErrCountTooLarge)
	}
	return int(n), nil
}

func readVarBytes(r *encoding.Reader) ([]byte, error) {
	n, err := r.CompactSize()
	if err != nil {
		return nil, err
	}
	if n > uint64(r.Remaining()) {
		return nil, fmt.Errorf("%d bytes: %w", n, encoding.ErrUnexpectedEnd)
	}
	return r.Bytes(int(n))
}

func readInputs(r *encoding.Reader) ([]TxIn, error) {
	n, err := readCount(r, minTxInSize)
	if err != nil {
		return nil, fmt.Errorf("input count: %w", err)
	}
	inputs := make([]TxIn, n)
	for i := range inputs {
		in := &inputs[i]
		if in.PrevOut.TxID, err = r.Hash(); err != nil {
			return nil, fmt.Errorf("input %d: %w", i, err)
		}
		if in.PrevOut.Index, err = r.Uint32(); err != nil {
			return nil, fmt.Errorf("input %d: %w", i, err)
		}
		if in.ScriptSig, err = readVarBytes(r); err != nil {
			return nil, fmt.Errorf("input %d script: %w", i, err)
		}
		if in.Sequence, err = r.Uint32(); err != nil {
			return nil, fmt.Errorf("input %d: %w", i, err)
		}
	}
	return inputs, nil
}

func readOutputs(r *encoding.Reader) ([]TxOut, error) {
	n, err := readCount(r, minTxOutSize)
	if err != nil {
		return nil, fmt.Errorf("output count: %w", err)
	}
	outputs := make([]TxOut, n)
	for i := range outputs {
		out := &outputs[i]
		if out.Value, err = r.Int64(); err != nil {
			return nil, fmt.Errorf("output %d: %w", i, err)
		}
		if out.ScriptPubKey, err = readVarBytes(r); err != nil {
			return nil, fmt.Errorf("output %d script: %w", i, err)
		}
	}
	return outputs, nil
}

func readWitness(r *encoding.Reader) ([][]byte, error) {
	n, err := readCount(r, 1)
	if err != nil {
		return nil, err
	}
	stack := make([][]byte, n)
	for i := range stack {
		if stack[i], err = readVarBytes(r); err != nil {
			return nil, fmt.Errorf("item %d: %w", i, err)
		}
	}
	return stack, nil
}
