// Package encoding reads and writes the primitive values used by block,
// transaction and block index records.
package encoding

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
)

var (
	ErrUnexpectedEnd  = errors.New("unexpected end of data")
	ErrNonCanonical   = errors.New("non-canonical compact size")
	ErrVarIntOverflow = errors.New("varint overflows uint64")
)

// Reader is a forward-only cursor over a byte slice. Reads past the end
// fail without consuming anything.
type Reader struct {
	buf []byte
	off int
}

func NewReader(buf []byte) *Reader {
	return &Reader{buf: buf}
}

// Offset is the number of bytes consumed so far.
func (r *Reader) Offset() int { return r.off }

// Remaining is the number of unread bytes.
func (r *Reader) Remaining() int { return len(r.buf) - r.off }

// Slice returns buf[from:to] of the underlying buffer without copying.
func (r *Reader) Slice(from, to int) []byte { return r.buf[from:to] }

func (r *Reader) take(n int) ([]byte, error) {
	if n < 0 || n > r.Remaining() {
		return nil, fmt.Errorf("read %d bytes at offset %d: %w", n, r.off, ErrUnexpectedEnd)
	}
	b := r.buf[r.off : r.off+n]
	r.off += n
	return b, nil
}

// Peek returns the next n bytes without consuming them.
func (r *Reader) Peek(n int) ([]byte, error) {
	if n < 0 || n > r.Remaining() {
		return nil, fmt.Errorf("peek %d bytes at offset %d: %w", n, r.off, ErrUnexpectedEnd)
	}
	return r.buf[r.off : r.off+n], nil
}

func (r *Reader) Uint8() (uint8, error) {
	b, err := r.take(1)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

func (r *Reader) Uint16() (uint16, error) {
	b, err := r.take(2)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint16(b), nil
}

func (r *Reader) Uint32() (uint32, error) {
	b, err := r.take(4)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b), nil
}

func (r *Reader) Int32() (int32, error) {
	v, err := r.Uint32()
	return int32(v), err
}

func (r *Reader) Uint64() (uint64, error) {
	b, err := r.take(8)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(b), nil
}

func (r *Reader) Int64() (int64, error) {
	v, err := r.Uint64()
	return int64(v), err
}

// Hash reads 32 raw bytes in the order they are stored.
func (r *Reader) Hash() (chainhash.Hash, error) {
	var h chainhash.Hash
	b, err := r.take(chainhash.HashSize)
	if err != nil {
		return h, err
	}
	copy(h[:], b)
	return h, nil
}

// Bytes returns the next n bytes. The result aliases the underlying buffer.
func (r *Reader) Bytes(n int) ([]byte, error) {
	return r.take(n)
}

// CompactSize reads a Bitcoin variable length integer.
func (r *Reader) CompactSize() (uint64, error) {
	start := r.off
	prefix, err := r.Uint8()
	if err != nil {
		return 0, err
	}

	var v, floor uint64
	switch prefix {
	case 0xfd:
		x, err := r.Uint16()
		if err != nil {
			r.off = start
			return 0, err
		}
		v, floor = uint64(x), 0xfd
	case 0xfe:
		x, err := r.Uint32()
		if err != nil {
			r.off = start
			return 0, err
		}
		v, floor = uint64(x), 0x10000
	case 0xff:
		x, err := r.Uint64()
		if err != nil {
			r.off = start
			return 0, err
		}
		v, floor = x, 0x100000000
	default:
		return uint64(prefix), nil
	}

	if v < floor {
		r.off = start
		return 0, fmt.Errorf("value %d with prefix %#x at offset %d: %w", v, prefix, start, ErrNonCanonical)
	}
	return v, nil
}

// VarInt reads the MSB base-128 integer used by the node's block index,
// where each continuation byte carries an implicit +1.
func (r *Reader) VarInt() (uint64, error) {
	start := r.off
	var n uint64
	for {
		ch, err := r.Uint8()
		if err != nil {
			r.off = start
			return 0, err
		}
		if n > math.MaxUint64>>7 {
			r.off = start
			return 0, fmt.Errorf("varint at offset %d: %w", start, ErrVarIntOverflow)
		}
		n = n<<7 | uint64(ch&0x7f)
		if ch&0x80 == 0 {
			return n, nil
		}
		if n == math.MaxUint64 {
			r.off = start
			return 0, fmt.Errorf("varint at offset %d: %w", start, ErrVarIntOverflow)
		}
		n++
	}
}
