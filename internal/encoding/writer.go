package encoding

import (
	"encoding/binary"
	"math"
)

// CompactSizeLen is the encoded length of v.
func CompactSizeLen(v uint64) int {
	switch {
	case v < 0xfd:
		return 1
	case v <= math.MaxUint16:
		return 3
	case v <= math.MaxUint32:
		return 5
	default:
		return 9
	}
}

// AppendCompactSize appends the canonical encoding of v.
func AppendCompactSize(dst []byte, v uint64) []byte {
	switch {
	case v < 0xfd:
		return append(dst, byte(v))
	case v <= math.MaxUint16:
		dst = append(dst, 0xfd)
		return binary.LittleEndian.AppendUint16(dst, uint16(v))
	case v <= math.MaxUint32:
		dst = append(dst, 0xfe)
		return binary.LittleEndian.AppendUint32(dst, uint32(v))
	default:
		dst = append(dst, 0xff)
		return binary.LittleEndian.AppendUint64(dst, v)
	}
}

// AppendVarSlice appends a CompactSize length followed by b.
func AppendVarSlice(dst, b []byte) []byte {
	dst = AppendCompactSize(dst, uint64(len(b)))
	return append(dst, b...)
}

// AppendVarInt appends v in the block index VARINT format.
func AppendVarInt(dst []byte, v uint64) []byte {
	var tmp [10]byte
	n := 0
	for {
		tmp[n] = byte(v & 0x7f)
		if n > 0 {
			tmp[n] |= 0x80
		}
		if v <= 0x7f {
			break
		}
		v = v>>7 - 1
		n++
	}
	for ; n >= 0; n-- {
		dst = append(dst, tmp[n])
	}
	return dst
}
