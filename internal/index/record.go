package index

import (
	"encoding/binary"
	"fmt"
	"math"
	"math/big"

	"github.com/btcsuite/btcd/blockchain"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/goodnatureofminers/blockinsight7000-blockparser/internal/block"
	"github.com/goodnatureofminers/blockinsight7000-blockparser/internal/encoding"
	"github.com/goodnatureofminers/blockinsight7000-blockparser/internal/model"
	"github.com/goodnatureofminers/blockinsight7000-blockparser/pkg/safe"
)

const (
	prefixBlock    = 'b'
	prefixFile     = 'f'
	keyLastFile    = 'l'
	keyReindexFlag = 'R'
)

// Record is one block index entry. Records are not modified after load.
type Record struct {
	Hash          chainhash.Hash
	PrevHash      chainhash.Hash
	Height        uint64
	Status        Status
	TxCount       uint64
	ClientVersion uint64
	// Locator is meaningful only when HasLocator is set.
	Locator    model.Locator
	HasLocator bool
	UndoPos    uint32
	Header     block.Header
	// Work is the proof of this block alone.
	Work *big.Int
}

// DecodeRecord parses a 'b' key and its value.
func DecodeRecord(key, value []byte) (*Record, error) {
	if len(key) != 1+chainhash.HashSize || key[0] != prefixBlock {
		return nil, fmt.Errorf("key %x: %w", key, ErrBadKey)
	}
	rec := &Record{}
	copy(rec.Hash[:], key[1:])

	if err := rec.decodeValue(value); err != nil {
		return nil, &CorruptError{Hash: rec.Hash, Err: err}
	}
	return rec, nil
}

func (rec *Record) decodeValue(value []byte) error {
	r := encoding.NewReader(value)

	var err error
	if rec.ClientVersion, err = r.VarInt(); err != nil {
		return fmt.Errorf("client version: %w", err)
	}
	if rec.Height, err = r.VarInt(); err != nil {
		return fmt.Errorf("height: %w", err)
	}
	if rec.Height > math.MaxInt32 {
		return fmt.Errorf("height %d: %w", rec.Height, ErrBadHeight)
	}
	status, err := r.VarInt()
	if err != nil {
		return fmt.Errorf("status: %w", err)
	}
	if rec.Status, err = narrow[Status](status, "status"); err != nil {
		return err
	}
	if rec.TxCount, err = r.VarInt(); err != nil {
		return fmt.Errorf("tx count: %w", err)
	}

	if rec.Status.HasData() || rec.Status.HasUndo() {
		file, err := r.VarInt()
		if err != nil {
			return fmt.Errorf("file: %w", err)
		}
		if rec.Locator.File, err = narrow[uint32](file, "file"); err != nil {
			return err
		}
	}
	if rec.Status.HasData() {
		pos, err := r.VarInt()
		if err != nil {
			return fmt.Errorf("data pos: %w", err)
		}
		if rec.Locator.Offset, err = narrow[uint32](pos, "data pos"); err != nil {
			return err
		}
		rec.HasLocator = true
	}
	if rec.Status.HasUndo() {
		pos, err := r.VarInt()
		if err != nil {
			return fmt.Errorf("undo pos: %w", err)
		}
		if rec.UndoPos, err = narrow[uint32](pos, "undo pos"); err != nil {
			return err
		}
	}

	raw, err := r.Bytes(block.HeaderSize)
	if err != nil {
		return fmt.Errorf("header: %w", err)
	}
	if r.Remaining() != 0 {
		return fmt.Errorf("%d bytes: %w", r.Remaining(), ErrTrailing)
	}
	if rec.Header, err = block.DecodeHeader(raw); err != nil {
		return fmt.Errorf("header: %w", err)
	}
	if got := chainhash.DoubleHashH(raw); got != rec.Hash {
		return fmt.Errorf("%s: %w", got, ErrKeyHash)
	}

	rec.PrevHash = rec.Header.PrevHash
	rec.Work = blockchain.CalcWork(rec.Header.Bits)
	return nil
}

func narrow[T ~uint32](v uint64, field string) (T, error) {
	n, err := safe.Uint32(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", field, err)
	}
	return T(n), nil
}

// EncodeRecord produces the key and value the node would store for rec.
func EncodeRecord(rec *Record) (key, value []byte) {
	key = make([]byte, 0, 1+chainhash.HashSize)
	key = append(key, prefixBlock)
	key = append(key, rec.Hash[:]...)

	value = encoding.AppendVarInt(value, rec.ClientVersion)
	value = encoding.AppendVarInt(value, rec.Height)
	value = encoding.AppendVarInt(value, uint64(rec.Status))
	value = encoding.AppendVarInt(value, rec.TxCount)
	if rec.Status.HasData() || rec.Status.HasUndo() {
		value = encoding.AppendVarInt(value, uint64(rec.Locator.File))
	}
	if rec.Status.HasData() {
		value = encoding.AppendVarInt(value, uint64(rec.Locator.Offset))
	}
	if rec.Status.HasUndo() {
		value = encoding.AppendVarInt(value, uint64(rec.UndoPos))
	}
	value = rec.Header.AppendTo(value)
	return key, value
}

// FileInfo summarises one blk*.dat file.
type FileInfo struct {
	Blocks      uint64
	Size        uint64
	UndoSize    uint64
	HeightFirst uint64
	HeightLast  uint64
	TimeFirst   uint64
	TimeLast    uint64
}

func decodeFileInfo(key, value []byte) (uint32, FileInfo, error) {
	var info FileInfo
	if len(key) != 5 || key[0] != prefixFile {
		return 0, info, fmt.Errorf("key %x: %w", key, ErrBadKey)
	}
	file := binary.LittleEndian.Uint32(key[1:])

	r := encoding.NewReader(value)
	for _, field := range []*uint64{
		&info.Blocks, &info.Size, &info.UndoSize,
		&info.HeightFirst, &info.HeightLast,
		&info.TimeFirst, &info.TimeLast,
	} {
		v, err := r.VarInt()
		if err != nil {
			return file, info, fmt.Errorf("file info %d: %w", file, err)
		}
		*field = v
	}
	return file, info, nil
}

// EncodeFileInfo produces the 'f' key and value for a file.
func EncodeFileInfo(file uint32, info FileInfo) (key, value []byte) {
	key = binary.LittleEndian.AppendUint32([]byte{prefixFile}, file)
	for _, v := range []uint64{
		info.Blocks, info.Size, info.UndoSize,
		info.HeightFirst, info.HeightLast,
		info.TimeFirst, info.TimeLast,
	} {
		value = encoding.AppendVarInt(value, v)
	}
	return key, value
}

// LastFileKey is the key holding the number of the newest block file.
func LastFileKey() []byte { return []byte{keyLastFile} }

// ReindexFlagKey is present while the node is rebuilding its index.
func ReindexFlagKey() []byte { return []byte{keyReindexFlag} }
