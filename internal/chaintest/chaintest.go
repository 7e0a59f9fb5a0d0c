// Package chaintest builds small chains on disk, laid out the way a node
// stores them, for tests of the parser.
package chaintest

import (
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"

	"github.com/btcsuite/btcd/blockchain"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/goodnatureofminers/blockinsight7000-blockparser/internal/block"
	"github.com/goodnatureofminers/blockinsight7000-blockparser/internal/blockfile"
	"github.com/goodnatureofminers/blockinsight7000-blockparser/internal/index"
	"github.com/goodnatureofminers/blockinsight7000-blockparser/internal/model"
	"github.com/syndtr/goleveldb/leveldb"
)

// Bits is the regtest proof-of-work limit.
const Bits uint32 = 0x207fffff

// Magic is the regtest network magic.
var Magic = [4]byte{0xfa, 0xbf, 0xb5, 0xda}

// Coin returns regtest params whose genesis is genesis.
func Coin(genesis chainhash.Hash) model.CoinParams {
	return model.CoinParams{
		Coin:        model.BTC,
		Network:     model.Regtest,
		Magic:       Magic,
		GenesisHash: genesis,
		Params:      &chaincfg.RegressionNetParams,
	}
}

// Finalize fills in the derived fields of tx.
func Finalize(tx block.Transaction) block.Transaction {
	tx.TxID = tx.ComputeTxID()
	tx.Size = len(tx.Serialize())
	return tx
}

// Coinbase pays value to pkScript. The height goes into the script so that
// coinbases of different blocks differ.
func Coinbase(height uint64, value int64, pkScript []byte) block.Transaction {
	return Finalize(block.Transaction{
		Version: 1,
		Inputs: []block.TxIn{{
			PrevOut:   block.OutPoint{Index: 0xffffffff},
			ScriptSig: []byte{0x03, byte(height), byte(height >> 8), byte(height >> 16)},
			Sequence:  0xffffffff,
		}},
		Outputs:  []block.TxOut{{Value: value, ScriptPubKey: pkScript}},
		LockTime: 0,
	})
}

// NewBlock assembles a block on top of prev. nonce keeps siblings apart.
func NewBlock(prev chainhash.Hash, nonce uint32, txs ...block.Transaction) *block.Block {
	blk := &block.Block{
		Header: block.Header{
			Version:   4,
			PrevHash:  prev,
			Timestamp: 1_600_000_000 + nonce,
			Bits:      Bits,
			Nonce:     nonce,
		},
		Transactions: txs,
	}
	blk.Header.MerkleRoot = block.MerkleRoot(blk.TxIDs())
	blk.Hash = blk.Header.Hash()
	blk.Size = len(blk.Serialize())
	return blk
}

// Linear builds n blocks from a genesis, each holding one coinbase.
func Linear(n int) []*block.Block {
	blocks := make([]*block.Block, 0, n)
	var prev chainhash.Hash
	for h := range n {
		blk := NewBlock(prev, uint32(h), Coinbase(uint64(h), 50_0000_0000, []byte{0x51}))
		blocks = append(blocks, blk)
		prev = blk.Hash
	}
	return blocks
}

// Entry places one block in the fixture.
type Entry struct {
	Block  *block.Block
	Height uint64
	// Status defaults to fully validated with data.
	Status index.Status
	File   uint32
	// Payload replaces the serialized block in the file.
	Payload []byte
	// Length overrides the framing length when non-zero.
	Length uint32
}

// Entries places blocks in file 0 in height order.
func Entries(blocks []*block.Block) []Entry {
	entries := make([]Entry, len(blocks))
	for i, blk := range blocks {
		entries[i] = Entry{Block: blk, Height: uint64(i)}
	}
	return entries
}

type Fixture struct {
	BlocksDir string
	IndexDir  string
	// Locators follow the order of the entries.
	Locators []model.Locator
}

// Write lays entries out under dir as blk*.dat files and a LevelDB index.
// Entries are appended to their file in the order given.
func Write(t testing.TB, dir string, entries []Entry) *Fixture {
	t.Helper()

	f := &Fixture{
		BlocksDir: filepath.Join(dir, "blocks"),
		IndexDir:  filepath.Join(dir, "blocks", "index"),
		Locators:  make([]model.Locator, len(entries)),
	}
	if err := os.MkdirAll(f.IndexDir, 0o755); err != nil {
		t.Fatalf("create index dir: %v", err)
	}

	db, err := leveldb.OpenFile(f.IndexDir, nil)
	if err != nil {
		t.Fatalf("open index: %v", err)
	}
	defer db.Close()

	files := map[uint32][]byte{}
	infos := map[uint32]*index.FileInfo{}
	var lastFile uint32
	for i, e := range entries {
		status := e.Status
		if status == 0 {
			status = index.StatusValidScripts | index.StatusHaveData
		}
		rec := &index.Record{
			Hash:          e.Block.Hash,
			PrevHash:      e.Block.Header.PrevHash,
			Height:        e.Height,
			Status:        status,
			TxCount:       uint64(len(e.Block.Transactions)),
			ClientVersion: 259900,
			Header:        e.Block.Header,
			Work:          blockchain.CalcWork(e.Block.Header.Bits),
		}

		if status.HasData() {
			payload := e.Payload
			if payload == nil {
				payload = e.Block.Serialize()
			}
			length := e.Length
			if length == 0 {
				length = uint32(len(payload))
			}
			buf := append(files[e.File], Magic[:]...)
			buf = binary.LittleEndian.AppendUint32(buf, length)
			rec.Locator = model.Locator{File: e.File, Offset: uint32(len(buf))}
			rec.HasLocator = true
			files[e.File] = append(buf, payload...)
			lastFile = max(lastFile, e.File)

			info, ok := infos[e.File]
			if !ok {
				info = &index.FileInfo{HeightFirst: e.Height, TimeFirst: uint64(e.Block.Header.Timestamp)}
				infos[e.File] = info
			}
			info.Blocks++
			info.Size = uint64(len(files[e.File]))
			info.HeightFirst = min(info.HeightFirst, e.Height)
			info.HeightLast = max(info.HeightLast, e.Height)
			info.TimeFirst = min(info.TimeFirst, uint64(e.Block.Header.Timestamp))
			info.TimeLast = max(info.TimeLast, uint64(e.Block.Header.Timestamp))
		}
		f.Locators[i] = rec.Locator

		key, value := index.EncodeRecord(rec)
		if err := db.Put(key, value, nil); err != nil {
			t.Fatalf("put record: %v", err)
		}
	}

	for file, buf := range files {
		if err := os.WriteFile(filepath.Join(f.BlocksDir, blockfile.FileName(file)), buf, 0o644); err != nil {
			t.Fatalf("write block file: %v", err)
		}
	}
	for file, info := range infos {
		key, value := index.EncodeFileInfo(file, *info)
		if err := db.Put(key, value, nil); err != nil {
			t.Fatalf("put file info: %v", err)
		}
	}
	if err := db.Put(index.LastFileKey(), binary.LittleEndian.AppendUint32(nil, lastFile), nil); err != nil {
		t.Fatalf("put last file: %v", err)
	}
	return f
}
