// Package index loads the node's block index into an immutable table.
package index

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"go.uber.org/zap"
)

const ctxCheckInterval = 10_000

// Table holds every index record in iteration order.
type Table struct {
	records []*Record
	byHash  map[chainhash.Hash]int

	Files       map[uint32]FileInfo
	LastFile    uint32
	HasLastFile bool
	Reindexing  bool
}

// NewTable indexes records by hash. Later duplicates replace earlier ones
// in the hash lookup.
func NewTable(records []*Record) *Table {
	t := &Table{
		records: records,
		byHash:  make(map[chainhash.Hash]int, len(records)),
		Files:   make(map[uint32]FileInfo),
	}
	for i, rec := range records {
		t.byHash[rec.Hash] = i
	}
	return t
}

func (t *Table) Len() int { return len(t.records) }

func (t *Table) At(i int) *Record { return t.records[i] }

// Lookup returns the position of the record with the given hash.
func (t *Table) Lookup(hash chainhash.Hash) (int, bool) {
	i, ok := t.byHash[hash]
	return i, ok
}

// Records returns the records in iteration order. The slice must not be modified.
func (t *Table) Records() []*Record { return t.records }

type Reader struct {
	store  Store
	logger *zap.Logger
}

func NewReader(store Store, logger *zap.Logger) *Reader {
	return &Reader{store: store, logger: logger.Named("index")}
}

// Load reads all block records and file metadata.
func (r *Reader) Load(ctx context.Context) (*Table, error) {
	var records []*Record
	err := r.store.Iterate([]byte{prefixBlock}, func(key, value []byte) error {
		if len(records)%ctxCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				return err
			}
		}
		rec, err := DecodeRecord(key, value)
		if err != nil {
			var cerr *CorruptError
			if errors.As(err, &cerr) {
				return err
			}
			return &CorruptError{Err: err}
		}
		records = append(records, rec)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("read block records: %w", err)
	}

	table := NewTable(records)
	if err := r.loadFiles(table); err != nil {
		return nil, err
	}

	r.logger.Info("block index loaded",
		zap.Int("records", table.Len()),
		zap.Int("files", len(table.Files)),
		zap.Uint32("last_file", table.LastFile),
	)
	if table.Reindexing {
		r.logger.Warn("node was reindexing, block index may be incomplete")
	}
	return table, nil
}

func (r *Reader) loadFiles(table *Table) error {
	err := r.store.Iterate([]byte{prefixFile}, func(key, value []byte) error {
		file, info, err := decodeFileInfo(key, value)
		if err != nil {
			return &CorruptError{Err: err}
		}
		table.Files[file] = info
		return nil
	})
	if err != nil {
		return fmt.Errorf("read file records: %w", err)
	}

	last, err := r.store.Get(LastFileKey())
	switch {
	case errors.Is(err, ErrNotFound):
	case err != nil:
		return fmt.Errorf("read last file: %w", err)
	case len(last) != 4:
		return &CorruptError{Err: fmt.Errorf("last file value %x: %w", last, ErrBadKey)}
	default:
		table.LastFile = binary.LittleEndian.Uint32(last)
		table.HasLastFile = true
	}

	flag, err := r.store.Get(ReindexFlagKey())
	switch {
	case errors.Is(err, ErrNotFound):
	case err != nil:
		return fmt.Errorf("read reindex flag: %w", err)
	default:
		table.Reindexing = len(flag) > 0 && flag[0] == '1'
	}
	return nil
}
