package index

import (
	"errors"
	"fmt"

	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/opt"
	"github.com/syndtr/goleveldb/leveldb/util"
)

// Store is a read-only ordered key-value view of the block index.
type Store interface {
	Iterate(prefix []byte, fn func(key, value []byte) error) error
	Get(key []byte) ([]byte, error)
	Close() error
}

// LevelDB reads the node's blocks/index database. The node must not be
// running while the database is open.
type LevelDB struct {
	db *leveldb.DB
}

func OpenLevelDB(path string) (*LevelDB, error) {
	db, err := leveldb.OpenFile(path, &opt.Options{
		ReadOnly:       true,
		ErrorIfMissing: true,
	})
	if err != nil {
		return nil, fmt.Errorf("open block index %s: %w", path, err)
	}
	return &LevelDB{db: db}, nil
}

// Iterate calls fn for each key with the prefix, in key order. Key and
// value are only valid during the call.
func (s *LevelDB) Iterate(prefix []byte, fn func(key, value []byte) error) error {
	it := s.db.NewIterator(util.BytesPrefix(prefix), nil)
	defer it.Release()

	for it.Next() {
		if err := fn(it.Key(), it.Value()); err != nil {
			return err
		}
	}
	return it.Error()
}

func (s *LevelDB) Get(key []byte) ([]byte, error) {
	v, err := s.db.Get(key, nil)
	if errors.Is(err, leveldb.ErrNotFound) {
		return nil, ErrNotFound
	}
	return v, err
}

func (s *LevelDB) Close() error {
	return s.db.Close()
}
