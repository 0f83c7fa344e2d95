package visibility

import (
	"errors"
	"fmt"

	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/storage"
)

// ErrMissing is returned by a KV for keys it does not hold.
var ErrMissing = errors.New("key not found")

// KV is the local key-value storage the overlay persists into.
type KV interface {
	Get(key []byte) ([]byte, error)
	Put(key, value []byte) error
}

// LevelDB is a KV backed by a LevelDB database.
type LevelDB struct {
	db *leveldb.DB
}

// OpenLevelDB opens or creates the database in dir.
func OpenLevelDB(dir string) (*LevelDB, error) {
	db, err := leveldb.OpenFile(dir, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to open overlay store: %w", err)
	}
	return &LevelDB{db: db}, nil
}

// OpenMemory opens a LevelDB that lives only in memory.
func OpenMemory() (*LevelDB, error) {
	db, err := leveldb.Open(storage.NewMemStorage(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to open in-memory overlay store: %w", err)
	}
	return &LevelDB{db: db}, nil
}

func (s *LevelDB) Get(key []byte) ([]byte, error) {
	v, err := s.db.Get(key, nil)
	if errors.Is(err, leveldb.ErrNotFound) {
		return nil, ErrMissing
	}
	return v, err
}

func (s *LevelDB) Put(key, value []byte) error {
	return s.db.Put(key, value, nil)
}

func (s *LevelDB) Close() error {
	return s.db.Close()
}
