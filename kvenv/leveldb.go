package kvenv

import (
	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/storage"
	"github.com/syndtr/goleveldb/leveldb/util"
)

type levelBackend struct {
	db *leveldb.DB
}

// NewLevelDBBackend wraps an open LevelDB database.
func NewLevelDBBackend(db *leveldb.DB) Backend {
	return &levelBackend{db: db}
}

// OpenLevelDB opens (or creates) an environment backed by a LevelDB
// database at path. An empty path creates a volatile, memory backed
// database.
func OpenLevelDB(path string, o *Options) (*Env, error) {
	var db *leveldb.DB
	var err error
	if path == "" {
		db, err = leveldb.Open(storage.NewMemStorage(), nil)
	} else {
		db, err = leveldb.OpenFile(path, nil)
	}
	if err != nil {
		return nil, err
	}
	return newOwnedEnv(NewLevelDBBackend(db), o)
}

func (b *levelBackend) Get(key []byte) ([]byte, error) {
	val, err := b.db.Get(key, nil)
	if err == leveldb.ErrNotFound {
		return nil, ErrNotFound
	}
	return val, err
}

func (b *levelBackend) Put(key, value []byte) error { return b.db.Put(key, value, nil) }

func (b *levelBackend) Delete(key []byte) error { return b.db.Delete(key, nil) }

func (b *levelBackend) Scan(prefix []byte, fn func(key, value []byte) error) error {
	iter := b.db.NewIterator(util.BytesPrefix(prefix), nil)
	defer iter.Release()

	for iter.Next() {
		if err := fn(iter.Key(), iter.Value()); err != nil {
			return err
		}
	}
	return iter.Error()
}

func (b *levelBackend) Close() error { return b.db.Close() }
