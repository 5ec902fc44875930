package kvenv

import (
	"github.com/dgraph-io/badger"
)

type badgerBackend struct {
	db *badger.DB
}

// NewBadgerBackend wraps an open Badger database.
func NewBadgerBackend(db *badger.DB) Backend {
	return &badgerBackend{db: db}
}

// OpenBadger opens (or creates) an environment backed by a Badger
// database in dir.
func OpenBadger(dir string, o *Options) (*Env, error) {
	opts := badger.DefaultOptions
	opts.Dir = dir
	opts.ValueDir = dir

	db, err := badger.Open(opts)
	if err != nil {
		return nil, err
	}
	return newOwnedEnv(NewBadgerBackend(db), o)
}

func (b *badgerBackend) Get(key []byte) ([]byte, error) {
	var val []byte
	err := b.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(key)
		if err == badger.ErrKeyNotFound {
			return ErrNotFound
		} else if err != nil {
			return err
		}

		val, err = item.ValueCopy(nil)
		return err
	})
	return val, err
}

func (b *badgerBackend) Put(key, value []byte) error {
	return b.db.Update(func(txn *badger.Txn) error {
		return txn.Set(key, value)
	})
}

func (b *badgerBackend) Delete(key []byte) error {
	return b.db.Update(func(txn *badger.Txn) error {
		return txn.Delete(key)
	})
}

func (b *badgerBackend) Scan(prefix []byte, fn func(key, value []byte) error) error {
	return b.db.View(func(txn *badger.Txn) error {
		iter := txn.NewIterator(badger.DefaultIteratorOptions)
		defer iter.Close()

		var val []byte
		for iter.Seek(prefix); iter.ValidForPrefix(prefix); iter.Next() {
			item := iter.Item()

			var err error
			if val, err = item.ValueCopy(val[:0]); err != nil {
				return err
			}
			if err := fn(item.Key(), val); err != nil {
				return err
			}
		}
		return nil
	})
}

func (b *badgerBackend) Close() error { return b.db.Close() }
