package kvenv

import (
	"errors"

	"github.com/syndtr/goleveldb/leveldb/comparer"
	"github.com/syndtr/goleveldb/leveldb/memdb"
	"github.com/syndtr/goleveldb/leveldb/util"
)

// ErrNotFound is returned by backends when a key cannot be found.
var ErrNotFound = errors.New("kvenv: not found")

// Backend is an ordered key-value engine.
type Backend interface {
	// Get returns a copy of the value stored for key or ErrNotFound.
	Get(key []byte) ([]byte, error)
	// Put stores a value.
	Put(key, value []byte) error
	// Delete removes a key. Missing keys are not an error.
	Delete(key []byte) error
	// Scan calls fn for every key with the given prefix in ascending
	// order. Key and value are only valid for the duration of the call.
	// Returning an error from fn stops the scan.
	Scan(prefix []byte, fn func(key, value []byte) error) error
	// Close releases the backend.
	Close() error
}

// --------------------------------------------------------------------

type memBackend struct {
	db *memdb.DB
}

// NewMemoryBackend returns a volatile, in-memory backend.
func NewMemoryBackend() Backend {
	return &memBackend{db: memdb.New(comparer.DefaultComparer, 0)}
}

func (b *memBackend) Get(key []byte) ([]byte, error) {
	val, err := b.db.Get(key)
	if err == memdb.ErrNotFound {
		return nil, ErrNotFound
	} else if err != nil {
		return nil, err
	}
	return append([]byte(nil), val...), nil
}

func (b *memBackend) Put(key, value []byte) error { return b.db.Put(key, value) }

func (b *memBackend) Delete(key []byte) error {
	if err := b.db.Delete(key); err != nil && err != memdb.ErrNotFound {
		return err
	}
	return nil
}

func (b *memBackend) Scan(prefix []byte, fn func(key, value []byte) error) error {
	iter := b.db.NewIterator(util.BytesPrefix(prefix))
	defer iter.Release()

	for iter.Next() {
		if err := fn(iter.Key(), iter.Value()); err != nil {
			return err
		}
	}
	return iter.Error()
}

func (b *memBackend) Close() error {
	b.db.Reset()
	return nil
}
