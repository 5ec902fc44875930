// Package cdbstore exposes constant databases as read-only stores which
// can be dumped with mdbdump.
package cdbstore

import (
	"errors"
	"os"

	"github.com/bsm/mdbdump"
	"github.com/colinmarc/cdb"
)

// ErrReadOnly is returned on attempts to modify a store.
var ErrReadOnly = errors.New("cdbstore: store is read-only")

var errNoNamedStores = errors.New("cdbstore: named stores are not supported")

// Options define the metadata reported for a constant database.
type Options struct {
	// MapSize is reported as the environment map size.
	// Default: the size of the database file or 1MiB if unknown.
	MapSize uint64

	// MaxReaders is reported as the maximum number of readers.
	// Default: 126.
	MaxReaders uint64

	// PageSize is reported as the store page size.
	// Default: 4KiB.
	PageSize uint64

	// Flags are reported as the store flags.
	Flags mdbdump.StoreFlags
}

func (o *Options) norm(size int64) *Options {
	var oo Options
	if o != nil {
		oo = *o
	}

	if oo.MapSize == 0 && size > 0 {
		oo.MapSize = uint64(size)
	} else if oo.MapSize == 0 {
		oo.MapSize = 1 << 20
	}
	if oo.MaxReaders == 0 {
		oo.MaxReaders = 126
	}
	if oo.PageSize == 0 {
		oo.PageSize = 1 << 12
	}
	return &oo
}

// Store wraps a constant database. Entries are iterated in file order.
type Store struct {
	db *cdb.CDB
	o  *Options
}

// Open opens the constant database at path.
func Open(path string, o *Options) (*Store, error) {
	fi, err := os.Stat(path)
	if err != nil {
		return nil, err
	}

	db, err := cdb.Open(path)
	if err != nil {
		return nil, err
	}
	return &Store{db: db, o: o.norm(fi.Size())}, nil
}

// New wraps an open constant database.
func New(db *cdb.CDB, o *Options) *Store {
	return &Store{db: db, o: o.norm(0)}
}

// Env implements mdbdump.Store.
func (s *Store) Env() mdbdump.Environment { return (*env)(s) }

// Flags implements mdbdump.Store.
func (s *Store) Flags() (mdbdump.StoreFlags, error) { return s.o.Flags, nil }

// Stat implements mdbdump.Store.
func (s *Store) Stat() (mdbdump.StoreStat, error) {
	return mdbdump.StoreStat{PageSize: s.o.PageSize}, nil
}

// Each implements mdbdump.Store.
func (s *Store) Each(fn func(key, value []byte) error) error {
	iter := s.db.Iter()
	for iter.Next() {
		if err := fn(iter.Key(), iter.Value()); err != nil {
			return err
		}
	}
	return iter.Err()
}

// Put always returns ErrReadOnly.
func (s *Store) Put(_, _ []byte) error { return ErrReadOnly }

// Clear always returns ErrReadOnly.
func (s *Store) Clear() error { return ErrReadOnly }

// Close closes the underlying database.
func (s *Store) Close() error { return s.db.Close() }

// --------------------------------------------------------------------

// env is the single-store environment of a constant database.
type env Store

func (e *env) Info() (mdbdump.EnvInfo, error) {
	return mdbdump.EnvInfo{
		MapSize:    e.o.MapSize,
		MaxReaders: e.o.MaxReaders,
	}, nil
}

func (e *env) Root() (mdbdump.Store, error) { return (*Store)(e), nil }

func (e *env) OpenStore(_ string, _ mdbdump.StoreFlags) (mdbdump.Store, error) {
	return nil, errNoNamedStores
}

func (e *env) TryOpen(_ string) (mdbdump.Store, error) {
	return nil, errNoNamedStores
}
