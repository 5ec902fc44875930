package kvenv

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"strings"

	"github.com/bsm/mdbdump"
)

var (
	// ErrNotAStore is returned by TryOpen when a name does not refer
	// to a named store.
	ErrNotAStore = errors.New("kvenv: not a named store")
	// ErrIncompatible is returned when a root entry and a named store
	// would share the same key.
	ErrIncompatible = errors.New("kvenv: key is used by a named store")
	// ErrStoresFull is returned when MaxDBs named stores already exist.
	ErrStoresFull = errors.New("kvenv: environment maxdbs limit reached")

	errInvalidName = errors.New("kvenv: invalid store name")
)

// key space prefixes
const (
	metaKey       = "m"
	rootPrefix    = 'r'
	catalogPrefix = 'c'
	dataPrefix    = 'd'
)

// Options define environment specific options.
type Options struct {
	// MapSize is reported as the environment map size.
	// Default: 1MiB.
	MapSize uint64

	// MaxReaders is reported as the maximum number of readers.
	// Default: 126.
	MaxReaders uint64

	// MaxDBs is the maximum number of named stores.
	// Default: 128.
	MaxDBs uint64

	// PageSize is reported as the store page size.
	// Default: 4KiB.
	PageSize uint64
}

// OptionsFrom converts dump environment options.
func OptionsFrom(eo mdbdump.EnvOptions) *Options {
	return &Options{
		MapSize:    eo.MapSize,
		MaxReaders: eo.MaxReaders,
		MaxDBs:     eo.MaxDBs,
	}
}

func (o *Options) norm() *Options {
	var oo Options
	if o != nil {
		oo = *o
	}

	if oo.MapSize == 0 {
		oo.MapSize = 1 << 20
	}
	if oo.MaxReaders == 0 {
		oo.MaxReaders = 126
	}
	if oo.MaxDBs == 0 {
		oo.MaxDBs = 128
	}
	if oo.PageSize == 0 {
		oo.PageSize = 1 << 12
	}
	return &oo
}

// merge applies non-zero fields of x.
func (o *Options) merge(x *Options) {
	if x == nil {
		return
	}
	if x.MapSize != 0 {
		o.MapSize = x.MapSize
	}
	if x.MaxReaders != 0 {
		o.MaxReaders = x.MaxReaders
	}
	if x.MaxDBs != 0 {
		o.MaxDBs = x.MaxDBs
	}
	if x.PageSize != 0 {
		o.PageSize = x.PageSize
	}
}

func (o *Options) marshal() []byte {
	buf := make([]byte, 0, 4*binary.MaxVarintLen64)
	buf = binary.AppendUvarint(buf, o.MapSize)
	buf = binary.AppendUvarint(buf, o.MaxReaders)
	buf = binary.AppendUvarint(buf, o.MaxDBs)
	buf = binary.AppendUvarint(buf, o.PageSize)
	return buf
}

func (o *Options) unmarshal(p []byte) error {
	for _, ptr := range []*uint64{&o.MapSize, &o.MaxReaders, &o.MaxDBs, &o.PageSize} {
		u, n := binary.Uvarint(p)
		if n <= 0 {
			return errors.New("kvenv: bad environment metadata")
		}
		*ptr = u
		p = p[n:]
	}
	return nil
}

// --------------------------------------------------------------------

// Env is an LMDB-like environment on top of an ordered key-value
// backend. It holds a root store and named stores. As in LMDB, each
// named store occupies a key in the root store.
type Env struct {
	b     Backend
	o     Options
	owned bool
}

// NewEnv wraps a backend. Options are persisted on first use; non-zero
// options override previously persisted values.
func NewEnv(b Backend, o *Options) (*Env, error) {
	cur := new(Options)
	switch raw, err := b.Get([]byte(metaKey)); err {
	case nil:
		if err := cur.unmarshal(raw); err != nil {
			return nil, err
		}
	case ErrNotFound:
		cur = cur.norm()
	default:
		return nil, err
	}
	cur.merge(o)

	if err := b.Put([]byte(metaKey), cur.marshal()); err != nil {
		return nil, err
	}
	return &Env{b: b, o: *cur}, nil
}

// OpenMemory creates a volatile, in-memory environment.
func OpenMemory(o *Options) (*Env, error) {
	return newOwnedEnv(NewMemoryBackend(), o)
}

func newOwnedEnv(b Backend, o *Options) (*Env, error) {
	env, err := NewEnv(b, o)
	if err != nil {
		_ = b.Close()
		return nil, err
	}
	env.owned = true
	return env, nil
}

// Options returns the effective environment options.
func (e *Env) Options() Options { return e.o }

// Info implements mdbdump.Environment.
func (e *Env) Info() (mdbdump.EnvInfo, error) {
	return mdbdump.EnvInfo{
		MapSize:    e.o.MapSize,
		MaxReaders: e.o.MaxReaders,
	}, nil
}

// Root implements mdbdump.Environment.
func (e *Env) Root() (mdbdump.Store, error) {
	return &store{env: e, prefix: []byte{rootPrefix}}, nil
}

// OpenStore implements mdbdump.Environment.
func (e *Env) OpenStore(name string, flags mdbdump.StoreFlags) (mdbdump.Store, error) {
	if err := validateName(name); err != nil {
		return nil, err
	}

	if s, err := e.TryOpen(name); err == nil {
		return s, nil
	} else if err != ErrNotAStore {
		return nil, err
	}

	if _, err := e.b.Get(rootKey(name)); err == nil {
		return nil, ErrIncompatible
	} else if err != ErrNotFound {
		return nil, err
	}

	names, err := e.Stores()
	if err != nil {
		return nil, err
	}
	if uint64(len(names)) >= e.o.MaxDBs {
		return nil, ErrStoresFull
	}

	rec := binary.AppendUvarint(nil, uint64(flags))
	if err := e.b.Put(catalogKey(name), rec); err != nil {
		return nil, err
	}
	if err := e.b.Put(rootKey(name), rec); err != nil {
		return nil, err
	}
	return newNamedStore(e, name, flags), nil
}

// TryOpen implements mdbdump.Environment.
func (e *Env) TryOpen(name string) (mdbdump.Store, error) {
	if err := validateName(name); err != nil {
		return nil, ErrNotAStore
	}

	rec, err := e.b.Get(catalogKey(name))
	if err == ErrNotFound {
		return nil, ErrNotAStore
	} else if err != nil {
		return nil, err
	}

	flags, n := binary.Uvarint(rec)
	if n <= 0 {
		return nil, fmt.Errorf("kvenv: bad catalog record for %q", name)
	}
	return newNamedStore(e, name, mdbdump.StoreFlags(flags)), nil
}

// Stores returns the names of all named stores, in order.
func (e *Env) Stores() ([]string, error) {
	var names []string
	err := e.b.Scan([]byte{catalogPrefix}, func(key, _ []byte) error {
		names = append(names, string(key[1:]))
		return nil
	})
	return names, err
}

// Close closes the backend if the environment was opened by this
// package.
func (e *Env) Close() error {
	if !e.owned {
		return nil
	}
	return e.b.Close()
}

func (e *Env) isStore(name []byte) (bool, error) {
	_, err := e.b.Get(catalogKey(string(name)))
	if err == ErrNotFound {
		return false, nil
	}
	return err == nil, err
}

func validateName(name string) error {
	if name == "" || strings.IndexByte(name, 0) > -1 {
		return errInvalidName
	}
	return nil
}

func rootKey(name string) []byte {
	return append([]byte{rootPrefix}, name...)
}

func catalogKey(name string) []byte {
	return append([]byte{catalogPrefix}, name...)
}

// --------------------------------------------------------------------

// clearBatchSize is the number of keys deleted per scan in Clear.
const clearBatchSize = 1024

var errBatchFull = errors.New("kvenv: batch full")

type store struct {
	env    *Env
	prefix []byte
	flags  mdbdump.StoreFlags
	named  bool
}

func newNamedStore(e *Env, name string, flags mdbdump.StoreFlags) *store {
	prefix := make([]byte, 0, len(name)+2)
	prefix = append(prefix, dataPrefix)
	prefix = append(prefix, name...)
	prefix = append(prefix, 0)
	return &store{env: e, prefix: prefix, flags: flags, named: true}
}

func (s *store) Env() mdbdump.Environment { return s.env }

func (s *store) Flags() (mdbdump.StoreFlags, error) { return s.flags, nil }

func (s *store) Stat() (mdbdump.StoreStat, error) {
	return mdbdump.StoreStat{PageSize: s.env.o.PageSize}, nil
}

func (s *store) Each(fn func(key, value []byte) error) error {
	return s.env.b.Scan(s.prefix, func(key, value []byte) error {
		return fn(key[len(s.prefix):], value)
	})
}

func (s *store) Put(key, value []byte) error {
	if !s.named {
		// re-writing a registration record unchanged is a no-op
		rec, err := s.env.b.Get(catalogKey(string(key)))
		if err == nil {
			if !bytes.Equal(rec, value) {
				return ErrIncompatible
			}
			return nil
		} else if err != ErrNotFound {
			return err
		}
	}
	return s.env.b.Put(s.key(key), value)
}

// Clear removes all entries. Clearing the root store keeps the keys
// of named stores.
func (s *store) Clear() error {
	for {
		var batch [][]byte
		err := s.env.b.Scan(s.prefix, func(key, _ []byte) error {
			if !s.named {
				if ok, err := s.env.isStore(key[len(s.prefix):]); err != nil {
					return err
				} else if ok {
					return nil
				}
			}

			batch = append(batch, append([]byte(nil), key...))
			if len(batch) == clearBatchSize {
				return errBatchFull
			}
			return nil
		})
		if err != nil && err != errBatchFull {
			return err
		}

		for _, key := range batch {
			if err := s.env.b.Delete(key); err != nil {
				return err
			}
		}
		if err != errBatchFull {
			return nil
		}
	}
}

func (s *store) key(key []byte) []byte {
	buf := make([]byte, 0, len(s.prefix)+len(key))
	buf = append(buf, s.prefix...)
	return append(buf, key...)
}
