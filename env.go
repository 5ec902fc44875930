package mdbdump

// EnvInfo is the live metadata of an environment.
type EnvInfo struct {
	MapSize    uint64
	MapAddr    uint64
	MaxReaders uint64
}

// StoreStat contains store statistics.
type StoreStat struct {
	PageSize uint64
}

// Store is an ordered key-value table within an environment.
type Store interface {
	// Env returns the environment the store belongs to.
	Env() Environment
	// Flags returns the options the store was created with.
	Flags() (StoreFlags, error)
	// Stat returns store statistics.
	Stat() (StoreStat, error)
	// Each calls fn for every entry in natural key order. Key and
	// value are only valid for the duration of the call.
	Each(fn func(key, value []byte) error) error
	// Put stores a single entry, replacing existing values. Key and
	// value must not be retained after the call returns.
	Put(key, value []byte) error
	// Clear removes all entries.
	Clear() error
}

// Environment holds a root store and any number of named stores.
type Environment interface {
	// Info returns the live environment metadata.
	Info() (EnvInfo, error)
	// Root returns the default, unnamed store.
	Root() (Store, error)
	// OpenStore opens a named store, creating it with the given flags
	// if it does not exist.
	OpenStore(name string, flags StoreFlags) (Store, error)
	// TryOpen opens an existing named store. It fails if name is
	// unknown or refers to an ordinary entry of the root store.
	TryOpen(name string) (Store, error)
}

// Opener creates a new environment from options.
type Opener func(EnvOptions) (Environment, error)
