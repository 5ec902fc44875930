package kvenv

import (
	"fmt"

	"github.com/bsm/mdbdump"
)

// Kind identifies a backend engine.
type Kind string

// Supported backend kinds.
const (
	Memory  Kind = "memory"
	LevelDB Kind = "leveldb"
	Badger  Kind = "badger"
)

// Open opens an environment of the given kind at path. Memory
// environments ignore the path.
func Open(kind Kind, path string, o *Options) (*Env, error) {
	switch kind {
	case Memory:
		return OpenMemory(o)
	case LevelDB:
		return OpenLevelDB(path, o)
	case Badger:
		return OpenBadger(path, o)
	}
	return nil, fmt.Errorf("kvenv: unknown backend %q", kind)
}

// Opener returns an mdbdump.Opener which opens environments of the
// given kind at path.
func Opener(kind Kind, path string) mdbdump.Opener {
	return func(eo mdbdump.EnvOptions) (mdbdump.Environment, error) {
		return Open(kind, path, OptionsFrom(eo))
	}
}
