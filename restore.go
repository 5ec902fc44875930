package mdbdump

import (
	"io"

	"github.com/pkg/errors"
	"golang.org/x/text/encoding"
)

// RestoreOptions define restore specific options.
type RestoreOptions struct {
	// NoClear keeps existing entries of the restored stores. By default,
	// each store is cleared before its section is restored. Stores not
	// included in the dump are never touched.
	NoClear bool

	// TargetEncoding labels decoded entries.
	// Default: UTF-8.
	TargetEncoding encoding.Encoding
}

// Restore replays every section of a dump into env. Sections without a
// name are written to the root store, named sections to a store of the
// same name which is created with the recorded flags if necessary.
func Restore(r io.Reader, env Environment, o *RestoreOptions) error {
	if env == nil {
		return usageErrorf("no environment given")
	}
	_, err := restore(r, env, nil, nil, o)
	return err
}

// RestoreNew is like Restore but creates a new environment with open
// when the first section is read. The options recorded in that section
// are used, merged with overrides; non-zero overrides win. The caller
// owns the returned environment, it is returned even on error if it was
// created. No environment is created for an empty dump.
func RestoreNew(r io.Reader, open Opener, overrides *EnvOptions, o *RestoreOptions) (Environment, error) {
	if open == nil {
		return nil, usageErrorf("no environment opener given")
	}
	return restore(r, nil, open, overrides, o)
}

func restore(r io.Reader, env Environment, open Opener, overrides *EnvOptions, o *RestoreOptions) (Environment, error) {
	var oo RestoreOptions
	if o != nil {
		oo = *o
	}

	rd := NewReader(r, &ReaderOptions{TargetEncoding: oo.TargetEncoding})
	for rd.Next() {
		sec := rd.Section()
		h, err := sec.Header()
		if err != nil {
			return env, err
		}

		if env == nil {
			if env, err = open(h.Env.Merge(overrides)); err != nil {
				return nil, errors.Wrap(err, "mdbdump: create environment")
			}
		}

		if err := restoreSection(env, sec, h, !oo.NoClear); err != nil {
			return env, err
		}
	}
	return env, rd.Err()
}

func restoreSection(env Environment, sec *Section, h *Header, clear bool) error {
	var s Store
	var err error
	if h.Named {
		s, err = env.OpenStore(h.Name, h.Flags)
	} else {
		s, err = env.Root()
	}
	if err != nil {
		return errors.Wrapf(err, "mdbdump: open store %s", h.displayName())
	}

	if clear {
		if err := s.Clear(); err != nil {
			return errors.Wrapf(err, "mdbdump: clear store %s", h.displayName())
		}
	}

	for sec.Next() {
		if err := s.Put(sec.Key(), sec.Value()); err != nil {
			return errors.Wrapf(err, "mdbdump: restore store %s", h.displayName())
		}
	}
	return sec.Err()
}
