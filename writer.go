package mdbdump

import (
	"io"

	"github.com/pkg/errors"
)

// DumpOptions define which stores of an environment are dumped and how.
type DumpOptions struct {
	// Stores is an explicit list of named stores to dump. Stores are
	// created if they don't exist. Must not be combined with All.
	Stores []string

	// All dumps every named store found in the environment.
	// Must not be combined with Stores.
	All bool

	// The entry format.
	// Default: FormatByteValue.
	Format Format
}

func (o *DumpOptions) norm() (*DumpOptions, error) {
	var oo DumpOptions
	if o != nil {
		oo = *o
	}

	if oo.All && oo.Stores != nil {
		return nil, usageErrorf("cannot specify both a list of stores and all")
	}
	if !oo.Format.isValid() {
		return nil, usageErrorf("unknown format %s", oo.Format)
	}
	return &oo, nil
}

// --------------------------------------------------------------------

// bufferSize is the number of bytes buffered before writing through.
const bufferSize = 1 << 12

// Writer instances write dump streams.
type Writer struct {
	w   io.Writer
	buf []byte
	err error
}

// NewWriter wraps a writer and returns a Writer.
func NewWriter(w io.Writer) *Writer {
	return &Writer{
		w:   w,
		buf: make([]byte, 0, 2*bufferSize),
	}
}

// WriteEnv dumps an environment. By default only the root store is
// written. Use DumpOptions.Stores or DumpOptions.All to dump named
// stores instead.
func (w *Writer) WriteEnv(env Environment, o *DumpOptions) error {
	o, err := o.norm()
	if err != nil {
		return err
	}

	names := o.Stores
	if o.All {
		if names, err = FindStores(env); err != nil {
			return err
		}
	}

	if names == nil {
		root, err := env.Root()
		if err != nil {
			return errors.Wrap(err, "mdbdump: open root store")
		}
		return w.writeStore(root, nil, o.Format)
	}

	for _, name := range names {
		name := name
		s, err := env.OpenStore(name, 0)
		if err != nil {
			return errors.Wrapf(err, "mdbdump: open store %q", name)
		}
		if err := w.writeStore(s, &name, o.Format); err != nil {
			return err
		}
	}
	return nil
}

// WriteStore dumps a single store as an unnamed section.
func (w *Writer) WriteStore(s Store, f Format) error {
	return w.writeStore(s, nil, f)
}

// WriteNamedStore dumps a single store as a section with a name.
func (w *Writer) WriteNamedStore(s Store, name string, f Format) error {
	return w.writeStore(s, &name, f)
}

func (w *Writer) writeStore(s Store, name *string, f Format) error {
	if w.err != nil {
		return w.err
	}
	if !f.isValid() {
		return usageErrorf("unknown format %s", f)
	}

	h, err := storeHeader(s, name, f)
	if err != nil {
		return err
	}

	w.buf = appendHeader(w.buf, h)
	if err := s.Each(func(key, value []byte) error {
		w.buf = appendEntry(w.buf, f, key)
		w.buf = appendEntry(w.buf, f, value)
		if len(w.buf) >= bufferSize {
			return w.flush()
		}
		return nil
	}); err != nil {
		w.buf = w.buf[:0]
		if w.err != nil {
			return w.err
		}
		return errors.Wrap(err, "mdbdump: iterate store")
	}

	w.buf = appendLine(w.buf, dataEndLine)
	return w.flush()
}

// storeHeader takes a snapshot of the live store metadata.
func storeHeader(s Store, name *string, f Format) (*Header, error) {
	info, err := s.Env().Info()
	if err != nil {
		return nil, errors.Wrap(err, "mdbdump: read environment info")
	}
	flags, err := s.Flags()
	if err != nil {
		return nil, errors.Wrap(err, "mdbdump: read store flags")
	}
	stat, err := s.Stat()
	if err != nil {
		return nil, errors.Wrap(err, "mdbdump: read store stat")
	}

	h := &Header{
		Format:   f.String(),
		Type:     storeType,
		MapAddr:  info.MapAddr,
		PageSize: stat.PageSize,
		Env: EnvOptions{
			MapSize:    info.MapSize,
			MaxReaders: info.MaxReaders,
		},
		Flags: flags,
	}
	if name != nil {
		h.Name, h.Named = *name, true
	}
	return h, nil
}

func (w *Writer) flush() error {
	if len(w.buf) == 0 {
		return nil
	}

	_, err := w.w.Write(w.buf)
	w.buf = w.buf[:0]
	if err != nil {
		w.err = err
	}
	return err
}
