package mdbdump

import (
	"bytes"
	"io"

	"github.com/pkg/errors"
)

// FindStores returns the names of all named stores in env, or nil if
// there are none. There is no way to tell a named store from an
// ordinary root entry other than trying to open it, so every root key
// is tried. Avoid on environments with many root entries and no
// named stores, it will be slow.
func FindStores(env Environment) ([]string, error) {
	root, err := env.Root()
	if err != nil {
		return nil, errors.Wrap(err, "mdbdump: open root store")
	}

	var names []string
	if err := root.Each(func(key, _ []byte) error {
		name := string(key)
		if _, err := env.TryOpen(name); err == nil {
			names = append(names, name)
		}
		return nil
	}); err != nil {
		return nil, errors.Wrap(err, "mdbdump: iterate root store")
	}
	return names, nil
}

// Dump writes a dump of src to w. The source must either be an
// Environment or a Store. Store selection options are ignored when
// a single Store is dumped.
func Dump(w io.Writer, src interface{}, o *DumpOptions) error {
	switch v := src.(type) {
	case Environment:
		return NewWriter(w).WriteEnv(v, o)
	case Store:
		var f Format
		if o != nil {
			f = o.Format
		}
		return NewWriter(w).WriteStore(v, f)
	}
	return usageErrorf("unknown source type %T", src)
}

// DumpBytes is a shortcut for Dump into a buffer.
func DumpBytes(src interface{}, o *DumpOptions) ([]byte, error) {
	buf := new(bytes.Buffer)
	if err := Dump(buf, src, o); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
