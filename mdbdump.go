package mdbdump

import (
	"errors"
	"fmt"
)

// Version is the only supported dump header version.
const Version = 3

const (
	versionLine   = "VERSION=3"
	headerEndLine = "HEADER=END"
	dataEndLine   = "DATA=END"
	storeType     = "btree"
)

var errReleased = errors.New("mdbdump: section was released")

// UsageError is returned when a caller passes an unsupported source,
// an unknown format or conflicting options.
type UsageError struct {
	Msg string
}

func (e *UsageError) Error() string { return "mdbdump: " + e.Msg }

func usageErrorf(format string, args ...interface{}) error {
	return &UsageError{Msg: fmt.Sprintf(format, args...)}
}

// FormatError is returned when the dump stream is malformed.
type FormatError struct {
	Line int // line number in the stream, 0 if unknown
	Err  error
}

func (e *FormatError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("mdbdump: line %d: %v", e.Line, e.Err)
	}
	return "mdbdump: " + e.Err.Error()
}

// Unwrap returns the underlying cause.
func (e *FormatError) Unwrap() error { return e.Err }

func formatErrorf(line int, format string, args ...interface{}) error {
	return &FormatError{Line: line, Err: fmt.Errorf(format, args...)}
}

// --------------------------------------------------------------------

// Format is the entry escaping scheme of a section.
type Format byte

// Supported formats
const (
	FormatByteValue Format = iota
	FormatPrint
	unknownFormat
)

func (f Format) isValid() bool {
	return f >= FormatByteValue && f < unknownFormat
}

// String returns the wire name of the format.
func (f Format) String() string {
	switch f {
	case FormatByteValue:
		return "bytevalue"
	case FormatPrint:
		return "print"
	}
	return fmt.Sprintf("Format(%d)", byte(f))
}

// ParseFormat parses a wire format name.
func ParseFormat(s string) (Format, error) {
	switch s {
	case "bytevalue":
		return FormatByteValue, nil
	case "print":
		return FormatPrint, nil
	}
	return unknownFormat, &FormatError{Err: fmt.Errorf("unknown format %q", s)}
}

// --------------------------------------------------------------------

// StoreFlags is a set of store options recorded in a dump header.
type StoreFlags uint

// Store flags.
const (
	ReverseKey StoreFlags = 1 << iota
	DupSort
	IntegerKey
	DupFixed
	IntegerDup
	ReverseDup
)

// Has returns true if all of x are set.
func (f StoreFlags) Has(x StoreFlags) bool { return f&x == x }

// String returns a comma separated list of wire names.
func (f StoreFlags) String() string {
	s := ""
	for _, ent := range storeFlagNames {
		if f.Has(ent.Flag) {
			if s != "" {
				s += ","
			}
			s += ent.Name
		}
	}
	return s
}

// storeFlagNames maps flags to header keys, in header order.
var storeFlagNames = [...]struct {
	Flag StoreFlags
	Name string
}{
	{ReverseKey, "reversekey"},
	{DupSort, "duplicates"},
	{IntegerKey, "integerkey"},
	{DupFixed, "dupfixed"},
	{IntegerDup, "integerdup"},
	{ReverseDup, "reversedup"},
}

func lookupStoreFlag(name string) (StoreFlags, bool) {
	for _, ent := range storeFlagNames {
		if ent.Name == name {
			return ent.Flag, true
		}
	}
	return 0, false
}

// --------------------------------------------------------------------

// EnvOptions are the environment options recorded in a dump header.
// Zero values are unset.
type EnvOptions struct {
	MapSize    uint64
	MaxReaders uint64
	MaxDBs     uint64
}

// Merge returns a copy of o with every non-zero field of x applied on top.
func (o EnvOptions) Merge(x *EnvOptions) EnvOptions {
	if x == nil {
		return o
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
	return o
}

// field returns the option addressed by a header key, or nil.
func (o *EnvOptions) field(name string) *uint64 {
	switch name {
	case "mapsize":
		return &o.MapSize
	case "maxreaders":
		return &o.MaxReaders
	case "maxdbs":
		return &o.MaxDBs
	}
	return nil
}
