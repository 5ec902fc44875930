package mdbdump

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"strconv"
)

// Header describes a single section of a dump.
type Header struct {
	Format   string // wire format name, may be unknown
	Name     string // store name, empty for the root store
	Named    bool   // true if a database line was present
	Type     string
	MapAddr  uint64 // zero if absent
	PageSize uint64
	Env      EnvOptions
	Flags    StoreFlags
}

func appendHeader(dst []byte, h *Header) []byte {
	dst = appendLine(dst, versionLine)
	dst = appendKeyValue(dst, "format", h.Format)
	if h.Named {
		dst = appendKeyValue(dst, "database", h.Name)
	}
	dst = appendKeyValue(dst, "type", storeType)
	dst = appendKeyUint(dst, "mapsize", h.Env.MapSize)
	if h.MapAddr != 0 {
		dst = appendKeyUint(dst, "mapaddr", h.MapAddr)
	}
	dst = appendKeyUint(dst, "maxreaders", h.Env.MaxReaders)
	for _, ent := range storeFlagNames {
		if h.Flags.Has(ent.Flag) {
			dst = appendKeyValue(dst, ent.Name, "1")
		}
	}
	dst = appendKeyUint(dst, "db_pagesize", h.PageSize)
	return appendLine(dst, headerEndLine)
}

func appendLine(dst []byte, s string) []byte {
	return append(append(dst, s...), '\n')
}

func appendKeyValue(dst []byte, key, value string) []byte {
	dst = append(dst, key...)
	dst = append(dst, '=')
	return appendLine(dst, value)
}

func appendKeyUint(dst []byte, key string, value uint64) []byte {
	dst = append(dst, key...)
	dst = append(dst, '=')
	dst = strconv.AppendUint(dst, value, 10)
	return append(dst, '\n')
}

// readHeader parses header lines up to and including HEADER=END.
// The VERSION line must already have been consumed.
func readHeader(r *lineReader) (*Header, error) {
	h := new(Header)
	for {
		line, err := r.ReadLine()
		if err == io.EOF {
			return nil, formatErrorf(r.line, "unexpected end of header")
		} else if err != nil {
			return nil, err
		}

		line = bytes.TrimSuffix(line, []byte{'\n'})
		if string(line) == headerEndLine {
			return h, nil
		}

		key, value := line, []byte(nil)
		if pos := bytes.IndexByte(line, '='); pos > -1 {
			key, value = line[:pos], line[pos+1:]
		}

		if flag, ok := lookupStoreFlag(string(key)); ok {
			if string(value) != "1" {
				return nil, formatErrorf(r.line, "invalid value %q for %s", value, key)
			}
			h.Flags |= flag
			continue
		}

		if ptr := h.Env.field(string(key)); ptr != nil {
			if *ptr, err = parseUint(r.line, key, value); err != nil {
				return nil, err
			}
			continue
		}

		switch string(key) {
		case "format":
			h.Format = string(value)
		case "database":
			h.Name, h.Named = string(value), true
		case "type":
			h.Type = string(value)
		case "mapaddr":
			if h.MapAddr, err = parseUint(r.line, key, value); err != nil {
				return nil, err
			}
		case "db_pagesize":
			if h.PageSize, err = parseUint(r.line, key, value); err != nil {
				return nil, err
			}
		}
	}
}

func parseUint(line int, key, value []byte) (uint64, error) {
	n, err := strconv.ParseUint(string(value), 10, 64)
	if err != nil {
		return 0, formatErrorf(line, "invalid integer %q for %s", value, key)
	}
	return n, nil
}

// --------------------------------------------------------------------

// lineReader reads newline terminated lines of any length.
type lineReader struct {
	r    *bufio.Reader
	buf  []byte
	line int // number of lines read
}

func newLineReader(r io.Reader) *lineReader {
	br, ok := r.(*bufio.Reader)
	if !ok {
		br = bufio.NewReaderSize(r, 64*1024)
	}
	return &lineReader{r: br}
}

// ReadLine returns the next line including its trailing newline. The
// result is only valid until the next call. A final line without a
// newline is returned as-is, io.EOF is returned once input is exhausted.
func (r *lineReader) ReadLine() ([]byte, error) {
	// re-use the buffer as long as it doesn't grow too much
	if cap(r.buf) > 1<<20 {
		r.buf = nil
	}
	r.buf = r.buf[:0]
	for {
		frag, err := r.r.ReadSlice('\n')
		r.buf = append(r.buf, frag...)

		switch err {
		case nil:
		case bufio.ErrBufferFull:
			continue
		case io.EOF:
			if len(r.buf) == 0 {
				return nil, io.EOF
			}
		default:
			return nil, err
		}

		r.line++
		return r.buf, nil
	}
}

func (h *Header) String() string {
	return fmt.Sprintf("%s (%s)", h.displayName(), h.Format)
}

func (h *Header) displayName() string {
	if h.Named {
		return strconv.Quote(h.Name)
	}
	return "<root>"
}
