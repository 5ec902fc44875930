package mdbdump

import (
	"bytes"
	"io"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/unicode"
)

// ReaderOptions define reader specific options.
type ReaderOptions struct {
	// TargetEncoding is the text encoding decoded keys and values
	// are labelled with. Entries are never transcoded.
	// Default: UTF-8.
	TargetEncoding encoding.Encoding
}

func (o *ReaderOptions) norm() *ReaderOptions {
	var oo ReaderOptions
	if o != nil {
		oo = *o
	}

	if oo.TargetEncoding == nil {
		oo.TargetEncoding = unicode.UTF8
	}
	return &oo
}

// Reader instances iterate over the sections of a dump stream in a
// single forward pass.
type Reader struct {
	lr  *lineReader
	o   *ReaderOptions
	cur *Section

	err  error
	done bool
}

// NewReader wraps a reader and returns a Reader.
func NewReader(r io.Reader, o *ReaderOptions) *Reader {
	return &Reader{
		lr: newLineReader(r),
		o:  o.norm(),
	}
}

// Next advances to the next section and returns true if successful.
// Any bytes before the next VERSION line are skipped, including
// unread entries of the previous section. The previous section
// must not be used after this call.
func (r *Reader) Next() bool {
	if r.err != nil || r.done {
		return false
	}
	if r.cur != nil {
		r.cur.release()
		r.cur = nil
	}

	for {
		line, err := r.lr.ReadLine()
		if err == io.EOF {
			r.done = true
			return false
		} else if err != nil {
			r.err = err
			return false
		}

		if isLine(line, versionLine) {
			break
		}
	}

	r.cur = &Section{lr: r.lr, enc: r.o.TargetEncoding}
	return true
}

// Section returns the current section.
func (r *Reader) Section() *Section { return r.cur }

// Err exposes read errors, if any.
func (r *Reader) Err() error { return r.err }

func isLine(line []byte, s string) bool {
	return string(bytes.TrimSuffix(line, []byte{'\n'})) == s
}

// --------------------------------------------------------------------

// Section reads an individual section of a dump. The header is parsed
// on first access and cached.
type Section struct {
	lr  *lineReader
	enc encoding.Encoding

	hdr  *Header
	herr error

	format Format
	parsed bool // format parsed

	key, val []byte
	done     bool // reached DATA=END
	released bool
	err      error
}

// Header returns the section header. It is read from the stream once,
// subsequent calls return the cached result.
func (s *Section) Header() (*Header, error) {
	if s.hdr == nil && s.herr == nil {
		if s.released {
			return nil, errReleased
		}
		s.hdr, s.herr = readHeader(s.lr)
	}
	return s.hdr, s.herr
}

// Name returns the store name, it is empty for the root store.
func (s *Section) Name() (string, error) {
	h, err := s.Header()
	if err != nil {
		return "", err
	}
	return h.Name, nil
}

// Format returns the entry format of the section. Unknown formats
// result in a FormatError.
func (s *Section) Format() (Format, error) {
	h, err := s.Header()
	if err != nil {
		return unknownFormat, err
	}
	if !s.parsed {
		f, err := ParseFormat(h.Format)
		if err != nil {
			return unknownFormat, err
		}
		s.format, s.parsed = f, true
	}
	return s.format, nil
}

// Encoding returns the text encoding keys and values are labelled with.
func (s *Section) Encoding() encoding.Encoding { return s.enc }

// Next advances the cursor to the next entry and returns true if
// successful. It returns false once the end of the section is reached
// or an error occurred.
func (s *Section) Next() bool {
	if s.err != nil || s.done {
		return false
	}
	if s.released {
		s.err = errReleased
		return false
	}

	f, err := s.Format()
	if err != nil {
		s.err = err
		return false
	}

	ok, err := s.readEntry(&s.key, f)
	if err != nil {
		s.err = err
		return false
	} else if !ok {
		s.done = true
		return false
	}

	if ok, err = s.readEntry(&s.val, f); err != nil {
		s.err = err
		return false
	} else if !ok {
		s.err = formatErrorf(s.lr.line, "odd number of entry lines")
		return false
	}
	return true
}

// readEntry decodes a single line into dst. It returns false when the
// terminator is reached.
func (s *Section) readEntry(dst *[]byte, f Format) (bool, error) {
	line, err := s.lr.ReadLine()
	if err == io.EOF {
		return false, formatErrorf(s.lr.line, "unexpected end of data")
	} else if err != nil {
		return false, err
	}

	if isLine(line, dataEndLine) {
		return false, nil
	}

	if *dst, err = AppendDecoded((*dst)[:0], f, line); err != nil {
		if e, ok := err.(*FormatError); ok {
			e.Line = s.lr.line
		}
		return false, err
	}
	return true, nil
}

// Key returns the key of the current entry. Please note that keys
// are temporary buffers and must be copied if used beyond the next
// cursor move.
func (s *Section) Key() []byte { return s.key }

// Value returns the value of the current entry. Please note that values
// are temporary buffers and must be copied if used beyond the next
// cursor move.
func (s *Section) Value() []byte { return s.val }

// Err exposes section errors, if any.
func (s *Section) Err() error { return s.err }

func (s *Section) release() {
	s.released = true
	s.key, s.val = nil, nil
}
