package mdbdump

import (
	"encoding/hex"
	"fmt"
)

const (
	escapeChar = '\\'
	separator  = ' '
	hexDigits  = "0123456789abcdef"
)

// printable returns true for bytes written as-is in FormatPrint.
func printable(c byte) bool { return c >= 0x20 && c < 0x7f }

// Encode returns p as a single entry line, including the leading
// separator and the trailing newline.
func Encode(f Format, p []byte) ([]byte, error) {
	return AppendEncoded(nil, f, p)
}

// AppendEncoded appends the entry line for p to dst.
func AppendEncoded(dst []byte, f Format, p []byte) ([]byte, error) {
	if !f.isValid() {
		return dst, usageErrorf("unknown format %s", f)
	}
	return appendEntry(dst, f, p), nil
}

// appendEntry appends the entry line for p to dst. The format must be
// valid, anything other than FormatPrint is written as bytevalue.
func appendEntry(dst []byte, f Format, p []byte) []byte {
	dst = append(dst, separator)
	if f == FormatPrint {
		for _, c := range p {
			switch {
			case c == escapeChar:
				dst = append(dst, escapeChar, escapeChar)
			case printable(c):
				dst = append(dst, c)
			default:
				dst = append(dst, escapeChar, hexDigits[c>>4], hexDigits[c&0x0f])
			}
		}
	} else {
		for _, c := range p {
			dst = append(dst, hexDigits[c>>4], hexDigits[c&0x0f])
		}
	}
	return append(dst, '\n')
}

// Decode decodes a single entry line. The leading separator and the
// trailing newline are stripped before decoding.
func Decode(f Format, line []byte) ([]byte, error) {
	return AppendDecoded(nil, f, line)
}

// AppendDecoded decodes an entry line and appends the result to dst.
func AppendDecoded(dst []byte, f Format, line []byte) ([]byte, error) {
	if n := len(line); n != 0 && line[n-1] == '\n' {
		line = line[:n-1]
	}
	if len(line) != 0 {
		line = line[1:]
	}

	var err error
	switch f {
	case FormatByteValue:
		dst, err = appendHexDecoded(dst, line)
	case FormatPrint:
		dst, err = appendPrintDecoded(dst, line)
	default:
		err = fmt.Errorf("unknown format %s", f)
	}
	if err != nil {
		return dst, &FormatError{Err: err}
	}
	return dst, nil
}

func appendHexDecoded(dst, src []byte) ([]byte, error) {
	if len(src)%2 != 0 {
		return dst, fmt.Errorf("odd length hex value (%d characters)", len(src))
	}

	n := len(dst)
	dst = append(dst, make([]byte, len(src)/2)...)
	if _, err := hex.Decode(dst[n:], src); err != nil {
		return dst[:n], err
	}
	return dst, nil
}

// appendPrintDecoded resolves hex escapes whose backslash is not itself
// escaped, then collapses escaped backslashes. Both happen in one forward
// scan: a backslash pair is consumed as a literal before the following
// bytes can be considered as the start of a hex escape.
func appendPrintDecoded(dst, src []byte) ([]byte, error) {
	for i := 0; i < len(src); i++ {
		c := src[i]
		if c != escapeChar {
			dst = append(dst, c)
			continue
		}

		switch {
		case i+1 < len(src) && src[i+1] == escapeChar:
			dst = append(dst, escapeChar)
			i++
		case i+2 < len(src) && isHex(src[i+1]) && isHex(src[i+2]):
			dst = append(dst, unhex(src[i+1])<<4|unhex(src[i+2]))
			i += 2
		default:
			return dst, fmt.Errorf("invalid escape sequence at position %d", i)
		}
	}
	return dst, nil
}

func isHex(c byte) bool {
	return (c >= '0' && c <= '9') || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')
}

func unhex(c byte) byte {
	switch {
	case c >= 'a':
		return c - 'a' + 10
	case c >= 'A':
		return c - 'A' + 10
	}
	return c - '0'
}
