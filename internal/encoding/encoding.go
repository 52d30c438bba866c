// Package encoding maps Unicode text to and from the wire charsets a
// session can select: UTF-8, Shift_JIS, CP437 and PETSCII. Decoding is
// lossy-tolerant and never fails; invalid sequences become U+FFFD (or
// '?' on single-byte codepages). Encoding substitutes '?' for runes the
// target charset cannot represent.
package encoding

import (
	"fmt"
	"strings"
	"unicode/utf8"

	xenc "golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/japanese"
	"golang.org/x/text/transform"
)

// Encoding identifies a wire charset. The string form is what user
// records and config files store.
type Encoding string

const (
	UTF8     Encoding = "utf-8"
	ShiftJIS Encoding = "shift-jis"
	CP437    Encoding = "cp437"
	PETSCII  Encoding = "petscii"
)

// Default is the encoding of new sessions before any selection.
const Default = UTF8

// Parse maps a stored charset name to an Encoding. Common aliases are
// accepted; unknown names are an error so config typos surface early.
func Parse(s string) (Encoding, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "utf-8", "utf8", "":
		return UTF8, nil
	case "shift-jis", "shift_jis", "shiftjis", "sjis", "cp932":
		return ShiftJIS, nil
	case "cp437", "ibm437", "437":
		return CP437, nil
	case "petscii", "cbm":
		return PETSCII, nil
	default:
		return UTF8, fmt.Errorf("unknown encoding %q", s)
	}
}

// IsValid reports whether e is one of the supported charsets.
func (e Encoding) IsValid() bool {
	switch e {
	case UTF8, ShiftJIS, CP437, PETSCII:
		return true
	}
	return false
}

func (e Encoding) String() string {
	return string(e)
}

// Encode converts Unicode text to wire bytes. Unrepresentable runes
// become '?'. The result never contains a partial multi-byte sequence.
func (e Encoding) Encode(s string) []byte {
	switch e {
	case UTF8:
		return []byte(s)
	case ShiftJIS:
		return encodeWith(japanese.ShiftJIS.NewEncoder(), s)
	case CP437:
		return encodeWith(charmap.CodePage437.NewEncoder(), s)
	case PETSCII:
		return encodePETSCII(s)
	default:
		return []byte(s)
	}
}

// Decode converts wire bytes to Unicode text, replacing anything the
// charset cannot decode rather than failing.
func (e Encoding) Decode(b []byte) string {
	switch e {
	case UTF8:
		return decodeUTF8(b)
	case ShiftJIS:
		return decodeWith(japanese.ShiftJIS.NewDecoder(), b)
	case CP437:
		return decodeWith(charmap.CodePage437.NewDecoder(), b)
	case PETSCII:
		return decodePETSCII(b)
	default:
		return decodeUTF8(b)
	}
}

// SequenceLength returns the total byte length of the character whose
// first wire byte is b: 1 on single-byte charsets, up to 4 for UTF-8,
// 2 for Shift_JIS lead bytes. The line buffer uses this to accumulate a
// multi-byte sequence before committing it as one character.
func (e Encoding) SequenceLength(b byte) int {
	switch e {
	case UTF8:
		switch {
		case b < 0x80:
			return 1
		case b&0xE0 == 0xC0:
			return 2
		case b&0xF0 == 0xE0:
			return 3
		case b&0xF8 == 0xF0:
			return 4
		default:
			// Stray continuation byte; treat as a unit so the buffer
			// cannot stall waiting for a start byte.
			return 1
		}
	case ShiftJIS:
		if (b >= 0x81 && b <= 0x9F) || (b >= 0xE0 && b <= 0xFC) {
			return 2
		}
		return 1
	default:
		return 1
	}
}

func encodeWith(enc *xenc.Encoder, s string) []byte {
	t := xenc.ReplaceUnsupported(enc)
	out, _, err := transform.Bytes(t, []byte(s))
	if err != nil {
		// ReplaceUnsupported makes the encoder total; an error here
		// means malformed input UTF-8, which we sanitize and retry.
		out, _, _ = transform.Bytes(t, []byte(strings.ToValidUTF8(s, "?")))
	}
	return out
}

func decodeWith(dec transform.Transformer, b []byte) string {
	out, _, err := transform.Bytes(dec, b)
	if err != nil {
		// x/text decoders substitute rather than error for bad input;
		// a short trailing sequence is the remaining case.
		return string(out) + string(utf8.RuneError)
	}
	return string(out)
}

func decodeUTF8(b []byte) string {
	if utf8.Valid(b) {
		return string(b)
	}
	return strings.ToValidUTF8(string(b), string(utf8.RuneError))
}
