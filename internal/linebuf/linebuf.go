// Package linebuf implements the single-line editor between the telnet
// codec and the screen handlers. It assembles input byte-at-a-time,
// honors the session charset for backspace over multi-byte characters,
// and produces the echo bytes the server writes back (the server owns
// echo per the negotiated telnet options).
package linebuf

import (
	"github.com/hobbsbbs/hobbs/internal/encoding"
)

// EchoMode controls what Feed returns as echo output.
type EchoMode int

const (
	// EchoNormal echoes the received character.
	EchoNormal EchoMode = iota
	// EchoPassword echoes '*' per character.
	EchoPassword
	// EchoMasked echoes the configured mask byte per character.
	EchoMasked
)

// Result classifies the outcome of feeding one byte.
type Result int

const (
	// Buffering means the line is not complete yet.
	Buffering Result = iota
	// Line means a terminator arrived; the decoded line is available.
	Line
	// Cancel means the user aborted the line with Ctrl-C.
	Cancel
	// Eof means the user sent Ctrl-D on an empty line.
	Eof
)

// DefaultMaxLen bounds a line when the caller does not configure one.
const DefaultMaxLen = 512

const (
	ctrlC     = 0x03
	ctrlD     = 0x04
	backspace = 0x08
	del       = 0x7F
)

// Buffer is the line editor state. Not safe for concurrent use; each
// session worker owns exactly one.
type Buffer struct {
	enc     encoding.Encoding
	maxLen  int
	mode    EchoMode
	mask    byte
	buf     []byte // committed line bytes in the wire charset
	charLen []int  // byte length of each committed character
	pending []byte // bytes of an incomplete multi-byte sequence
	need    int    // total length of the pending sequence
	swallow byte   // terminator byte to ignore if it arrives next
}

// New creates a line buffer for the given charset. maxLen <= 0 selects
// DefaultMaxLen.
func New(enc encoding.Encoding, maxLen int) *Buffer {
	if maxLen <= 0 {
		maxLen = DefaultMaxLen
	}
	return &Buffer{enc: enc, maxLen: maxLen}
}

// SetEncoding switches the charset. Any committed bytes are discarded;
// callers only switch between prompts, never mid-line.
func (b *Buffer) SetEncoding(enc encoding.Encoding) {
	b.enc = enc
	b.Reset()
}

// SetEcho selects the echo policy for subsequent input. mask is only
// used with EchoMasked.
func (b *Buffer) SetEcho(mode EchoMode, mask byte) {
	b.mode = mode
	b.mask = mask
}

// Reset discards all buffered input.
func (b *Buffer) Reset() {
	b.buf = b.buf[:0]
	b.charLen = b.charLen[:0]
	b.pending = b.pending[:0]
	b.need = 0
}

// Len returns the number of committed characters.
func (b *Buffer) Len() int {
	return len(b.charLen)
}

// Feed processes one inbound data byte. It returns the result, the
// decoded line when result is Line, and the bytes to echo back to the
// client (already masked per the echo mode; empty when nothing should
// be echoed).
func (b *Buffer) Feed(c byte) (Result, string, []byte) {
	// A CRLF or LF-CR pair is one terminator: swallow the partner byte
	// when it immediately follows.
	if b.swallow != 0 {
		sw := b.swallow
		b.swallow = 0
		if c == sw || (sw == '\n' && c == 0x00) {
			return Buffering, "", nil
		}
	}

	switch c {
	case '\r':
		b.swallow = '\n' // also absorbs a trailing NUL
		return b.finishLine()
	case '\n':
		b.swallow = '\r'
		return b.finishLine()
	case ctrlC:
		b.Reset()
		return Cancel, "", []byte("\r\n")
	case ctrlD:
		if b.Len() == 0 && len(b.pending) == 0 {
			return Eof, "", nil
		}
		return Buffering, "", nil
	case backspace, del:
		return b.eraseChar()
	}

	// Continuation of a pending multi-byte sequence.
	if b.need > 0 {
		b.pending = append(b.pending, c)
		if len(b.pending) < b.need {
			return Buffering, "", nil
		}
		seq := append([]byte(nil), b.pending...)
		b.pending = b.pending[:0]
		b.need = 0
		return b.commit(seq)
	}

	// Other C0 control bytes are ignored.
	if c < 0x20 {
		return Buffering, "", nil
	}

	if n := b.enc.SequenceLength(c); n > 1 {
		b.pending = append(b.pending, c)
		b.need = n
		return Buffering, "", nil
	}

	return b.commit([]byte{c})
}

// commit appends one complete character (as wire bytes) to the line.
// Overflow discards the character without echo.
func (b *Buffer) commit(seq []byte) (Result, string, []byte) {
	if len(b.buf)+len(seq) > b.maxLen {
		return Buffering, "", nil
	}
	b.buf = append(b.buf, seq...)
	b.charLen = append(b.charLen, len(seq))

	switch b.mode {
	case EchoPassword:
		return Buffering, "", []byte{'*'}
	case EchoMasked:
		return Buffering, "", []byte{b.mask}
	default:
		return Buffering, "", seq
	}
}

// eraseChar removes the last committed character. An incomplete pending
// sequence is dropped silently since nothing was echoed for it yet.
func (b *Buffer) eraseChar() (Result, string, []byte) {
	if len(b.pending) > 0 {
		b.pending = b.pending[:0]
		b.need = 0
		return Buffering, "", nil
	}
	if len(b.charLen) == 0 {
		return Buffering, "", nil
	}
	last := b.charLen[len(b.charLen)-1]
	b.charLen = b.charLen[:len(b.charLen)-1]
	b.buf = b.buf[:len(b.buf)-last]
	return Buffering, "", []byte("\b \b")
}

// finishLine decodes and resets the buffer. A pending incomplete
// sequence at terminator time is dropped.
func (b *Buffer) finishLine() (Result, string, []byte) {
	line := b.enc.Decode(b.buf)
	b.Reset()
	return Line, line, []byte("\r\n")
}
