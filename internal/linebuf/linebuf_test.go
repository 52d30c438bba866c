package linebuf

import (
	"bytes"
	"testing"

	"github.com/hobbsbbs/hobbs/internal/encoding"
)

// feedAll pushes bytes through the buffer and returns the first
// non-Buffering result with its line and concatenated echo output.
func feedAll(t *testing.T, b *Buffer, in []byte) (Result, string, []byte) {
	t.Helper()
	var echoed []byte
	for _, c := range in {
		res, line, echo := b.Feed(c)
		echoed = append(echoed, echo...)
		if res != Buffering {
			return res, line, echoed
		}
	}
	return Buffering, "", echoed
}

func TestSimpleLine(t *testing.T) {
	b := New(encoding.UTF8, 0)
	res, line, echo := feedAll(t, b, []byte("hello\r\n"))
	if res != Line || line != "hello" {
		t.Fatalf("got (%v, %q), want (Line, hello)", res, line)
	}
	if !bytes.Equal(echo, []byte("hello\r\n")) {
		t.Errorf("echo = %q", echo)
	}
}

func TestTerminatorVariants(t *testing.T) {
	for _, term := range []string{"\r", "\n", "\r\n", "\n\r", "\r\x00"} {
		b := New(encoding.UTF8, 0)
		res, line, _ := feedAll(t, b, append([]byte("x"), term...))
		if res != Line || line != "x" {
			t.Errorf("terminator % x: got (%v, %q)", term, res, line)
		}
		// The partner byte of a two-byte terminator must not start a
		// new empty line.
		res2, line2, _ := feedAll(t, b, []byte("y\r"))
		if res2 != Line || line2 != "y" {
			t.Errorf("terminator % x: second line got (%v, %q)", term, res2, line2)
		}
	}
}

func TestTwoBareCRsAreTwoLines(t *testing.T) {
	b := New(encoding.UTF8, 0)
	res, line, _ := feedAll(t, b, []byte("a\r"))
	if res != Line || line != "a" {
		t.Fatalf("first: (%v, %q)", res, line)
	}
	res, line, _ = feedAll(t, b, []byte("\r"))
	if res != Line || line != "" {
		t.Errorf("second bare CR should be an empty line, got (%v, %q)", res, line)
	}
}

func TestPasswordEcho(t *testing.T) {
	b := New(encoding.UTF8, 0)
	b.SetEcho(EchoPassword, 0)
	res, line, echo := feedAll(t, b, []byte("secret42\r"))
	if res != Line || line != "secret42" {
		t.Fatalf("got (%v, %q)", res, line)
	}
	if !bytes.Equal(echo, []byte("********\r\n")) {
		t.Errorf("echo = %q, want 8 stars", echo)
	}
}

func TestMaskedEcho(t *testing.T) {
	b := New(encoding.UTF8, 0)
	b.SetEcho(EchoMasked, '#')
	_, _, echo := feedAll(t, b, []byte("ab"))
	if !bytes.Equal(echo, []byte("##")) {
		t.Errorf("echo = %q, want ##", echo)
	}
}

func TestBackspaceSingleByte(t *testing.T) {
	b := New(encoding.UTF8, 0)
	res, line, _ := feedAll(t, b, []byte("abx\b\r"))
	if res != Line || line != "ab" {
		t.Errorf("got (%v, %q), want (Line, ab)", res, line)
	}

	// Backspace on an empty buffer echoes nothing.
	b2 := New(encoding.UTF8, 0)
	_, _, echo := b2.Feed('\b')
	if len(echo) != 0 {
		t.Errorf("empty-buffer backspace echoed %q", echo)
	}
}

func TestBackspaceMultiByteCharacter(t *testing.T) {
	b := New(encoding.UTF8, 0)
	in := append([]byte("a"), []byte("あ")...) // 3-byte character
	in = append(in, del, '\r')
	res, line, _ := feedAll(t, b, in)
	if res != Line || line != "a" {
		t.Errorf("got (%v, %q): backspace must remove the whole character", res, line)
	}
}

func TestMultiByteAccumulatesBeforeEcho(t *testing.T) {
	b := New(encoding.UTF8, 0)
	seq := []byte("あ")

	_, _, echo := b.Feed(seq[0])
	if len(echo) != 0 {
		t.Fatalf("echoed %q before sequence complete", echo)
	}
	_, _, echo = b.Feed(seq[1])
	if len(echo) != 0 {
		t.Fatalf("echoed %q before sequence complete", echo)
	}
	_, _, echo = b.Feed(seq[2])
	if !bytes.Equal(echo, seq) {
		t.Errorf("echo = % x, want the complete sequence % x", echo, seq)
	}
}

func TestShiftJISBackspace(t *testing.T) {
	b := New(encoding.ShiftJIS, 0)
	in := encoding.ShiftJIS.Encode("aあ")
	in = append(in, backspace, '\r')
	res, line, _ := feedAll(t, b, in)
	if res != Line || line != "a" {
		t.Errorf("got (%v, %q), want (Line, a)", res, line)
	}
}

func TestCancelAndEof(t *testing.T) {
	b := New(encoding.UTF8, 0)
	res, _, _ := feedAll(t, b, []byte("abc\x03"))
	if res != Cancel {
		t.Errorf("Ctrl-C: got %v, want Cancel", res)
	}
	if b.Len() != 0 {
		t.Error("buffer not cleared after cancel")
	}

	res, _, _ = b.Feed(ctrlD)
	if res != Eof {
		t.Errorf("Ctrl-D on empty buffer: got %v, want Eof", res)
	}

	// Ctrl-D mid-line is ignored.
	b.Feed('q')
	res, _, _ = b.Feed(ctrlD)
	if res != Buffering {
		t.Errorf("Ctrl-D on non-empty buffer: got %v, want Buffering", res)
	}
}

func TestOverflowDiscardsUntilTerminator(t *testing.T) {
	b := New(encoding.UTF8, 4)
	res, line, _ := feedAll(t, b, []byte("abcdefgh\r"))
	if res != Line || line != "abcd" {
		t.Errorf("got (%v, %q), want (Line, abcd)", res, line)
	}
}

func TestControlBytesIgnored(t *testing.T) {
	b := New(encoding.UTF8, 0)
	res, line, _ := feedAll(t, b, []byte{0x01, 0x07, 'o', 'k', 0x1b, '\r'})
	if res != Line || line != "ok" {
		t.Errorf("got (%v, %q), want (Line, ok)", res, line)
	}
}
