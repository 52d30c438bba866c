package telnet

import (
	"bufio"
	"net"
	"strings"
	"sync"
	"time"

	"github.com/hobbsbbs/hobbs/internal/encoding"
)

// OutputMode selects whether ANSI escape sequences pass through to the
// client or are stripped for dumb terminals.
type OutputMode int

const (
	ModeAnsi OutputMode = iota
	ModePlain
)

func (m OutputMode) String() string {
	if m == ModePlain {
		return "plain"
	}
	return "ansi"
}

// Conn wraps a net.Conn with telnet awareness. Read returns IAC-stripped
// data bytes; WriteText applies the outbound discipline (LF to CRLF, CSI
// stripping in plain mode, charset encoding, IAC escaping). A Conn is
// owned by a single session worker; only Write and Close are safe to
// call from other goroutines (the registry force-close path).
type Conn struct {
	conn    net.Conn
	reader  *bufio.Reader
	parser  Parser
	writeMu sync.Mutex

	sizeMu sync.RWMutex
	width  int
	height int

	// enc and mode are read and written only by the owning worker.
	enc  encoding.Encoding
	mode OutputMode
}

// Wrap prepares a freshly accepted connection. Encoding and output mode
// start at their defaults until the session applies preferences.
func Wrap(conn net.Conn) *Conn {
	c := &Conn{
		conn:   conn,
		reader: bufio.NewReaderSize(conn, 256),
		enc:    encoding.Default,
		mode:   ModeAnsi,
	}
	c.parser.OnNAWS = c.setWindowSize
	return c
}

// Negotiate sends the initial option burst. Client responses arrive
// interleaved with data and are absorbed by the parser.
func (c *Conn) Negotiate() error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	_, err := c.conn.Write(Negotiation)
	return err
}

// Read fills p with stripped data bytes. It blocks until at least one
// data byte is available or the underlying read fails; chunks that were
// pure protocol chatter do not cause a zero-byte return.
func (c *Conn) Read(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}

	for {
		buf := make([]byte, len(p))
		n, err := c.reader.Read(buf)

		data := c.parser.Parse(p[:0], buf[:n])
		if len(data) > 0 {
			return len(data), nil
		}
		if err != nil {
			return 0, err
		}
	}
}

// ReadByte returns the next stripped data byte.
func (c *Conn) ReadByte() (byte, error) {
	var one [1]byte
	for {
		b, err := c.reader.ReadByte()
		if err != nil {
			return 0, err
		}
		if data := c.parser.Parse(one[:0], []byte{b}); len(data) == 1 {
			return data[0], nil
		}
	}
}

// WriteText encodes Unicode text for the wire: LF becomes CRLF, CSI
// sequences are stripped when the session is in plain mode, the text is
// encoded with the session charset and 0xFF data bytes are escaped.
func (c *Conn) WriteText(s string) error {
	if c.mode == ModePlain {
		s = StripCSI(s)
	}
	s = crlf(s)
	return c.WriteRaw(c.enc.Encode(s))
}

// WriteRaw writes bytes with IAC escaping but no other transformation.
// The line buffer echo path uses this so echoed bytes mirror exactly
// what the client sent.
func (c *Conn) WriteRaw(p []byte) error {
	if len(p) == 0 {
		return nil
	}

	escaped := p
	for i := 0; i < len(p); i++ {
		if p[i] == IAC {
			escaped = make([]byte, 0, len(p)+4)
			for _, b := range p {
				if b == IAC {
					escaped = append(escaped, IAC, IAC)
				} else {
					escaped = append(escaped, b)
				}
			}
			break
		}
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	_, err := c.conn.Write(escaped)
	return err
}

// crlf converts every bare LF to CRLF. CRLF already present is kept.
func crlf(s string) string {
	if !strings.Contains(s, "\n") {
		return s
	}
	var b strings.Builder
	b.Grow(len(s) + 8)
	prev := byte(0)
	for i := 0; i < len(s); i++ {
		ch := s[i]
		if ch == '\n' && prev != '\r' {
			b.WriteByte('\r')
		}
		b.WriteByte(ch)
		prev = ch
	}
	return b.String()
}

// SetEncoding switches the wire charset for subsequent WriteText calls
// and reports it for inbound decoding.
func (c *Conn) SetEncoding(e encoding.Encoding) {
	c.enc = e
}

// Encoding returns the current wire charset.
func (c *Conn) Encoding() encoding.Encoding {
	return c.enc
}

// SetOutputMode switches between ANSI passthrough and plain output.
func (c *Conn) SetOutputMode(m OutputMode) {
	c.mode = m
}

// OutputMode returns the current output mode.
func (c *Conn) OutputMode() OutputMode {
	return c.mode
}

func (c *Conn) setWindowSize(w, h int) {
	c.sizeMu.Lock()
	c.width = w
	c.height = h
	c.sizeMu.Unlock()
}

// WindowSize returns the client-reported terminal size, zero until a
// NAWS subnegotiation arrives.
func (c *Conn) WindowSize() (width, height int) {
	c.sizeMu.RLock()
	defer c.sizeMu.RUnlock()
	return c.width, c.height
}

// SetReadDeadline bounds the next Read; the session worker sets this
// before every line read to implement idle timeouts.
func (c *Conn) SetReadDeadline(t time.Time) error {
	return c.conn.SetReadDeadline(t)
}

// RemoteAddr returns the peer address.
func (c *Conn) RemoteAddr() net.Addr {
	return c.conn.RemoteAddr()
}

// Close closes the transport.
func (c *Conn) Close() error {
	return c.conn.Close()
}
