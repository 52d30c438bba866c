package telnet

import (
	"bytes"
	"net"
	"testing"
	"time"

	"github.com/hobbsbbs/hobbs/internal/encoding"
)

func TestParserStripsCommands(t *testing.T) {
	var p Parser

	in := []byte{'h', 'i', IAC, WILL, OptEcho, '!', IAC, DO, OptNAWS}
	got := p.Parse(nil, in)
	if !bytes.Equal(got, []byte("hi!")) {
		t.Errorf("data = %q, want %q", got, "hi!")
	}
}

func TestParserEscapedIAC(t *testing.T) {
	var p Parser

	got := p.Parse(nil, []byte{'a', IAC, IAC, 'b'})
	if !bytes.Equal(got, []byte{'a', 0xFF, 'b'}) {
		t.Errorf("data = % x, want a ff b", got)
	}
}

func TestParserSplitAcrossChunks(t *testing.T) {
	var p Parser

	// An IAC WILL command split over three chunks must not leak bytes.
	got := p.Parse(nil, []byte{'x', IAC})
	got = p.Parse(got, []byte{WILL})
	got = p.Parse(got, []byte{OptEcho, 'y'})
	if !bytes.Equal(got, []byte("xy")) {
		t.Errorf("data = %q, want %q", got, "xy")
	}
}

func TestParserNAWS(t *testing.T) {
	var width, height int
	p := Parser{OnNAWS: func(w, h int) { width, height = w, h }}

	in := []byte{IAC, SB, OptNAWS, 0, 132, 0, 43, IAC, SE, 'z'}
	got := p.Parse(nil, in)
	if !bytes.Equal(got, []byte("z")) {
		t.Errorf("data = %q, want %q", got, "z")
	}
	if width != 132 || height != 43 {
		t.Errorf("window = %dx%d, want 132x43", width, height)
	}
}

func TestParserDropsUnknownSubnegotiation(t *testing.T) {
	var p Parser
	p.OnNAWS = func(w, h int) { t.Error("NAWS callback for TERM-TYPE subnegotiation") }

	in := []byte{IAC, SB, 24, 0, 'v', 't', '1', '0', '0', IAC, SE, 'k'}
	got := p.Parse(nil, in)
	if !bytes.Equal(got, []byte("k")) {
		t.Errorf("data = %q, want %q", got, "k")
	}
}

func TestParserNoStrayIAC(t *testing.T) {
	// Property: parsed data never contains 0xFF except via IAC IAC.
	inputs := [][]byte{
		{IAC},
		{IAC, SB, OptNAWS, 0, 80},
		{'a', IAC, 251},
		{IAC, IAC, IAC, IAC},
		{0x00, 0xFE, IAC, DONT, 0xFF, 'q'},
	}
	for _, in := range inputs {
		var p Parser
		got := p.Parse(nil, in)
		iacs := bytes.Count(got, []byte{0xFF})
		pairs := bytes.Count(in, []byte{IAC, IAC})
		if iacs > pairs {
			t.Errorf("input % x: %d stray IAC bytes in output % x", in, iacs-pairs, got)
		}
	}
}

func TestStripCSI(t *testing.T) {
	cases := map[string]string{
		"\x1b[1;32mgreen\x1b[0m": "green",
		"plain text":             "plain text",
		"\x1b[2J\x1b[Hcleared":   "cleared",
		"tail\x1b[":              "tail", // truncated sequence at end
	}
	for in, want := range cases {
		if got := StripCSI(in); got != want {
			t.Errorf("StripCSI(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestConnReadWrite(t *testing.T) {
	client, server := net.Pipe()
	defer client.Close()

	conn := Wrap(server)
	defer conn.Close()

	// Client sends data with an embedded negotiation response.
	go func() {
		client.Write([]byte{'o', 'k', IAC, WONT, OptNAWS, '\r', '\n'})
	}()

	buf := make([]byte, 16)
	conn.SetReadDeadline(time.Now().Add(time.Second))
	n, err := conn.Read(buf)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if string(buf[:n]) != "ok\r\n" {
		t.Errorf("read %q, want %q", buf[:n], "ok\r\n")
	}
}

func TestConnWriteTextCRLFAndEscaping(t *testing.T) {
	client, server := net.Pipe()
	defer client.Close()

	conn := Wrap(server)
	defer conn.Close()

	done := make(chan []byte, 1)
	go func() {
		buf := make([]byte, 64)
		n, _ := client.Read(buf)
		done <- buf[:n]
	}()

	if err := conn.WriteText("one\ntwo\n"); err != nil {
		t.Fatalf("write: %v", err)
	}
	got := <-done
	if string(got) != "one\r\ntwo\r\n" {
		t.Errorf("wire = %q, want %q", got, "one\r\ntwo\r\n")
	}
}

func TestConnPlainModeStripsAnsi(t *testing.T) {
	client, server := net.Pipe()
	defer client.Close()

	conn := Wrap(server)
	defer conn.Close()
	conn.SetOutputMode(ModePlain)

	done := make(chan []byte, 1)
	go func() {
		buf := make([]byte, 64)
		n, _ := client.Read(buf)
		done <- buf[:n]
	}()

	if err := conn.WriteText("\x1b[1mbold\x1b[0m\n"); err != nil {
		t.Fatalf("write: %v", err)
	}
	if got := <-done; string(got) != "bold\r\n" {
		t.Errorf("wire = %q, want %q", got, "bold\r\n")
	}
}

func TestConnEncodesOutbound(t *testing.T) {
	client, server := net.Pipe()
	defer client.Close()

	conn := Wrap(server)
	defer conn.Close()
	conn.SetEncoding(encoding.ShiftJIS)

	done := make(chan []byte, 1)
	go func() {
		buf := make([]byte, 64)
		n, _ := client.Read(buf)
		done <- buf[:n]
	}()

	if err := conn.WriteText("あ"); err != nil {
		t.Fatalf("write: %v", err)
	}
	got := <-done
	want := encoding.ShiftJIS.Encode("あ")
	if !bytes.Equal(got, want) {
		t.Errorf("wire = % x, want % x", got, want)
	}
}
