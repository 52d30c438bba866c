package encoding

import (
	"bytes"
	"testing"
)

func TestParse(t *testing.T) {
	cases := map[string]Encoding{
		"utf-8":     UTF8,
		"UTF8":      UTF8,
		"shift-jis": ShiftJIS,
		"sjis":      ShiftJIS,
		"cp437":     CP437,
		"petscii":   PETSCII,
		"":          UTF8,
	}
	for in, want := range cases {
		got, err := Parse(in)
		if err != nil {
			t.Fatalf("Parse(%q): %v", in, err)
		}
		if got != want {
			t.Errorf("Parse(%q) = %v, want %v", in, got, want)
		}
	}

	if _, err := Parse("ebcdic"); err == nil {
		t.Error("expected error for unsupported charset")
	}
}

func TestRoundTrip(t *testing.T) {
	cases := []struct {
		name string
		enc  Encoding
		text string
	}{
		{"utf8 ascii", UTF8, "hello, world"},
		{"utf8 japanese", UTF8, "こんにちは"},
		{"shiftjis ascii", ShiftJIS, "hello, world"},
		{"shiftjis japanese", ShiftJIS, "こんにちは世界"},
		{"cp437 ascii", CP437, "HOBBS v1.0 [main]"},
		{"petscii ascii", PETSCII, "Hello World 123!"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := tc.enc.Decode(tc.enc.Encode(tc.text))
			if got != tc.text {
				t.Errorf("round trip = %q, want %q", got, tc.text)
			}
		})
	}
}

func TestEncodeSubstitutesUnrepresentable(t *testing.T) {
	out := CP437.Encode("héllo こんにちは")
	if bytes.ContainsRune(out, 0x00) {
		t.Error("encode produced NUL bytes")
	}
	if !bytes.ContainsRune(out, '?') {
		t.Error("expected '?' substitution for kana in cp437")
	}

	// é exists in CP437 so it must not be substituted.
	if !bytes.Contains(out, CP437.Encode("é")) {
		t.Error("é should be representable in cp437")
	}
}

func TestDecodeNeverFails(t *testing.T) {
	garbage := [][]byte{
		{0xFF, 0xFE, 0x80},
		{0x81},             // lone shift-jis lead byte
		{0xE3, 0x81},       // truncated utf-8 sequence
		{0x00, 0x01, 0x02}, // control bytes
	}
	for _, enc := range []Encoding{UTF8, ShiftJIS, CP437, PETSCII} {
		for _, in := range garbage {
			got := enc.Decode(in)
			_ = got // must not panic and must return valid UTF-8
			if !bytes.Equal([]byte(got), []byte(string([]rune(got)))) {
				t.Errorf("%s.Decode(% x) produced invalid UTF-8", enc, in)
			}
		}
	}
}

func TestSequenceLength(t *testing.T) {
	if got := UTF8.SequenceLength('a'); got != 1 {
		t.Errorf("utf8 ascii length = %d", got)
	}
	if got := UTF8.SequenceLength(0xE3); got != 3 {
		t.Errorf("utf8 3-byte lead length = %d", got)
	}
	if got := ShiftJIS.SequenceLength(0x82); got != 2 {
		t.Errorf("shift-jis lead length = %d", got)
	}
	if got := ShiftJIS.SequenceLength('a'); got != 1 {
		t.Errorf("shift-jis ascii length = %d", got)
	}
	if got := CP437.SequenceLength(0xB0); got != 1 {
		t.Errorf("cp437 length = %d", got)
	}
}

func TestPETSCIICaseMapping(t *testing.T) {
	// Unshifted ASCII letters occupy swapped case positions in PETSCII.
	enc := PETSCII.Encode("aZ")
	if enc[0] != 0x41 {
		t.Errorf("'a' encoded as %#x, want 0x41", enc[0])
	}
	if enc[1] != 0xDA {
		t.Errorf("'Z' encoded as %#x, want 0xDA", enc[1])
	}
	if got := PETSCII.Decode(enc); got != "aZ" {
		t.Errorf("decode = %q, want %q", got, "aZ")
	}
}
