package encoding

// PETSCII (shifted / "business" mode) support. x/text has no PETSCII
// codec, so the mapping is built in. The printable ASCII range survives
// with the upper/lower case halves swapped relative to ASCII; a handful
// of CBM graphics bytes map onto Unicode box-drawing and shade runes.
// Everything else decodes to '?' and unrepresentable runes encode to '?'.

var petsciiGraphics = map[byte]rune{
	0xA0: ' ', // shift-space
	0xA6: '▒',
	0xAC: '▗',
	0xBB: '▐',
	0xBC: '▝',
	0xBE: '▘',
	0xBF: '▀',
	0xC0: '─',
	0xDB: '┼',
	0xDD: '│',
	0xE9: '▌',
}

var petsciiFromRune map[rune]byte

func init() {
	petsciiFromRune = make(map[rune]byte, len(petsciiGraphics))
	for b, r := range petsciiGraphics {
		petsciiFromRune[r] = b
	}
}

func encodePETSCII(s string) []byte {
	out := make([]byte, 0, len(s))
	for _, r := range s {
		switch {
		case r == '\r' || r == '\n':
			out = append(out, byte(r))
		case r >= 'a' && r <= 'z':
			// ASCII lowercase lives where ASCII uppercase sits.
			out = append(out, byte(r-'a'+0x41))
		case r >= 'A' && r <= 'Z':
			out = append(out, byte(r-'A'+0xC1))
		case r >= 0x20 && r < 0x41:
			out = append(out, byte(r))
		case r == '[' || r == ']':
			out = append(out, byte(r))
		default:
			if b, ok := petsciiFromRune[r]; ok {
				out = append(out, b)
			} else {
				out = append(out, '?')
			}
		}
	}
	return out
}

func decodePETSCII(b []byte) string {
	out := make([]rune, 0, len(b))
	for _, c := range b {
		switch {
		case c == '\r' || c == '\n' || c == '\t':
			out = append(out, rune(c))
		case c >= 0x41 && c <= 0x5A:
			out = append(out, rune(c-0x41+'a'))
		case c >= 0xC1 && c <= 0xDA:
			out = append(out, rune(c-0xC1+'A'))
		case c >= 0x20 && c < 0x41:
			out = append(out, rune(c))
		case c == '[' || c == ']':
			out = append(out, rune(c))
		default:
			if r, ok := petsciiGraphics[c]; ok {
				out = append(out, r)
			} else if c < 0x20 {
				// control byte, drop
			} else {
				out = append(out, '?')
			}
		}
	}
	return string(out)
}
