package telnet

import "strings"

// StripCSI removes CSI escape sequences (ESC [ parameters final-byte)
// from s. Other escape sequences are left alone; BBS screens only emit
// CSI for color and cursor movement.
func StripCSI(s string) string {
	if !strings.Contains(s, "\x1b[") {
		return s
	}

	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		if s[i] == 0x1b && i+1 < len(s) && s[i+1] == '[' {
			j := i + 2
			// Parameter and intermediate bytes are 0x20..0x3F; the
			// final byte 0x40..0x7E terminates the sequence.
			for j < len(s) && s[j] >= 0x20 && s[j] <= 0x3F {
				j++
			}
			if j < len(s) {
				j++ // consume the final byte
			}
			i = j - 1
			continue
		}
		b.WriteByte(s[i])
	}
	return b.String()
}
