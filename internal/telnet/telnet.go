// Package telnet implements the subset of RFC 854 the BBS speaks: IAC
// command stripping, the initial option negotiation burst, NAWS
// subnegotiation, CRLF output discipline and per-session charset
// encoding at the wire boundary.
package telnet

// Telnet protocol constants.
const (
	IAC  byte = 255 // Interpret As Command
	DONT byte = 254
	DO   byte = 253
	WONT byte = 252
	WILL byte = 251
	SB   byte = 250 // Subnegotiation Begin
	SE   byte = 240 // Subnegotiation End

	OptBinary byte = 0  // Binary transmission
	OptEcho   byte = 1  // Echo
	OptSGA    byte = 3  // Suppress Go Ahead
	OptNAWS   byte = 31 // Negotiate About Window Size
)

// maxSubnegotiation bounds accumulated SB data so a misbehaving client
// cannot grow the buffer without ever sending SE.
const maxSubnegotiation = 256

// parserState tracks the IAC state machine position between chunks.
type parserState int

const (
	stateData parserState = iota
	stateIAC
	stateWill
	stateWont
	stateDo
	stateDont
	stateSB
	stateSBData
	stateSBIAC
)

// Parser strips interleaved IAC commands from an inbound byte stream.
// State persists across Parse calls, so commands split over chunk
// boundaries are handled. The zero value is ready to use.
type Parser struct {
	state    parserState
	sbOption byte
	sbData   []byte

	// OnNAWS, when set, receives window-size subnegotiations. All
	// other subnegotiations are consumed and dropped.
	OnNAWS func(width, height int)
}

// Parse appends the data bytes of src (IAC commands removed, IAC IAC
// unescaped to a literal 0xFF) to dst and returns the result.
func (p *Parser) Parse(dst, src []byte) []byte {
	for _, b := range src {
		switch p.state {
		case stateData:
			if b == IAC {
				p.state = stateIAC
			} else {
				dst = append(dst, b)
			}

		case stateIAC:
			switch b {
			case IAC:
				dst = append(dst, IAC) // escaped literal 0xFF
				p.state = stateData
			case WILL:
				p.state = stateWill
			case WONT:
				p.state = stateWont
			case DO:
				p.state = stateDo
			case DONT:
				p.state = stateDont
			case SB:
				p.state = stateSB
			default:
				// NOP, BRK, IP, AYT and friends carry no option byte.
				p.state = stateData
			}

		case stateWill, stateWont, stateDo, stateDont:
			// Option byte consumed; the server ignores client requests
			// beyond the initial negotiation it sent itself.
			p.state = stateData

		case stateSB:
			p.sbOption = b
			p.sbData = p.sbData[:0]
			p.state = stateSBData

		case stateSBData:
			if b == IAC {
				p.state = stateSBIAC
			} else if len(p.sbData) < maxSubnegotiation {
				p.sbData = append(p.sbData, b)
			}

		case stateSBIAC:
			switch b {
			case SE:
				p.finishSubnegotiation()
				p.state = stateData
			case IAC:
				if len(p.sbData) < maxSubnegotiation {
					p.sbData = append(p.sbData, IAC)
				}
				p.state = stateSBData
			default:
				// Malformed subnegotiation; drop it.
				p.state = stateData
			}
		}
	}
	return dst
}

// finishSubnegotiation handles a completed IAC SB ... IAC SE block.
func (p *Parser) finishSubnegotiation() {
	if p.sbOption != OptNAWS || p.OnNAWS == nil {
		return
	}
	if len(p.sbData) < 4 {
		return
	}
	width := int(p.sbData[0])<<8 | int(p.sbData[1])
	height := int(p.sbData[2])<<8 | int(p.sbData[3])
	if width <= 0 || height <= 0 {
		return
	}
	p.OnNAWS(width, height)
}

// Negotiation is the option burst the server emits on accept: the server
// controls echo (for password masking), both sides suppress go-ahead,
// and the client is asked to report its window size.
var Negotiation = []byte{
	IAC, DO, OptEcho,
	IAC, WILL, OptEcho,
	IAC, WILL, OptSGA,
	IAC, DO, OptSGA,
	IAC, DO, OptNAWS,
}
