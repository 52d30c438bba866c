// Package session holds the per-connection session state and the
// process-wide registry of live sessions.
package session

import (
	"net"
	"time"

	"github.com/google/uuid"

	"github.com/hobbsbbs/hobbs/internal/encoding"
	"github.com/hobbsbbs/hobbs/internal/telnet"
	"github.com/hobbsbbs/hobbs/internal/terminal"
	"github.com/hobbsbbs/hobbs/pkg/store/models"
)

// State is the navigator position of a session. A session is in exactly
// one state at any instant; only its owning worker changes it.
type State int

const (
	StateWelcome State = iota
	StateLogin
	StateRegistration
	StateMainMenu
	StateBoard
	StateChat
	StateMail
	StateFiles
	StateNews
	StateProfile
	StateScript
	StateAdmin
	StateClosing
)

func (s State) String() string {
	switch s {
	case StateWelcome:
		return "welcome"
	case StateLogin:
		return "login"
	case StateRegistration:
		return "registration"
	case StateMainMenu:
		return "mainmenu"
	case StateBoard:
		return "board"
	case StateChat:
		return "chat"
	case StateMail:
		return "mail"
	case StateFiles:
		return "files"
	case StateNews:
		return "news"
	case StateProfile:
		return "profile"
	case StateScript:
		return "script"
	case StateAdmin:
		return "admin"
	case StateClosing:
		return "closing"
	default:
		return "unknown"
	}
}

// Session is the mutable per-connection state. It is owned by one
// worker goroutine; nothing else may touch it. Shared views go through
// Registry snapshots.
type Session struct {
	ID       string
	PeerAddr string
	PeerIP   string

	State   State
	User    *models.User
	IsGuest bool

	Encoding   encoding.Encoding
	OutputMode telnet.OutputMode
	Language   string
	Terminal   terminal.Profile

	ConnectedAt  time.Time
	LastActivity time.Time
}

// New creates a session for a freshly accepted connection.
func New(peerAddr string) *Session {
	ip := peerAddr
	if host, _, err := net.SplitHostPort(peerAddr); err == nil {
		ip = host
	}
	now := time.Now()
	return &Session{
		ID:           uuid.NewString(),
		PeerAddr:     peerAddr,
		PeerIP:       ip,
		State:        StateWelcome,
		Encoding:     encoding.Default,
		OutputMode:   telnet.ModeAnsi,
		Terminal:     terminal.LookupOrDefault(""),
		ConnectedAt:  now,
		LastActivity: now,
	}
}

// Authenticated reports whether a real user is bound to the session.
func (s *Session) Authenticated() bool {
	return s.User != nil
}

// Username returns the bound username, or "" for guests and visitors
// still in the auth flow.
func (s *Session) Username() string {
	if s.User == nil {
		return ""
	}
	return s.User.Username
}

// UserID returns the bound user id, zero when unauthenticated.
func (s *Session) UserID() int64 {
	if s.User == nil {
		return 0
	}
	return s.User.ID
}

// Role returns the effective role: the user's role when authenticated,
// Guest otherwise. Guests never gain write access this way.
func (s *Session) Role() models.Role {
	if s.User == nil {
		return models.RoleGuest
	}
	return s.User.Role
}

// Touch refreshes the last-activity timestamp.
func (s *Session) Touch() {
	s.LastActivity = time.Now()
}

// ApplyUser binds an authenticated user and adopts the stored
// preferences (encoding, language, terminal profile).
func (s *Session) ApplyUser(u *models.User) {
	s.User = u
	s.IsGuest = false
	s.Language = u.Language

	if enc, err := encoding.Parse(u.Encoding); err == nil {
		s.Encoding = enc
	}
	s.Terminal = terminal.LookupOrDefault(u.TerminalProfileName)
	if s.Terminal.Ansi {
		s.OutputMode = telnet.ModeAnsi
	} else {
		s.OutputMode = telnet.ModePlain
	}
}

// ClearUser drops authentication on logout. Encoding and language stay
// as-is so the welcome screen remains readable.
func (s *Session) ClearUser() {
	s.User = nil
	s.IsGuest = false
}
