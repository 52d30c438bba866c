package logger

import (
	"log/slog"
	"time"
)

// Standard field keys for structured logging. Use these keys consistently
// across all log statements so a session can be traced through the logs.
const (
	// Session identification
	KeySessionID = "session_id" // per-connection UUID
	KeyPeer      = "peer"       // remote address with port
	KeyPeerIP    = "peer_ip"    // remote IP without port
	KeyUserID    = "user_id"    // authenticated user id
	KeyUsername  = "username"   // authenticated username
	KeyGuest     = "guest"      // guest session indicator

	// Navigator
	KeyState  = "state"  // session state name
	KeyScreen = "screen" // screen handler name

	// Boards and content
	KeyBoardID  = "board_id"
	KeyThreadID = "thread_id"
	KeyPostID   = "post_id"
	KeyMailID   = "mail_id"
	KeyFolderID = "folder_id"
	KeyFileID   = "file_id"
	KeyRoom     = "room" // chat room name

	// Wire I/O
	KeyBytesIn  = "bytes_in"
	KeyBytesOut = "bytes_out"
	KeyEncoding = "encoding"

	// Outcomes
	KeyError      = "error"
	KeyDurationMs = "duration_ms"
	KeyCount      = "count"
	KeyReason     = "reason"
)

// Err returns a slog.Attr for an error value, tolerating nil.
func Err(err error) slog.Attr {
	if err == nil {
		return slog.String(KeyError, "<nil>")
	}
	return slog.String(KeyError, err.Error())
}

// SessionID returns a slog.Attr for a session id
func SessionID(id string) slog.Attr {
	return slog.String(KeySessionID, id)
}

// Peer returns a slog.Attr for a remote address
func Peer(addr string) slog.Attr {
	return slog.String(KeyPeer, addr)
}

// UserID returns a slog.Attr for a user id
func UserID(id int64) slog.Attr {
	return slog.Int64(KeyUserID, id)
}

// Username returns a slog.Attr for a username
func Username(name string) slog.Attr {
	return slog.String(KeyUsername, name)
}

// State returns a slog.Attr for a session state name
func State(s string) slog.Attr {
	return slog.String(KeyState, s)
}

// DurationMs returns a slog.Attr with the elapsed milliseconds since start
func DurationMs(start time.Time) slog.Attr {
	return slog.Float64(KeyDurationMs, Duration(start))
}
