package telemetry

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Attribute keys for session and store spans. Client keys follow
// OpenTelemetry semantic conventions; board-specific keys use the
// "bbs." prefix.
const (
	AttrClientIP   = "client.ip"
	AttrClientAddr = "client.address"

	AttrSessionID = "bbs.session_id"
	AttrUsername  = "bbs.username"
	AttrUserID    = "bbs.user_id"
	AttrScreen    = "bbs.screen"
	AttrBoardID   = "bbs.board_id"
	AttrThreadID  = "bbs.thread_id"
	AttrMailID    = "bbs.mail_id"
	AttrRoom      = "bbs.room"
	AttrOperation = "bbs.operation"

	AttrBlobKey  = "blob.key"
	AttrBlobSize = "blob.size"
)

// ClientIP creates a client IP attribute.
func ClientIP(ip string) attribute.KeyValue {
	return attribute.String(AttrClientIP, ip)
}

// ClientAddr creates a client address attribute (ip:port).
func ClientAddr(addr string) attribute.KeyValue {
	return attribute.String(AttrClientAddr, addr)
}

// SessionID creates a session identifier attribute.
func SessionID(id string) attribute.KeyValue {
	return attribute.String(AttrSessionID, id)
}

// Username creates a username attribute.
func Username(name string) attribute.KeyValue {
	return attribute.String(AttrUsername, name)
}

// UserID creates a user id attribute.
func UserID(id int64) attribute.KeyValue {
	return attribute.Int64(AttrUserID, id)
}

// Screen creates a screen-name attribute.
func Screen(name string) attribute.KeyValue {
	return attribute.String(AttrScreen, name)
}

// BoardID creates a board id attribute.
func BoardID(id int64) attribute.KeyValue {
	return attribute.Int64(AttrBoardID, id)
}

// ThreadID creates a thread id attribute.
func ThreadID(id int64) attribute.KeyValue {
	return attribute.Int64(AttrThreadID, id)
}

// MailID creates a mail id attribute.
func MailID(id int64) attribute.KeyValue {
	return attribute.Int64(AttrMailID, id)
}

// Room creates a chat room attribute.
func Room(name string) attribute.KeyValue {
	return attribute.String(AttrRoom, name)
}

// Operation creates an operation-name attribute.
func Operation(op string) attribute.KeyValue {
	return attribute.String(AttrOperation, op)
}

// BlobKey creates a blob key attribute.
func BlobKey(key string) attribute.KeyValue {
	return attribute.String(AttrBlobKey, key)
}

// BlobSize creates a blob size attribute.
func BlobSize(n int) attribute.KeyValue {
	return attribute.Int64(AttrBlobSize, int64(n))
}

// StartSessionSpan starts a span covering one caller session.
func StartSessionSpan(ctx context.Context, sessionID, peerAddr string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	all := append([]attribute.KeyValue{
		SessionID(sessionID),
		ClientAddr(peerAddr),
	}, attrs...)
	return StartSpan(ctx, "bbs.session", trace.WithAttributes(all...))
}

// StartScreenSpan starts a span covering one screen handler run.
func StartScreenSpan(ctx context.Context, screen string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	all := append([]attribute.KeyValue{Screen(screen)}, attrs...)
	return StartSpan(ctx, "bbs.screen."+screen, trace.WithAttributes(all...))
}

// StartStoreSpan starts a span covering one store operation.
func StartStoreSpan(ctx context.Context, operation string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	all := append([]attribute.KeyValue{Operation(operation)}, attrs...)
	return StartSpan(ctx, "store."+operation, trace.WithAttributes(all...))
}

// StartBlobSpan starts a span covering one blob-store operation.
func StartBlobSpan(ctx context.Context, operation, key string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	all := append([]attribute.KeyValue{
		Operation(operation),
		BlobKey(key),
	}, attrs...)
	return StartSpan(ctx, "blob."+operation, trace.WithAttributes(all...))
}
