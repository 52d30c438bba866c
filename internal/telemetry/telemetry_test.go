package telemetry

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/codes"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.False(t, cfg.Enabled)
	assert.Equal(t, "hobbs", cfg.ServiceName)
	assert.Equal(t, "dev", cfg.ServiceVersion)
	assert.Equal(t, "localhost:4317", cfg.Endpoint)
	assert.True(t, cfg.Insecure)
	assert.Equal(t, 1.0, cfg.SampleRate)
}

func TestProfilingDisabled(t *testing.T) {
	shutdown, err := InitProfiling(ProfilingConfig{Enabled: false})
	require.NoError(t, err)
	assert.False(t, IsProfilingEnabled())
	assert.NoError(t, shutdown())
}

func TestParseProfileType(t *testing.T) {
	for _, name := range defaultProfileTypes {
		if _, err := parseProfileType(name); err != nil {
			t.Errorf("default profile type %q rejected: %v", name, err)
		}
	}
	_, err := parseProfileType("heap_of_trouble")
	assert.Error(t, err)
}

func TestInitDisabled(t *testing.T) {
	ctx := context.Background()
	cfg := DefaultConfig()
	cfg.Enabled = false

	shutdown, err := Init(ctx, cfg)
	require.NoError(t, err)
	require.NotNil(t, shutdown)

	// Should be able to call shutdown without error
	err = shutdown(ctx)
	assert.NoError(t, err)

	// Should not be enabled
	assert.False(t, IsEnabled())
}

func TestTracerReturnsNoOp(t *testing.T) {
	// Reset state
	tracer = nil
	enabled = false

	// Without initialization, should return no-op tracer
	tr := Tracer()
	require.NotNil(t, tr)
}

func TestStartSpan(t *testing.T) {
	ctx := context.Background()

	// Even without initialization, StartSpan should work (no-op)
	newCtx, span := StartSpan(ctx, "test.operation")
	require.NotNil(t, newCtx)
	require.NotNil(t, span)

	// Should be able to end the span
	span.End()
}

func TestSpanFromContext(t *testing.T) {
	ctx := context.Background()

	// Should return a span even without active span
	span := SpanFromContext(ctx)
	require.NotNil(t, span)
}

func TestAddEvent(t *testing.T) {
	ctx := context.Background()

	// Should not panic with no active span
	require.NotPanics(t, func() {
		AddEvent(ctx, "test.event")
	})
}

func TestRecordError(t *testing.T) {
	ctx := context.Background()

	// Should not panic with nil error
	require.NotPanics(t, func() {
		RecordError(ctx, nil)
	})

	// Should not panic with error
	require.NotPanics(t, func() {
		RecordError(ctx, errors.New("test error"))
	})
}

func TestSetStatus(t *testing.T) {
	ctx := context.Background()

	// Should not panic
	require.NotPanics(t, func() {
		SetStatus(ctx, codes.Ok, "success")
	})

	require.NotPanics(t, func() {
		SetStatus(ctx, codes.Error, "failed")
	})
}

func TestSetAttributes(t *testing.T) {
	ctx := context.Background()

	// Should not panic
	require.NotPanics(t, func() {
		SetAttributes(ctx, ClientIP("192.168.1.1"))
	})
}

func TestTraceID(t *testing.T) {
	ctx := context.Background()

	// Without active span, should return empty string
	traceID := TraceID(ctx)
	assert.Equal(t, "", traceID)
}

func TestSpanID(t *testing.T) {
	ctx := context.Background()

	// Without active span, should return empty string
	spanID := SpanID(ctx)
	assert.Equal(t, "", spanID)
}

func TestAttributeHelpers(t *testing.T) {
	t.Run("ClientIP", func(t *testing.T) {
		attr := ClientIP("192.168.1.1")
		assert.Equal(t, AttrClientIP, string(attr.Key))
		assert.Equal(t, "192.168.1.1", attr.Value.AsString())
	})

	t.Run("ClientAddr", func(t *testing.T) {
		attr := ClientAddr("192.168.1.1:50123")
		assert.Equal(t, AttrClientAddr, string(attr.Key))
		assert.Equal(t, "192.168.1.1:50123", attr.Value.AsString())
	})

	t.Run("SessionID", func(t *testing.T) {
		attr := SessionID("a1b2c3d4")
		assert.Equal(t, AttrSessionID, string(attr.Key))
		assert.Equal(t, "a1b2c3d4", attr.Value.AsString())
	})

	t.Run("Username", func(t *testing.T) {
		attr := Username("alice")
		assert.Equal(t, AttrUsername, string(attr.Key))
		assert.Equal(t, "alice", attr.Value.AsString())
	})

	t.Run("UserID", func(t *testing.T) {
		attr := UserID(42)
		assert.Equal(t, AttrUserID, string(attr.Key))
		assert.Equal(t, int64(42), attr.Value.AsInt64())
	})

	t.Run("Screen", func(t *testing.T) {
		attr := Screen("mainmenu")
		assert.Equal(t, AttrScreen, string(attr.Key))
		assert.Equal(t, "mainmenu", attr.Value.AsString())
	})

	t.Run("BoardID", func(t *testing.T) {
		attr := BoardID(7)
		assert.Equal(t, AttrBoardID, string(attr.Key))
		assert.Equal(t, int64(7), attr.Value.AsInt64())
	})

	t.Run("ThreadID", func(t *testing.T) {
		attr := ThreadID(1234)
		assert.Equal(t, AttrThreadID, string(attr.Key))
		assert.Equal(t, int64(1234), attr.Value.AsInt64())
	})

	t.Run("MailID", func(t *testing.T) {
		attr := MailID(99)
		assert.Equal(t, AttrMailID, string(attr.Key))
		assert.Equal(t, int64(99), attr.Value.AsInt64())
	})

	t.Run("Room", func(t *testing.T) {
		attr := Room("lobby")
		assert.Equal(t, AttrRoom, string(attr.Key))
		assert.Equal(t, "lobby", attr.Value.AsString())
	})

	t.Run("Operation", func(t *testing.T) {
		attr := Operation("CreateThread")
		assert.Equal(t, AttrOperation, string(attr.Key))
		assert.Equal(t, "CreateThread", attr.Value.AsString())
	})

	t.Run("BlobKey", func(t *testing.T) {
		attr := BlobKey("files/retro.zip")
		assert.Equal(t, AttrBlobKey, string(attr.Key))
		assert.Equal(t, "files/retro.zip", attr.Value.AsString())
	})

	t.Run("BlobSize", func(t *testing.T) {
		attr := BlobSize(1024)
		assert.Equal(t, AttrBlobSize, string(attr.Key))
		assert.Equal(t, int64(1024), attr.Value.AsInt64())
	})
}

func TestStartSessionSpan(t *testing.T) {
	ctx := context.Background()

	newCtx, span := StartSessionSpan(ctx, "a1b2c3d4", "10.0.0.5:50123")
	require.NotNil(t, newCtx)
	require.NotNil(t, span)
	span.End()
}

func TestStartScreenSpan(t *testing.T) {
	ctx := context.Background()

	newCtx, span := StartScreenSpan(ctx, "boards", Username("alice"))
	require.NotNil(t, newCtx)
	require.NotNil(t, span)
	span.End()
}

func TestStartStoreSpan(t *testing.T) {
	ctx := context.Background()

	newCtx, span := StartStoreSpan(ctx, "CreatePost", BoardID(7), ThreadID(12))
	require.NotNil(t, newCtx)
	require.NotNil(t, span)
	span.End()
}

func TestStartBlobSpan(t *testing.T) {
	ctx := context.Background()

	newCtx, span := StartBlobSpan(ctx, "put", "files/retro.zip", BlobSize(2048))
	require.NotNil(t, newCtx)
	require.NotNil(t, span)
	span.End()
}
