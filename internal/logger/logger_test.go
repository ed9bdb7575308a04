package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodeEntry(t *testing.T, raw []byte) map[string]any {
	t.Helper()
	var entry map[string]any
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(raw), &entry))
	return entry
}

func TestNewLogger_EntryShape(t *testing.T) {
	var buf bytes.Buffer
	l := newLogger(&buf, "sync-server")

	l.Info().Str("collection", "notes").Msg("listening")

	entry := decodeEntry(t, buf.Bytes())
	assert.Equal(t, "sync-server", entry["role"])
	assert.Equal(t, "notes", entry["collection"])
	assert.Equal(t, "listening", entry["message"])
	assert.Contains(t, entry, zerolog.TimestampFieldName)
	assert.Contains(t, entry["func"], "TestNewLogger_EntryShape")
}

func TestNewLogger_Globals(t *testing.T) {
	require.NotNil(t, NewLogger("server"))
	assert.Equal(t, "func", zerolog.CallerFieldName)
	assert.Equal(t, zerolog.DebugLevel, zerolog.GlobalLevel())
}

func TestNop_DiscardsOutput(t *testing.T) {
	var buf bytes.Buffer
	l := Nop()
	l.Logger = l.Output(&buf)

	l.Info().Msg("dropped")

	assert.Empty(t, buf.String())
}

func TestWithStr_AddsFieldToChildOnly(t *testing.T) {
	var buf bytes.Buffer
	parent := newLogger(&buf, "client")

	child := parent.WithStr("trace_id", "abc")
	require.NotSame(t, parent, child)

	child.Info().Msg("child")
	entry := decodeEntry(t, buf.Bytes())
	assert.Equal(t, "abc", entry["trace_id"])
	assert.Equal(t, "client", entry["role"])

	buf.Reset()
	parent.Info().Msg("parent")
	assert.NotContains(t, decodeEntry(t, buf.Bytes()), "trace_id")
}

func TestFromContext(t *testing.T) {
	t.Run("empty context", func(t *testing.T) {
		require.NotNil(t, FromContext(context.Background()))
	})

	t.Run("attached logger", func(t *testing.T) {
		var buf bytes.Buffer
		zl := zerolog.New(&buf).With().Str("job", "replay").Logger()

		FromContext(zl.WithContext(context.Background())).Info().Msg("run")

		assert.Equal(t, "replay", decodeEntry(t, buf.Bytes())["job"])
	})
}

func TestFromRequest(t *testing.T) {
	var buf bytes.Buffer
	zl := zerolog.New(&buf).With().Str("trace_id", "t-1").Logger()
	req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	req = req.WithContext(zl.WithContext(req.Context()))

	FromRequest(req).Info().Msg("handled")

	assert.Equal(t, "t-1", decodeEntry(t, buf.Bytes())["trace_id"])
}

func TestNewClientLogger_WritesToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "client.log")
	l := NewClientLogger("sync-client", path)

	l.Info().Str("collection", "posts").Msg("replay finished")

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	entry := decodeEntry(t, data)
	assert.Equal(t, "sync-client", entry["role"])
	assert.Equal(t, "posts", entry["collection"])
	assert.Equal(t, "replay finished", entry["message"])
}

func TestDefaultClientLogPath(t *testing.T) {
	assert.Equal(t, defaultClientLogName, filepath.Base(defaultClientLogPath()))
}
