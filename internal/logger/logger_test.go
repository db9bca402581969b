package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, ParseLevel("DEBUG"))
	assert.Equal(t, slog.LevelWarn, ParseLevel("warning"))
	assert.Equal(t, slog.LevelError, ParseLevel("error"))
	assert.Equal(t, slog.LevelInfo, ParseLevel("nonsense"))
}

func TestRequestIDIsLogged(t *testing.T) {
	var buf bytes.Buffer
	InitializeWriter(&buf, "debug", "json")
	defer Initialize("info", "text")

	ctx := WithRequestID(context.Background(), "req-1")
	WithService("rental").InfoContext(ctx, "approved", "request_id_internal", 7)

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "req-1", line["request_id"])
	assert.Equal(t, "rental", line["service"])
	assert.Equal(t, "approved", line["msg"])
}

func TestRequestIDAbsent(t *testing.T) {
	var buf bytes.Buffer
	InitializeWriter(&buf, "info", "json")
	defer Initialize("info", "text")

	Info("plain")
	assert.NotContains(t, buf.String(), "request_id")
	assert.Equal(t, "", RequestID(context.Background()))
}
