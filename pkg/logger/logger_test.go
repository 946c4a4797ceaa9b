package logger_test

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/courier/pkg/logger"
)

func TestNewWithWriter_ContextAttrs(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	log := logger.NewWithWriter(&buf, logger.Config{Level: "debug"}, logger.ContextAttrs)

	ctx := logger.WithAttrs(context.Background(), slog.String("template", "welcome"))
	ctx = logger.WithAttrs(ctx, slog.String("config", "primary"))
	log.DebugContext(ctx, "sending")

	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	require.Equal(t, "sending", rec["msg"])
	require.Equal(t, map[string]any{"template": "welcome", "config": "primary"}, rec["mail"])
}

func TestNewWithWriter_NoAttrs(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	log := logger.NewWithWriter(&buf, logger.Config{}, logger.ContextAttrs, nil)
	log.InfoContext(context.Background(), "plain")

	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	require.NotContains(t, rec, "mail")
}

func TestNewWithWriter_LevelAndFormat(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	log := logger.NewWithWriter(&buf, logger.Config{Level: "warn", Format: "text"})

	log.Info("dropped")
	require.Empty(t, buf.String())

	log.Warn("kept", slog.String("k", "v"))
	require.Contains(t, buf.String(), "msg=kept")
	require.Contains(t, buf.String(), "k=v")
}

func TestParseLevel(t *testing.T) {
	t.Parallel()

	require.Equal(t, slog.LevelDebug, logger.ParseLevel("DEBUG"))
	require.Equal(t, slog.LevelWarn, logger.ParseLevel("warning"))
	require.Equal(t, slog.LevelError, logger.ParseLevel(" error "))
	require.Equal(t, slog.LevelInfo, logger.ParseLevel("verbose"))
}

func TestNewWithSentry_NoDSNFallsBack(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	log := logger.NewWithSentry(&buf, logger.Config{})
	log.Info("ready")
	require.Contains(t, buf.String(), `"msg":"ready"`)
}
