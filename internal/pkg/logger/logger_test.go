package logger_test

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ammerola/kasir-be/internal/pkg/logger"
)

func decodeLine(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	var entry map[string]any
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &entry))
	return entry
}

func TestLogger_ContextValuesAreAttached(t *testing.T) {
	var buf bytes.Buffer
	log := logger.NewLogger(&logger.LogConfig{Level: "debug", Format: "json", Output: &buf, ServiceName: "kasir-api"})

	ctx := context.WithValue(context.Background(), logger.ContextKeyRequestID, "req-1")
	ctx = logger.WithJobID(ctx, "job-9")
	log.InfoContext(ctx, "report built", slog.String("kind", "sales"))

	entry := decodeLine(t, &buf)
	assert.Equal(t, "report built", entry["msg"])
	assert.Equal(t, "req-1", entry["request_id"])
	assert.Equal(t, "job-9", entry["job_id"])
	assert.Equal(t, "sales", entry["kind"])
	assert.Equal(t, "kasir-api", entry["service"])
	assert.Equal(t, "INFO", entry["severity"])
}

func TestLogger_LevelFilter(t *testing.T) {
	var buf bytes.Buffer
	log := logger.NewLogger(&logger.LogConfig{Level: "warn", Format: "json", Output: &buf})

	log.Info("hidden")
	assert.Zero(t, buf.Len())

	log.Warn("shown")
	assert.Contains(t, buf.String(), "shown")
}

func TestLogger_SanitizesSecrets(t *testing.T) {
	tests := []struct {
		name   string
		log    func(*logger.Logger)
		absent string
	}{
		{
			name:   "redacts_sensitive_attribute_key",
			log:    func(l *logger.Logger) { l.Info("connect", slog.String("db_password", "hunter2")) },
			absent: "hunter2",
		},
		{
			name:   "redacts_inline_secret_in_message",
			log:    func(l *logger.Logger) { l.Info("token=abc123 issued") },
			absent: "abc123",
		},
		{
			name:   "redacts_password_in_database_url",
			log:    func(l *logger.Logger) { l.Info("dialing", slog.String("url", "postgresql://kasir:s3cret@db:5432/kasir")) },
			absent: "s3cret",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			tt.log(logger.NewLogger(&logger.LogConfig{Level: "info", Format: "json", Output: &buf}))
			assert.NotContains(t, buf.String(), tt.absent)
			assert.Contains(t, buf.String(), "REDACTED")
		})
	}
}

func TestLogger_TextFormat(t *testing.T) {
	var buf bytes.Buffer
	log := logger.NewLogger(&logger.LogConfig{Level: "debug", Format: "text", Output: &buf})

	log.With(slog.String("component", "cache")).Debug("cache miss", slog.String("key", "report:sales"))

	line := buf.String()
	assert.Contains(t, line, "cache miss")
	assert.Contains(t, line, "component")
	assert.Contains(t, line, "report:sales")
	assert.True(t, strings.HasSuffix(line, "\n"))
}

func TestFromContext(t *testing.T) {
	var buf bytes.Buffer
	log := logger.NewLogger(&logger.LogConfig{Level: "info", Format: "json", Output: &buf})

	ctx := logger.WithLogger(context.Background(), log)
	ctx = context.WithValue(ctx, logger.ContextKeyPath, "/api/v1/reports/sales")
	logger.FromContext(ctx).Info("served")

	assert.Contains(t, buf.String(), "/api/v1/reports/sales")
}
