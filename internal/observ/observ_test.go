package observ_test

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alanyang/threadkeeper/internal/observ"
)

func TestParseLevel(t *testing.T) {
	for in, want := range map[string]slog.Level{
		"":        slog.LevelInfo,
		"DEBUG":   slog.LevelDebug,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
	} {
		got, err := observ.ParseLevel(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := observ.ParseLevel("loud")
	assert.Error(t, err)
}

func TestNewLogger_JSONToStdout(t *testing.T) {
	var buf bytes.Buffer
	logger, closer, err := observ.NewLogger(observ.LogConfig{Level: "info"}, &buf)
	require.NoError(t, err)
	defer closer.Close()

	logger.Info("thread opened", "thread_id", "42")

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "thread opened", line["msg"])
	assert.Equal(t, "42", line["thread_id"])
}

func TestNewLogger_RejectsUnknownFormat(t *testing.T) {
	_, _, err := observ.NewLogger(observ.LogConfig{Format: "xml"}, &bytes.Buffer{})
	assert.Error(t, err)
}

func TestNewFileSink_RoundsUpToMegabytes(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bot.log")

	assert.Equal(t, 5, observ.NewFileSink(path, 5*1024*1024, 5).MaxSize)
	assert.Equal(t, 1, observ.NewFileSink(path, 10, 5).MaxSize)
	assert.Equal(t, 2, observ.NewFileSink(path, 1024*1024+1, 5).MaxSize)
}

func TestMetrics_NilIsNoop(t *testing.T) {
	var m *observ.Metrics
	assert.NotPanics(t, func() {
		m.Command("recruit", "ok")
		m.Delivery("channel")
		m.TaskRun("due-poll", "ok", time.Second)
	})
}

func TestMetrics_Handler(t *testing.T) {
	m := observ.NewMetrics()
	m.ThreadOpened("recruitment")
	m.Delivery("direct")

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `threadkeeper_threads_opened_total{kind="recruitment"} 1`)
	assert.Contains(t, rec.Body.String(), `threadkeeper_reminder_deliveries_total{outcome="direct"} 1`)
}
