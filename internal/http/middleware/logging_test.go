package middleware

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newJSONLogger(buf *bytes.Buffer) *slog.Logger {
	return slog.New(slog.NewJSONHandler(buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

func TestLoggingRecordsStatusAndPath(t *testing.T) {
	var buf bytes.Buffer
	handler := Logging(newJSONLogger(&buf), http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))

	recorder := httptest.NewRecorder()
	handler.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/api/students", nil))
	assert.Equal(t, http.StatusTeapot, recorder.Code)

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "DEBUG", entry["level"])
	assert.Equal(t, float64(http.StatusTeapot), entry["code"])
	assert.Equal(t, http.MethodGet, entry["method"])
	assert.Equal(t, "/api/students", entry["path"])
}

func TestLoggingReportsServerErrors(t *testing.T) {
	var buf bytes.Buffer
	handler := Logging(newJSONLogger(&buf), http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/api/upload/Ann", nil))

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "ERROR", entry["level"])
	assert.Equal(t, "failing /api/upload/Ann", entry["msg"])
}

func TestRemoveNewlines(t *testing.T) {
	assert.Equal(t, "ab", RemoveNewlines("a\r\nb"))
}
