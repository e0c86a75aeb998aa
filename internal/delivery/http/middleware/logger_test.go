package middleware

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Pesokrava/product_directory/internal/pkg/logger"
)

func logEntries(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()
	var entries []map[string]any
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		var entry map[string]any
		require.NoError(t, json.Unmarshal([]byte(line), &entry))
		entries = append(entries, entry)
	}
	return entries
}

func TestLogger_RecordsResponse(t *testing.T) {
	var buf bytes.Buffer
	log := logger.NewWithOptions(logger.Options{Env: "production", Level: "debug", Out: &buf})

	h := chimw.RequestID(Logger(log)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte("hello"))
	})))

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/v1/products", nil))

	entries := logEntries(t, &buf)
	require.Len(t, entries, 1)
	entry := entries[0]
	assert.Equal(t, "info", entry["level"])
	assert.Equal(t, "POST", entry["method"])
	assert.Equal(t, "/api/v1/products", entry["path"])
	assert.Equal(t, 201.0, entry["status"])
	assert.Equal(t, 5.0, entry["bytes"])
	assert.NotEmpty(t, entry["request_id"])
}

func TestLogger_Levels(t *testing.T) {
	tests := []struct {
		name   string
		method string
		status int
		level  string
	}{
		{"successful read", http.MethodGet, http.StatusOK, "debug"},
		{"client error", http.MethodGet, http.StatusNotFound, "info"},
		{"server error", http.MethodPost, http.StatusInternalServerError, "warn"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			log := logger.NewWithOptions(logger.Options{Env: "production", Level: "debug", Out: &buf})
			h := Logger(log)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
			}))

			h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(tt.method, "/x", nil))

			entries := logEntries(t, &buf)
			require.Len(t, entries, 1)
			assert.Equal(t, tt.level, entries[0]["level"])
		})
	}
}
