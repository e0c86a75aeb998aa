package logger

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewWithOptions_Levels(t *testing.T) {
	assert.Equal(t, zerolog.DebugLevel, New("development").Zerolog().GetLevel())
	assert.Equal(t, zerolog.InfoLevel, New("production").Zerolog().GetLevel())
	assert.Equal(t, zerolog.WarnLevel, NewWithOptions(Options{Env: "development", Level: "warn"}).Zerolog().GetLevel())
	assert.Equal(t, zerolog.InfoLevel, NewWithOptions(Options{Env: "production", Level: "loud"}).Zerolog().GetLevel())
}

func TestWithFields(t *testing.T) {
	l := Nop().WithFields(map[string]any{"product_id": "p1"}).With("review_id", "r1")
	assert.NotNil(t, l)
	l.Info("no output")
}

func TestNewWithOptions_JSONFields(t *testing.T) {
	var buf bytes.Buffer
	l := NewWithOptions(Options{Env: "production", Service: "audit-worker", Out: &buf})

	l.WithFields(map[string]any{"product_id": "p1"}).Error("Audit failed", errors.New("boom"))

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "audit-worker", entry["service"])
	assert.Equal(t, "p1", entry["product_id"])
	assert.Equal(t, "boom", entry["error"])
	assert.Equal(t, "error", entry["level"])
	assert.Equal(t, "Audit failed", entry["message"])
}

func TestNewWithOptions_LevelFilters(t *testing.T) {
	var buf bytes.Buffer
	l := NewWithOptions(Options{Env: "production", Level: "warn", Out: &buf})

	l.Info("dropped")
	assert.Zero(t, buf.Len())

	l.Warn("kept")
	assert.Contains(t, buf.String(), "kept")
}
