package logging

import (
	"bytes"
	"encoding/json"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComponentField(t *testing.T) {
	var buf bytes.Buffer
	logger := Component(NewLogger(&buf), "media")
	logger.Warn().Str("clip", "c1").Msg("load failed")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "media", entry["component"])
	assert.Equal(t, "c1", entry["clip"])
	assert.Equal(t, "warn", entry["level"])
}

func TestNewLoggerMultiWriter(t *testing.T) {
	var a, b bytes.Buffer
	logger := NewLogger(&a, &b)
	logger.Info().Msg("hello")
	assert.Contains(t, a.String(), "hello")
	assert.Contains(t, b.String(), "hello")
}

func TestInitWriterCopiesToExtraWriters(t *testing.T) {
	var console, file bytes.Buffer
	InitWriter(&console, true, &file)
	t.Cleanup(func() { InitWriter(io.Discard, false) })

	logger := WithComponent("studio")
	logger.Debug().Msg("studio ready")

	assert.Contains(t, console.String(), "studio ready")
	var entry map[string]any
	require.NoError(t, json.Unmarshal(file.Bytes(), &entry))
	assert.Equal(t, "studio", entry["component"])
	assert.Equal(t, "debug", entry["level"])
}
