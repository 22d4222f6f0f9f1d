package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewJSONDefault(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Options{Level: slog.LevelInfo, Writer: &buf})
	logger.Debug("hidden")
	logger.Info("conversion completed", "links", 3)

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "conversion completed", line["msg"])
	assert.EqualValues(t, 3, line["links"])
}

func TestNewText(t *testing.T) {
	var buf bytes.Buffer
	New(Options{Level: slog.LevelDebug, Format: "TEXT", Writer: &buf}).Debug("share link dropped", "index", 2)
	assert.Contains(t, buf.String(), "level=DEBUG")
	assert.Contains(t, buf.String(), "index=2")
}
