package logger

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLevel(t *testing.T) {
	tests := []struct {
		name     string
		expected zerolog.Level
	}{
		{"error", zerolog.ErrorLevel},
		{"warn", zerolog.WarnLevel},
		{"DEBUG", zerolog.DebugLevel},
		{"trace", zerolog.TraceLevel},
		{"info", zerolog.InfoLevel},
		{"plop", zerolog.InfoLevel},
		{"", zerolog.InfoLevel},
	}
	for _, tc := range tests {
		assert.Equal(t, tc.expected, Level(tc.name), tc.name)
	}
}

func TestNewWithWriter_JSON(t *testing.T) {
	t.Setenv("EVOTE_LOG_FORMAT_JSON", "1")
	t.Setenv("EVOTE_LOG_LEVEL", "info")

	var buf bytes.Buffer
	log := NewWithWriter(&buf)
	log.Info().Str("election_id", "e1").Msg("vote cast")

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "vote cast", line["message"])
	assert.Equal(t, "e1", line["election_id"])
}

func TestNewWithWriter_Console(t *testing.T) {
	t.Setenv("EVOTE_LOG_FORMAT_JSON", "")
	t.Setenv("EVOTE_LOG_LEVEL", "warn")

	var buf bytes.Buffer
	log := NewWithWriter(&buf)
	log.Info().Msg("hidden")
	log.Warn().Msg("shown")

	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "| WARN |")
}
