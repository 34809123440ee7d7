package logger

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewWithWriter_JSON(t *testing.T) {
	var buf bytes.Buffer

	log, err := NewWithWriter(Config{Level: "debug", Format: "json"}, &buf)
	require.NoError(t, err)

	log.WithComponent("prober").Debug().Str("target", "10.0.0.0/24").Msg("scanning")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "debug", entry["level"])
	assert.Equal(t, "prober", entry["component"])
	assert.Equal(t, "10.0.0.0/24", entry["target"])
	assert.Equal(t, "scanning", entry["message"])
}

func TestNewWithWriter_LevelFiltering(t *testing.T) {
	var buf bytes.Buffer

	log, err := NewWithWriter(Config{Level: "warn", Format: "json"}, &buf)
	require.NoError(t, err)

	log.Info().Msg("hidden")
	assert.Zero(t, buf.Len())

	log.Warn().Msg("shown")
	assert.Contains(t, buf.String(), "shown")

	log.SetLevel(zerolog.ErrorLevel)
	buf.Reset()
	log.Warn().Msg("hidden again")
	assert.Zero(t, buf.Len())
}

func TestNewWithWriter_DebugOverridesLevel(t *testing.T) {
	var buf bytes.Buffer

	log, err := NewWithWriter(Config{Level: "error", Debug: true, Format: "json"}, &buf)
	require.NoError(t, err)

	log.Debug().Msg("visible")
	assert.Contains(t, buf.String(), "visible")
}

func TestNewWithWriter_Errors(t *testing.T) {
	_, err := NewWithWriter(Config{Level: "loud"}, &bytes.Buffer{})
	require.Error(t, err)

	_, err = NewWithWriter(Config{Format: "xml"}, &bytes.Buffer{})
	require.Error(t, err)
}

func TestGetEnvBoolOrDefault(t *testing.T) {
	t.Setenv("SWITCHSCAN_TEST_BOOL", "yes")
	assert.True(t, getEnvBoolOrDefault("SWITCHSCAN_TEST_BOOL", false))

	t.Setenv("SWITCHSCAN_TEST_BOOL", "off")
	assert.False(t, getEnvBoolOrDefault("SWITCHSCAN_TEST_BOOL", true))

	assert.True(t, getEnvBoolOrDefault("SWITCHSCAN_TEST_UNSET", true))
}

func TestNewTestLogger(t *testing.T) {
	log := NewTestLogger()
	log.Error().Msg("discarded")
	log.WithComponent("x").Info().Msg("discarded")
}
