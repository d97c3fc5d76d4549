package logging

import (
	"bytes"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

func TestLevels(t *testing.T) {
	var buf bytes.Buffer
	assert.Equal(t, zerolog.InfoLevel, SetupWithWriter("production", "", &buf).GetLevel())
	assert.Equal(t, zerolog.DebugLevel, SetupWithWriter("development", "", &buf).GetLevel())
	assert.Equal(t, zerolog.WarnLevel, SetupWithWriter("development", "WARN", &buf).GetLevel())
	assert.Equal(t, zerolog.InfoLevel, SetupWithWriter("production", "chatty", &buf).GetLevel())
}

func TestJSONOutput(t *testing.T) {
	var buf bytes.Buffer
	logger := SetupWithWriter("json", "", &buf)
	logger.Info().Str("component", "scheduler").Msg("started")

	assert.Contains(t, buf.String(), `"component":"scheduler"`)
	assert.Contains(t, buf.String(), `"message":"started"`)
}

func TestConsoleOutput(t *testing.T) {
	var buf bytes.Buffer
	logger := SetupWithWriter("production", "", &buf)
	logger.Info().Msg("hello")
	assert.Contains(t, buf.String(), "hello")
	assert.NotContains(t, buf.String(), "{")
}
