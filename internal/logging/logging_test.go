package logging

import (
	"bytes"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

func TestNewLevels(t *testing.T) {
	assert.Equal(t, zerolog.DebugLevel, New("debug", nil).GetLevel())
	assert.Equal(t, zerolog.WarnLevel, New(" WARN ", nil).GetLevel())
	assert.Equal(t, zerolog.InfoLevel, New("", nil).GetLevel())
	assert.Equal(t, zerolog.InfoLevel, New("loud", nil).GetLevel())
}

func TestNewWritesConsole(t *testing.T) {
	var buf bytes.Buffer
	log := New("info", &buf)

	log.Debug().Msg("hidden")
	log.Info().Str("source", "hackernews").Msg("collected")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "collected")
	assert.Contains(t, out, "source=hackernews")
}
