package logfx_test

import (
	"bytes"
	"testing"

	"github.com/mertssmnoglu/redisfx/internal/logfx"
	"github.com/stretchr/testify/assert"
)

func TestNewLogger(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		config *logfx.Config
	}{
		{
			name: "ValidConfig",
			config: &logfx.Config{
				Level:      "INFO",
				PrettyMode: true,
			},
		},
		{
			name: "InvalidLogLevelFallsBackToInfo",
			config: &logfx.Config{
				Level:      "not-a-level",
				PrettyMode: false,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var buf bytes.Buffer

			logger := logfx.NewLogger(
				logfx.WithWriter(&buf),
				logfx.WithConfig(tt.config),
			)

			assert.NotNil(t, logger)

			logger.Info("hello", "key", "value")
			assert.NotEmpty(t, buf.String())
		})
	}
}

func TestLevelEncoderRoundTrips(t *testing.T) {
	t.Parallel()

	for _, name := range []string{"TRACE", "DEBUG", "INFO", "WARN", "ERROR", "FATAL", "PANIC"} {
		level, err := logfx.ParseLevel(name, true)
		assert.NoError(t, err)
		assert.Equal(t, name, logfx.LevelEncoder(*level))
	}
}

func TestParseLevelRejectsUnknown(t *testing.T) {
	t.Parallel()

	_, err := logfx.ParseLevel("nope", true)
	assert.ErrorIs(t, err, logfx.ErrUnknownLevel)
}
