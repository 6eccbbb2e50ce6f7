package logging

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		enabled zapcore.Level
		skipped zapcore.Level
	}{
		{name: "json info", cfg: Config{Level: "info", Format: FormatJSON}, enabled: zapcore.InfoLevel, skipped: zapcore.DebugLevel},
		{name: "console debug", cfg: Config{Level: "debug", Format: FormatConsole}, enabled: zapcore.DebugLevel, skipped: zapcore.DebugLevel - 1},
		{name: "default format", cfg: Config{Level: "warn"}, enabled: zapcore.WarnLevel, skipped: zapcore.InfoLevel},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.NoError(t, tt.cfg.Validate())
			logger, err := New(tt.cfg)
			require.NoError(t, err)
			assert.True(t, logger.Core().Enabled(tt.enabled))
			assert.False(t, logger.Core().Enabled(tt.skipped))
		})
	}
}

func TestNew_Invalid(t *testing.T) {
	for _, cfg := range []Config{
		{Level: "loud", Format: FormatJSON},
		{Level: "info", Format: "xml"},
	} {
		assert.Error(t, cfg.Validate())
		_, err := New(cfg)
		assert.Error(t, err)
	}
}
