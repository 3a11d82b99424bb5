package logger

import (
	"testing"

	"github.com/rmera/goff/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestNew(t *testing.T) {
	for _, f := range config.LogFormats {
		t.Run(f, func(t *testing.T) {
			l, err := New(config.LogConfig{Level: "warn", Format: f})
			require.NoError(t, err)
			assert.False(t, l.Desugar().Core().Enabled(zapcore.InfoLevel))
			assert.True(t, l.Desugar().Core().Enabled(zapcore.WarnLevel))
			assert.True(t, zap.L().Core().Enabled(zapcore.ErrorLevel))
		})
	}
	_, err := New(config.LogConfig{Level: "loud", Format: "json"})
	assert.Error(t, err)
	_, err = New(config.LogConfig{Level: "info", Format: "tint"})
	assert.Error(t, err)
}
