package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestNew_Levels(t *testing.T) {
	tests := []struct {
		level        string
		debugEnabled bool
	}{
		{"debug", true},
		{"info", false},
		{"warn", false},
		{"error", false},
		{"unknown", false}, // falls back to info
		{"", false},
	}

	for _, tt := range tests {
		t.Run("level_"+tt.level, func(t *testing.T) {
			log, err := New(tt.level, "json", "test-service")
			require.NoError(t, err)
			require.NotNil(t, log)
			defer log.Sync()

			assert.Equal(t, tt.debugEnabled, log.Core().Enabled(zapcore.DebugLevel))
		})
	}
}

func TestNew_ConsoleFormat(t *testing.T) {
	log, err := New("debug", "console", "test-service")
	require.NoError(t, err)
	require.NotNil(t, log)
	defer log.Sync()

	assert.True(t, log.Core().Enabled(zapcore.DebugLevel))
}

func TestNew_EmptyServiceName(t *testing.T) {
	log, err := New("info", "json", "")
	require.NoError(t, err)
	require.NotNil(t, log)
	defer log.Sync()
}

func TestNewNop(t *testing.T) {
	log := NewNop()
	require.NotNil(t, log)

	// Writing through a nop logger must not panic
	log.Info("ignored")
	log.Error("ignored")
}
