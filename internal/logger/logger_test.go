package logger

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"token-data-service/internal/config"
)

func TestNewLogger_WritesJSONToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "service.log")

	l, err := NewLogger(config.LoggerConfig{Level: "debug", Encoding: "json", Output: path})
	require.NoError(t, err)
	l.Named("TokenService").Debug("Endpoint probe failed")
	require.NoError(t, l.Sync())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"logger":"TokenService"`)
	assert.Contains(t, string(data), `"timestamp":`)
}

func TestNewLogger_InvalidLevelFallsBackToInfo(t *testing.T) {
	path := filepath.Join(t.TempDir(), "service.log")

	l, err := NewLogger(config.LoggerConfig{Level: "chatty", Output: path})
	require.NoError(t, err)
	assert.False(t, l.Core().Enabled(zap.DebugLevel))
	assert.True(t, l.Core().Enabled(zap.InfoLevel))
}
