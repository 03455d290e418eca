package logger

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestParseLogLevel(t *testing.T) {
	assert.Equal(t, zap.DebugLevel, ParseLogLevel("DEBUG"))
	assert.Equal(t, zap.WarnLevel, ParseLogLevel("warning"))
	assert.Equal(t, zap.ErrorLevel, ParseLogLevel(" error "))
	assert.Equal(t, zap.InfoLevel, ParseLogLevel(""))
	assert.Equal(t, zap.InfoLevel, ParseLogLevel("chatty"))
}

func TestSetLoggerReplacesGlobals(t *testing.T) {
	prev := L()
	t.Cleanup(func() { SetLogger(prev) })

	core, logs := observer.New(zap.DebugLevel)
	SetLogger(zap.New(core))

	L().Info("via package")
	zap.L().Info("via zap global")
	assert.Equal(t, 2, logs.Len())
}

func TestFindWritableLogPathHonoursOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "stretchsync.log")
	t.Setenv(LogPathEnv, path)

	got, err := FindWritableLogPath()
	require.NoError(t, err)
	assert.Equal(t, path, got)

	_, err = os.Stat(path)
	assert.NoError(t, err)
}

func TestInitializeWithFallbackWritesFile(t *testing.T) {
	prev := L()
	t.Cleanup(func() { SetLogger(prev); SetLevel(zap.InfoLevel) })

	path := filepath.Join(t.TempDir(), "stretchsync.log")
	t.Setenv(LogPathEnv, path)

	InitializeWithFallback("debug")
	L().Info("hello file")
	Sync()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "hello file")
}
