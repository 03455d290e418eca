/* pkg/logger/paths.go */

package logger

import (
	"os"
	"path/filepath"
	"runtime"

	cerr "github.com/cockroachdb/errors"
	"go.uber.org/zap/zapcore"
)

// LogPathEnv overrides the log file location.
const LogPathEnv = "STRETCHSYNC_LOG_PATH"

// PlatformLogPaths returns candidate log paths in order of priority.
func PlatformLogPaths() []string {
	var paths []string
	if p := os.Getenv(LogPathEnv); p != "" {
		paths = append(paths, p)
	}

	switch runtime.GOOS {
	case "darwin":
		if home, err := os.UserHomeDir(); err == nil {
			paths = append(paths, filepath.Join(home, "Library", "Logs", "stretchsync", "stretchsync.log"))
		}
	case "windows":
		paths = append(paths, filepath.Join(os.Getenv("LOCALAPPDATA"), "stretchsync", "stretchsync.log"))
	default:
		if state := os.Getenv("XDG_STATE_HOME"); state != "" {
			paths = append(paths, filepath.Join(state, "stretchsync", "stretchsync.log"))
		} else if home, err := os.UserHomeDir(); err == nil {
			paths = append(paths, filepath.Join(home, ".local", "state", "stretchsync", "stretchsync.log"))
		}
	}

	return append(paths, filepath.Join(os.TempDir(), "stretchsync", "stretchsync.log"))
}

// FindWritableLogPath returns the first candidate path that can be opened
// for appending.
func FindWritableLogPath() (string, error) {
	for _, path := range PlatformLogPaths() {
		if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
			continue
		}
		file, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o600)
		if err != nil {
			continue
		}
		_ = file.Close()
		return path, nil
	}
	return "", cerr.New("no writable log path")
}

// GetLogFileWriter opens path for appending.
func GetLogFileWriter(path string) (zapcore.WriteSyncer, error) {
	file, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o600)
	if err != nil {
		return nil, cerr.Wrapf(err, "open log file %s", path)
	}
	return zapcore.AddSync(file), nil
}
