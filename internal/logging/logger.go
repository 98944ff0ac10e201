// Package logging builds the charm logger used by the translator and the CLI.
// Level, prefix and file output come from XTENSA2ARM_* environment variables.
package logging

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/charmbracelet/log"
)

const (
	envLevel  = "XTENSA2ARM_LOG_LEVEL"
	envPrefix = "XTENSA2ARM_LOG_PREFIX"
	envToFile = "XTENSA2ARM_LOG_TO_FILE"
)

// LoggerCloser is a logger that owns its output.
type LoggerCloser struct {
	*log.Logger
	closer io.Closer
}

// Close closes the underlying writer if it's closeable
func (lc *LoggerCloser) Close() error {
	if lc.closer != nil {
		return lc.closer.Close()
	}
	return nil
}

// ParseLevel maps a level name to a log level. Unknown names mean info.
func ParseLevel(name string) log.Level {
	switch name {
	case "debug":
		return log.DebugLevel
	case "warn":
		return log.WarnLevel
	case "error":
		return log.ErrorLevel
	default:
		return log.InfoLevel
	}
}

// NewLoggerWithWriter creates a logger writing to w.
func NewLoggerWithWriter(w io.Writer) *LoggerCloser {
	lg := log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		TimeFormat:      time.Kitchen,
		Level:           ParseLevel(os.Getenv(envLevel)),
	})

	prefix := os.Getenv(envPrefix)
	if prefix == "" {
		prefix = "xtensa2arm"
	}

	var closer io.Closer
	if c, ok := w.(io.Closer); ok && w != os.Stderr && w != os.Stdout {
		closer = c
	}

	return &LoggerCloser{
		Logger: lg.WithPrefix(prefix),
		closer: closer,
	}
}

// NewLogger creates a logger configured from the environment:
//
//	XTENSA2ARM_LOG_LEVEL   debug, info, warn, error (default: info)
//	XTENSA2ARM_LOG_PREFIX  message prefix (default: "xtensa2arm")
//	XTENSA2ARM_LOG_TO_FILE "1" writes to a timestamped file instead of stderr
func NewLogger() *LoggerCloser {
	output := io.Writer(os.Stderr)

	if os.Getenv(envToFile) == "1" {
		name := fmt.Sprintf("xtensa2arm-%s.log", time.Now().Format("20060102-150405"))
		// Falls back to stderr when the file cannot be created.
		if f, err := os.OpenFile(name, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0o644); err == nil {
			output = f
		}
	}

	return NewLoggerWithWriter(output)
}

// IsDebug reports whether the environment asks for debug logging.
func IsDebug() bool {
	return os.Getenv(envLevel) == "debug"
}
