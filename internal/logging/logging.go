// Package logging builds the zerolog loggers used across gesturefield.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Config selects the log level, output format and optional log directory.
type Config struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"` // "console" or "json"
	Dir    string `mapstructure:"dir"`    // Also write a session log file here when set
}

// DefaultConfig returns info-level console logging without a file.
func DefaultConfig() Config {
	return Config{
		Level:  "info",
		Format: "console",
	}
}

// ParseLevel maps a level name to a zerolog level. Unknown names yield info.
func ParseLevel(name string) zerolog.Level {
	switch strings.ToUpper(name) {
	case "TRACE":
		return zerolog.TraceLevel
	case "DEBUG":
		return zerolog.DebugLevel
	case "WARN":
		return zerolog.WarnLevel
	case "ERROR":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}

// ValidLevel reports whether name is a recognised level.
func ValidLevel(name string) bool {
	switch strings.ToUpper(name) {
	case "TRACE", "DEBUG", "INFO", "WARN", "ERROR":
		return true
	}
	return false
}

// New creates a logger writing to every out. The first writer gets colors in
// console format; the others are written without.
func New(config Config, outs ...io.Writer) zerolog.Logger {
	if len(outs) == 0 {
		outs = []io.Writer{os.Stderr}
	}

	writers := make([]io.Writer, 0, len(outs))
	for i, out := range outs {
		if strings.EqualFold(config.Format, "json") {
			writers = append(writers, out)
			continue
		}
		writers = append(writers, zerolog.ConsoleWriter{
			Out:        out,
			TimeFormat: time.RFC3339,
			NoColor:    i > 0,
		})
	}

	var w io.Writer = writers[0]
	if len(writers) > 1 {
		w = zerolog.MultiLevelWriter(writers...)
	}

	return zerolog.New(w).Level(ParseLevel(config.Level)).With().Timestamp().Logger()
}

// LogFilePath builds the session log file path inside dir.
func LogFilePath(dir, name string, sessionStart time.Time) string {
	return filepath.Join(dir, fmt.Sprintf("%s.%s.log", name, sessionStart.Format("20060102_150405")))
}

// OpenFile creates dir if needed and opens a fresh session log file.
func OpenFile(dir, name string, sessionStart time.Time) (*os.File, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating log directory: %w", err)
	}
	f, err := os.OpenFile(LogFilePath(dir, name, sessionStart), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, fmt.Errorf("opening log file: %w", err)
	}
	return f, nil
}

// Component returns a sub-logger tagged with the component name.
func Component(logger zerolog.Logger, name string) zerolog.Logger {
	return logger.With().Str("component", name).Logger()
}
