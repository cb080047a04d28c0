// Package logger configures the process-wide zerolog logger.
package logger

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// LogConfig holds logging configuration.
type LogConfig struct {
	Level  string // trace, debug, info, warn, error
	Format string // console, json
	Output string // stdout, stderr, or a file path
}

// DefaultConfig returns console logging at info level on stderr.
func DefaultConfig() LogConfig {
	return LogConfig{
		Level:  "info",
		Format: "console",
		Output: "stderr",
	}
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// Setup installs the global logger. The returned Closer releases the log
// file when Output names one; the caller owns it.
func Setup(cfg LogConfig) (io.Closer, error) {
	level, err := zerolog.ParseLevel(strings.ToLower(cfg.Level))
	if err != nil {
		return nil, fmt.Errorf("parsing log level: %w", err)
	}

	var (
		output io.Writer
		closer io.Closer = nopCloser{}
	)
	switch cfg.Output {
	case "", "stderr":
		output = os.Stderr
	case "stdout":
		output = os.Stdout
	default:
		f, err := os.OpenFile(cfg.Output, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, fmt.Errorf("opening log file: %w", err)
		}
		output, closer = f, f
	}

	zerolog.SetGlobalLevel(level)
	log.Logger = New(output, cfg.Format)
	return closer, nil
}

// New builds a logger writing to w in the given format. Unknown formats
// fall back to console.
func New(w io.Writer, format string) zerolog.Logger {
	if strings.ToLower(format) != "json" {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}
	}
	return zerolog.New(w).With().Timestamp().Logger()
}

// WithComponent returns a logger with a component field.
func WithComponent(component string) zerolog.Logger {
	return log.Logger.With().Str("component", component).Logger()
}

// Nop returns a disabled logger.
func Nop() zerolog.Logger {
	return zerolog.Nop()
}
