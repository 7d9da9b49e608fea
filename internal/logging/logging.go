// Package logging builds the zerolog loggers used by the recflow binaries.
package logging

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"

	rferrors "github.com/AdamDotNet/recflow/pkg/common/errors"
)

// Formats accepted by Config.Format.
const (
	FormatConsole = "console"
	FormatJSON    = "json"
)

// Config holds logger configuration.
type Config struct {
	// Level is a zerolog level name (trace, debug, info, warn, error).
	// Default: "info"
	Level string

	// Format is FormatConsole or FormatJSON.
	// Default: FormatConsole
	Format string

	// Output receives log lines. Default: os.Stderr
	Output io.Writer
}

// DefaultConfig returns a default configuration.
func DefaultConfig() Config {
	return Config{
		Level:  "info",
		Format: FormatConsole,
		Output: os.Stderr,
	}
}

// New builds a logger with a timestamp on every event.
func New(config Config) (zerolog.Logger, error) {
	if config.Output == nil {
		config.Output = os.Stderr
	}
	if config.Level == "" {
		config.Level = DefaultConfig().Level
	}

	level, err := zerolog.ParseLevel(strings.ToLower(config.Level))
	if err != nil {
		return zerolog.Nop(), rferrors.NewValidationError("logging", "level", config.Level, "unknown level").
			WithHint("use trace, debug, info, warn or error")
	}

	out := config.Output
	switch strings.ToLower(config.Format) {
	case "", FormatConsole:
		out = zerolog.ConsoleWriter{Out: config.Output, TimeFormat: time.RFC3339, NoColor: !isTerminal(config.Output)}
	case FormatJSON:
	default:
		return zerolog.Nop(), rferrors.NewValidationError("logging", "format", config.Format, "unknown format").
			WithHint("use console or json")
	}

	return zerolog.New(out).Level(level).With().Timestamp().Logger(), nil
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	info, err := f.Stat()
	return err == nil && info.Mode()&os.ModeCharDevice != 0
}
