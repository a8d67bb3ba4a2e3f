// Package logging holds the process wide zerolog logger.
//
// Components take a zerolog.Logger through options and fall back to
// Logger() when none is given.
package logging

import (
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Config configures the global logger
type Config struct {
	// Level is one of trace, debug, info, warn, error, disabled. Default: info
	Level string
	// Format is json or console. Default: json
	Format string
	// Caller adds file:line to every entry
	Caller bool
	// Output defaults to os.Stderr
	Output io.Writer
}

// DefaultConfig returns the configuration used before any Init call
func DefaultConfig() Config {
	return Config{
		Level:  "info",
		Format: "json",
		Output: os.Stderr,
	}
}

var (
	logger zerolog.Logger
	mu     sync.RWMutex
)

func init() {
	logger = build(DefaultConfig())
}

// Init replaces the global logger. Safe to call several times.
func Init(cfg Config) {
	l := build(cfg)
	mu.Lock()
	logger = l
	mu.Unlock()
}

// Logger returns the global logger
func Logger() zerolog.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return logger
}

func build(cfg Config) zerolog.Logger {
	if cfg.Output == nil {
		cfg.Output = os.Stderr
	}
	output := cfg.Output
	if strings.EqualFold(cfg.Format, "console") {
		output = zerolog.ConsoleWriter{Out: cfg.Output, TimeFormat: time.TimeOnly}
	}
	ctx := zerolog.New(output).Level(ParseLevel(cfg.Level)).With().Timestamp()
	if cfg.Caller {
		ctx = ctx.Caller()
	}
	return ctx.Logger()
}

// ParseLevel converts a level name, defaulting to info
func ParseLevel(level string) zerolog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "trace":
		return zerolog.TraceLevel
	case "debug":
		return zerolog.DebugLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	case "disabled", "off":
		return zerolog.Disabled
	default:
		return zerolog.InfoLevel
	}
}
