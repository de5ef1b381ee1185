// Package logging builds the process logger.
package logging

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const (
	EnvLevel   = "FORTRACE_LOG_LEVEL"
	EnvNoColor = "FORTRACE_LOG_NOCOLOR"
)

// Config selects level and output of the logger.
type Config struct {
	// Level is a zerolog level name; empty means "warn".
	Level   string
	Output  io.Writer
	NoColor bool
	// Time adds a timestamp to every line.
	Time bool
}

// FromEnv fills unset fields of cfg from the environment.
func FromEnv(cfg Config) Config {
	if cfg.Level == "" {
		cfg.Level = os.Getenv(EnvLevel)
	}
	if v := os.Getenv(EnvNoColor); v != "" {
		if b, err := strconv.ParseBool(v); err == nil && b {
			cfg.NoColor = true
		}
	}
	return cfg
}

// ParseLevel accepts zerolog level names in any case.
func ParseLevel(s string) (zerolog.Level, error) {
	s = strings.TrimSpace(strings.ToLower(s))
	if s == "" {
		return zerolog.WarnLevel, nil
	}
	lvl, err := zerolog.ParseLevel(s)
	if err != nil {
		return zerolog.NoLevel, fmt.Errorf("invalid log level %q", s)
	}
	return lvl, nil
}

// Configure returns a console logger for cfg and installs it as the global one.
func Configure(cfg Config) (zerolog.Logger, error) {
	lvl, err := ParseLevel(cfg.Level)
	if err != nil {
		return zerolog.Nop(), err
	}
	out := cfg.Output
	if out == nil {
		out = os.Stderr
	}
	cw := zerolog.ConsoleWriter{
		Out:        out,
		NoColor:    cfg.NoColor,
		TimeFormat: time.RFC3339,
	}
	if !cfg.Time {
		cw.PartsExclude = []string{zerolog.TimestampFieldName}
	}
	logger := zerolog.New(cw).Level(lvl).With().Timestamp().Str("app", "fortrace").Logger()
	log.Logger = logger
	return logger, nil
}
