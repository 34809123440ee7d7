// Package logger provides structured logging using zerolog
package logger

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Logger is the logging surface handed to every component
type Logger interface {
	Trace() *zerolog.Event
	Debug() *zerolog.Event
	Info() *zerolog.Event
	Warn() *zerolog.Event
	Error() *zerolog.Event
	With() zerolog.Context
	WithComponent(component string) Logger
	SetLevel(level zerolog.Level)
}

// Config controls level, destination and encoding
type Config struct {
	Level      string `json:"level" yaml:"level"`
	Debug      bool   `json:"debug" yaml:"debug"`
	Output     string `json:"output" yaml:"output"` // stdout, stderr
	Format     string `json:"format" yaml:"format"` // console, json
	TimeFormat string `json:"time_format" yaml:"time_format"`
}

// DefaultConfig logs info and above to stderr in console format,
// honouring LOG_LEVEL, LOG_OUTPUT, LOG_FORMAT and DEBUG.
func DefaultConfig() Config {
	return Config{
		Level:  getEnvOrDefault("LOG_LEVEL", "info"),
		Debug:  getEnvBoolOrDefault("DEBUG", false),
		Output: getEnvOrDefault("LOG_OUTPUT", "stderr"),
		Format: getEnvOrDefault("LOG_FORMAT", "console"),
	}
}

type zlog struct {
	logger zerolog.Logger
}

// New builds a Logger from config
func New(config Config) (Logger, error) {
	var output io.Writer = os.Stderr
	if config.Output == "stdout" {
		output = os.Stdout
	}
	return NewWithWriter(config, output)
}

// NewWithWriter builds a Logger that writes to w
func NewWithWriter(config Config, w io.Writer) (Logger, error) {
	level := zerolog.InfoLevel

	if config.Debug {
		level = zerolog.DebugLevel
	} else if config.Level != "" {
		var err error

		level, err = zerolog.ParseLevel(strings.ToLower(config.Level))
		if err != nil {
			return nil, fmt.Errorf("parse log level: %w", err)
		}
	}

	timeFormat := time.RFC3339
	if config.TimeFormat != "" {
		timeFormat = config.TimeFormat
	}

	switch config.Format {
	case "", "console":
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: timeFormat}
	case "json":
	default:
		return nil, fmt.Errorf("unknown log format %q", config.Format)
	}

	return &zlog{
		logger: zerolog.New(w).Level(level).With().Timestamp().Logger(),
	}, nil
}

// NewTestLogger creates a no-op logger for testing that discards all output
func NewTestLogger() Logger {
	return &zlog{logger: zerolog.New(io.Discard).Level(zerolog.Disabled)}
}

func (l *zlog) Trace() *zerolog.Event { return l.logger.Trace() }
func (l *zlog) Debug() *zerolog.Event { return l.logger.Debug() }
func (l *zlog) Info() *zerolog.Event  { return l.logger.Info() }
func (l *zlog) Warn() *zerolog.Event  { return l.logger.Warn() }
func (l *zlog) Error() *zerolog.Event { return l.logger.Error() }
func (l *zlog) With() zerolog.Context { return l.logger.With() }

func (l *zlog) WithComponent(component string) Logger {
	return &zlog{logger: l.logger.With().Str("component", component).Logger()}
}

func (l *zlog) SetLevel(level zerolog.Level) {
	l.logger = l.logger.Level(level)
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}

	return defaultValue
}

func getEnvBoolOrDefault(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	value = strings.ToLower(value)

	return value == "true" || value == "1" || value == "yes" || value == "on"
}
