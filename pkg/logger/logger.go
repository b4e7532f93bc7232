package logger

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	charmLog "github.com/charmbracelet/log"

	"relaybot/pkg/config"
)

const envPrefix = "RELAYBOT_LOG_"

// Option adjusts how the process logger is built.
type Option func(*settings)

// WithSecrets masks every non-empty secret wherever it appears in a log
// message or string attribute. Telegram API errors carry the bot token in the
// request URL, so the token is always passed here.
func WithSecrets(secrets ...string) Option {
	return func(s *settings) {
		for _, secret := range secrets {
			if secret = strings.TrimSpace(secret); secret != "" {
				s.secrets = append(s.secrets, secret)
			}
		}
	}
}

type settings struct {
	format    string
	level     slog.Level
	addSource bool
	secrets   []string
}

// New builds the process logger. Output goes to cfg.File when set, otherwise
// to stderr.
func New(cfg config.LoggingConfig, opts ...Option) (*slog.Logger, error) {
	writer := io.Writer(os.Stderr)
	if path := strings.TrimSpace(cfg.File); path != "" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("create log directory: %w", err)
		}
		file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, fmt.Errorf("open log file: %w", err)
		}
		writer = file
	}

	return NewWithWriter(cfg, writer, opts...)
}

// NewWithWriter builds a logger writing to writer. Format "text" uses the
// charm handler; "json" emits one Entry per line.
func NewWithWriter(cfg config.LoggingConfig, writer io.Writer, opts ...Option) (*slog.Logger, error) {
	s, err := resolve(cfg)
	if err != nil {
		return nil, err
	}
	for _, opt := range opts {
		opt(&s)
	}

	var handler slog.Handler
	switch s.format {
	case "text":
		handler = charmLog.NewWithOptions(writer, charmLog.Options{
			Level:           charmLevel(s.level),
			ReportTimestamp: true,
			ReportCaller:    s.addSource,
			Formatter:       charmLog.TextFormatter,
		})
	default:
		handler = newEntryHandler(writer, s.level, s.addSource)
	}

	return slog.New(newRedactHandler(handler, s.secrets)), nil
}

// resolve merges file settings with RELAYBOT_LOG_* overrides.
func resolve(cfg config.LoggingConfig) (settings, error) {
	format := firstNonEmpty(env("FORMAT"), cfg.Format, "text")
	if format != "json" && format != "text" {
		return settings{}, fmt.Errorf("unsupported log format %q", format)
	}

	level, err := parseLevel(firstNonEmpty(env("LEVEL"), cfg.Level, "info"))
	if err != nil {
		return settings{}, err
	}

	addSource := cfg.AddSource
	if value := env("ADD_SOURCE"); value != "" {
		addSource = parseBool(value)
	}

	return settings{format: format, level: level, addSource: addSource}, nil
}

func env(name string) string {
	return strings.ToLower(strings.TrimSpace(os.Getenv(envPrefix + name)))
}

func firstNonEmpty(values ...string) string {
	for _, value := range values {
		if value = strings.ToLower(strings.TrimSpace(value)); value != "" {
			return value
		}
	}

	return ""
}

func charmLevel(level slog.Level) charmLog.Level {
	switch {
	case level <= slog.LevelDebug:
		return charmLog.DebugLevel
	case level <= slog.LevelInfo:
		return charmLog.InfoLevel
	case level <= slog.LevelWarn:
		return charmLog.WarnLevel
	default:
		return charmLog.ErrorLevel
	}
}

func parseLevel(text string) (slog.Level, error) {
	switch text {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return 0, fmt.Errorf("unsupported log level %q", text)
	}
}

func parseBool(input string) bool {
	switch input {
	case "1", "true", "yes", "on":
		return true
	default:
		return false
	}
}
