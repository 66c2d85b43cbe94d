package loupe

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"

	lj "gopkg.in/natefinch/lumberjack.v2"
)

// LogOptions controls the logger built by NewLogger.
// Values can be provided directly or via environment variables:
//   - LOUPE_LOG_LEVEL=debug|info|warn|error
//   - LOUPE_LOG_FORMAT=text|json
//   - LOUPE_LOG_FILE=<path> (adds a rotated JSON file)
//   - LOUPE_LOG_SOURCE=true|false
type LogOptions struct {
	Level     string `yaml:"level"`
	Format    string `yaml:"format"`
	AddSource bool   `yaml:"source"`
	File      string `yaml:"file"`

	// Writer replaces stderr for the console handler. Tests use it.
	Writer io.Writer `yaml:"-"`
}

func (o LogOptions) isZero() bool {
	return o.Level == "" && o.Format == "" && o.File == "" && !o.AddSource && o.Writer == nil
}

// Env var names read by LogOptionsFromEnv.
const (
	EnvLogLevel  = "LOUPE_LOG_LEVEL"
	EnvLogFormat = "LOUPE_LOG_FORMAT"
	EnvLogFile   = "LOUPE_LOG_FILE"
	EnvLogSource = "LOUPE_LOG_SOURCE"
)

var (
	loggerMu      sync.RWMutex
	packageLogger *slog.Logger
)

// LogOptionsFromEnv builds LogOptions from the LOUPE_LOG_* variables.
func LogOptionsFromEnv() LogOptions {
	return LogOptions{
		Level:     getenv(EnvLogLevel, "info"),
		Format:    getenv(EnvLogFormat, "text"),
		AddSource: strings.EqualFold(getenv(EnvLogSource, "false"), "true"),
		File:      os.Getenv(EnvLogFile),
	}
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// NewLogger builds a slog.Logger with a text or JSON console handler and,
// when File is set, a second JSON handler writing through a rotating file.
// Every record carries component=loupe.
func NewLogger(opts LogOptions) *slog.Logger {
	lvl := parseLevel(opts.Level)
	w := opts.Writer
	if w == nil {
		w = os.Stderr
	}
	hopts := &slog.HandlerOptions{Level: lvl, AddSource: opts.AddSource}

	var console slog.Handler
	if strings.EqualFold(strings.TrimSpace(opts.Format), "json") {
		console = slog.NewJSONHandler(w, hopts)
	} else {
		console = slog.NewTextHandler(w, hopts)
	}

	h := console
	if strings.TrimSpace(opts.File) != "" {
		fw := &lj.Logger{Filename: opts.File, MaxSize: 10, MaxBackups: 3, MaxAge: 28, Compress: true}
		h = multiHandler(console, slog.NewJSONHandler(fw, hopts))
	}
	return slog.New(h).With(slog.String("component", "loupe"))
}

// SetLogger replaces the package logger used by viewers that do not carry
// their own Options.Logger. Passing nil restores the lazily built default.
func SetLogger(l *slog.Logger) {
	loggerMu.Lock()
	packageLogger = l
	loggerMu.Unlock()
}

// logger returns the package logger, building it from the environment on
// first use.
func logger() *slog.Logger {
	loggerMu.RLock()
	l := packageLogger
	loggerMu.RUnlock()
	if l != nil {
		return l
	}
	loggerMu.Lock()
	defer loggerMu.Unlock()
	if packageLogger == nil {
		packageLogger = NewLogger(LogOptionsFromEnv())
	}
	return packageLogger
}

func parseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// multiHandler fans out log records to multiple handlers.
func multiHandler(handlers ...slog.Handler) slog.Handler { return &multi{hs: handlers} }

type multi struct{ hs []slog.Handler }

func (m *multi) Enabled(ctx context.Context, level slog.Level) bool {
	for _, h := range m.hs {
		if h.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

func (m *multi) Handle(ctx context.Context, r slog.Record) error {
	var firstErr error
	for _, h := range m.hs {
		if !h.Enabled(ctx, r.Level) {
			continue
		}
		if err := h.Handle(ctx, r.Clone()); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func (m *multi) WithAttrs(attrs []slog.Attr) slog.Handler {
	res := make([]slog.Handler, len(m.hs))
	for i, h := range m.hs {
		res[i] = h.WithAttrs(attrs)
	}
	return &multi{hs: res}
}

func (m *multi) WithGroup(name string) slog.Handler {
	res := make([]slog.Handler, len(m.hs))
	for i, h := range m.hs {
		res[i] = h.WithGroup(name)
	}
	return &multi{hs: res}
}
