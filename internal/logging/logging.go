// Package logging sets up the application's structured loggers.
package logging

import (
	"io"
	"log/slog"
	"os"

	"github.com/khacks/phototriage-go/internal/conf"
	"gopkg.in/natefinch/lumberjack.v2"
)

var structuredLogger *slog.Logger

const (
	LevelTrace = slog.Level(-8)
	LevelFatal = slog.Level(12)
)

// Add trace and fatal level names.
var levelNames = map[slog.Leveler]string{
	LevelTrace: "TRACE",
	LevelFatal: "FATAL",
}

func replaceLevelNames(groups []string, a slog.Attr) slog.Attr {
	if a.Key == slog.LevelKey {
		level := a.Value.Any().(slog.Level)
		levelLabel, exists := levelNames[level]
		if !exists {
			levelLabel = level.String()
		}
		a.Value = slog.StringValue(levelLabel)
	}
	return a
}

// Init initializes the logging system with a structured JSON logger on
// stdout and sets it as the process default.
func Init(settings *conf.Settings) {
	level := slog.LevelInfo
	if settings != nil && settings.Debug {
		level = slog.LevelDebug
	}

	var out io.Writer = os.Stdout
	if settings != nil && settings.Main.Log.Enabled && settings.Main.Log.Path != "" {
		// Log to both stdout and a rotated log file
		out = io.MultiWriter(os.Stdout, newRotatedWriter(&settings.Main.Log))
	}

	structuredHandler := slog.NewJSONHandler(out, &slog.HandlerOptions{
		Level:       level,
		ReplaceAttr: replaceLevelNames,
	})
	structuredLogger = slog.New(structuredHandler)

	slog.SetDefault(structuredLogger)
}

// ForService returns a logger scoped to the named service component.
func ForService(service string) *slog.Logger {
	if structuredLogger == nil {
		return slog.Default().With("service", service)
	}
	return structuredLogger.With("service", service)
}

// NewFileLogger returns a structured logger writing to the given log file
// with size-based rotation, plus a close function for the underlying file.
func NewFileLogger(cfg *conf.LogConfig, service string) (*slog.Logger, func() error) {
	w := newRotatedWriter(cfg)
	handler := slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level:       slog.LevelInfo,
		ReplaceAttr: replaceLevelNames,
	})
	return slog.New(handler).With("service", service), w.Close
}

func newRotatedWriter(cfg *conf.LogConfig) *lumberjack.Logger {
	return &lumberjack.Logger{
		Filename:   cfg.Path,
		MaxSize:    cfg.MaxSize,
		MaxBackups: cfg.MaxBackups,
		MaxAge:     cfg.MaxAge,
		Compress:   false,
	}
}
