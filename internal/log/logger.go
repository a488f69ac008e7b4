// Package log implements structured logging using slog.
package log

import (
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"

	"gopkg.in/natefinch/lumberjack.v2"

	"icc.tech/aptaskd/internal/config"
)

var (
	mu      sync.Mutex
	current *slog.Logger
	rotator *lumberjack.Logger
)

// Init initializes the global logger based on configuration. An
// unrecognized or empty level falls back to warn; the fallback itself
// is logged as a warning once the logger is up, rather than failing
// startup over a typo in a config file.
func Init(cfg config.LogConfig) error {
	level, fellBack := parseLevel(cfg.Level)

	var writers []io.Writer
	writers = append(writers, os.Stdout)
	var lj *lumberjack.Logger
	if cfg.Output.Enabled {
		lj = &lumberjack.Logger{
			Filename:   cfg.Output.Path,
			MaxSize:    cfg.Output.MaxSizeMB,
			MaxBackups: cfg.Output.MaxBackups,
			MaxAge:     cfg.Output.MaxAgeDays,
			Compress:   cfg.Output.Compress,
		}
		writers = append(writers, lj)
	}
	multiWriter := io.MultiWriter(writers...)

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	switch strings.ToLower(cfg.Format) {
	case "text":
		handler = slog.NewTextHandler(multiWriter, opts)
	default:
		handler = slog.NewJSONHandler(multiWriter, opts)
	}

	logger := slog.New(handler)
	slog.SetDefault(logger)

	mu.Lock()
	current = logger
	rotator = lj
	mu.Unlock()

	if fellBack {
		logger.Warn("unrecognized log level, falling back to warn", "configured", cfg.Level)
	}
	return nil
}

// Get returns the logger most recently installed by Init, or the slog
// default if Init has never run.
func Get() *slog.Logger {
	mu.Lock()
	defer mu.Unlock()
	if current == nil {
		return slog.Default()
	}
	return current
}

// Flush closes the rotated file output, if one is configured, so
// buffered writes land on disk before the process exits.
func Flush() {
	mu.Lock()
	lj := rotator
	mu.Unlock()
	if lj != nil {
		_ = lj.Close()
	}
}

// parseLevel converts a string level to a slog.Level. An unknown or
// empty value falls back to warn, reporting that it did so.
func parseLevel(levelStr string) (slog.Level, bool) {
	switch strings.ToLower(levelStr) {
	case "debug":
		return slog.LevelDebug, false
	case "info":
		return slog.LevelInfo, false
	case "warn", "warning":
		return slog.LevelWarn, false
	case "error":
		return slog.LevelError, false
	default:
		return slog.LevelWarn, true
	}
}
