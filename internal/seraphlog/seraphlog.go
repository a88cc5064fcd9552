// Package seraphlog constructs the process-wide slog.Logger. Console output
// always goes to stderr so the tool server's line-oriented protocol stream
// stays usable on stdout/the accepted connection, mirroring the teacher's
// own stdio-safety convention for its daemon logger.
package seraphlog

import (
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/evo-hydra/seraph/internal/config"
	"gopkg.in/natefinch/lumberjack.v2"
)

// New builds a logger for one process invocation. Called exactly once per
// command/server startup; never reconfigured afterward.
func New(cfg config.LoggingConfig, verbose bool) *slog.Logger {
	level := levelFromString(cfg.Level)
	if verbose {
		level = slog.LevelDebug
	}

	writers := []io.Writer{os.Stderr}
	if cfg.File != "" {
		writers = append(writers, &lumberjack.Logger{
			Filename:   cfg.File,
			MaxSize:    10, // megabytes
			MaxBackups: 3,
			MaxAge:     28, // days
		})
	}

	handler := slog.NewTextHandler(io.MultiWriter(writers...), &slog.HandlerOptions{
		Level: level,
	})
	return slog.New(handler)
}

func levelFromString(s string) slog.Level {
	switch strings.ToUpper(s) {
	case "DEBUG":
		return slog.LevelDebug
	case "INFO":
		return slog.LevelInfo
	case "WARNING", "WARN":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelWarn
	}
}
