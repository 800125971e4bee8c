package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"gopkg.in/natefinch/lumberjack.v2"

	"subgrid/internal/config"
)

// Initialize sets up the global logger based on configuration
func Initialize(cfg config.LoggingConfig) error {
	logger, err := NewLogger(cfg)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}

	slog.SetDefault(logger)
	slog.Info("Logging initialized", "level", cfg.Level, "format", cfg.Format, "file", cfg.File)
	return nil
}

// NewLogger creates a new logger instance with the given configuration.
// Console output is always on; with cfg.File set, records also go to a
// rotated main log and a warn-and-above errors log.
func NewLogger(cfg config.LoggingConfig) (*slog.Logger, error) {
	level := parseLevel(cfg.Level)

	handlers := []slog.Handler{createHandler(os.Stdout, cfg.Format, level)}

	if cfg.File {
		if err := os.MkdirAll(cfg.Dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create log directory: %w", err)
		}

		mainFile := &lumberjack.Logger{
			Filename:   filepath.Join(cfg.Dir, "subgrid.log"),
			MaxSize:    cfg.Rotation.MaxSize,
			MaxBackups: cfg.Rotation.MaxBackups,
			MaxAge:     cfg.Rotation.MaxAge,
			Compress:   cfg.Rotation.Compress,
		}
		handlers = append(handlers, createHandler(mainFile, cfg.Format, level))

		errorFile := &lumberjack.Logger{
			Filename:   filepath.Join(cfg.Dir, "errors.log"),
			MaxSize:    cfg.Rotation.MaxSize,
			MaxBackups: cfg.Rotation.MaxBackups,
			MaxAge:     cfg.Rotation.MaxAge,
			Compress:   cfg.Rotation.Compress,
		}
		handlers = append(handlers, NewLevelFilter(createHandler(errorFile, cfg.Format, slog.LevelWarn), slog.LevelWarn))
	}

	if len(handlers) == 1 {
		return slog.New(handlers[0]), nil
	}
	return slog.New(NewMultiHandler(handlers...)), nil
}

func parseLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func createHandler(w io.Writer, format string, level slog.Level) slog.Handler {
	opts := &slog.HandlerOptions{Level: level}
	if format == "json" {
		return slog.NewJSONHandler(w, opts)
	}
	return slog.NewTextHandler(w, opts)
}
