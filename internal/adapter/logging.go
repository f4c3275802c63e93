package adapter

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// SetupLogger builds the process logger from cfg.
//
//	""   discard everything
//	"-"  text on stderr
//	path JSON appended to path, parent directories created
func SetupLogger(cfg *LoggingConfig) (*slog.Logger, error) {
	opts := &slog.HandlerOptions{Level: parseLogLevel(cfg.Level)}

	var handler slog.Handler
	switch cfg.File {
	case "":
		return NullLogger(), nil
	case "-":
		handler = slog.NewTextHandler(os.Stderr, opts)
	default:
		logPath, err := expandHome(cfg.File)
		if err != nil {
			return nil, err
		}
		if err := os.MkdirAll(filepath.Dir(logPath), 0755); err != nil {
			return nil, fmt.Errorf("failed to create log directory: %w", err)
		}
		logFile, err := os.OpenFile(logPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
		if err != nil {
			return nil, fmt.Errorf("failed to open log file: %w", err)
		}
		handler = slog.NewJSONHandler(logFile, opts)
	}

	return slog.New(handler).With("app", "imo", "pid", os.Getpid()), nil
}

// parseLogLevel accepts slog level names ("debug", "warn", "error+2")
// plus "warning". Unknown input means info.
func parseLogLevel(level string) slog.Level {
	level = strings.TrimSpace(level)
	if strings.EqualFold(level, "warning") {
		return slog.LevelWarn
	}
	var l slog.Level
	if err := l.UnmarshalText([]byte(level)); err != nil {
		return slog.LevelInfo
	}
	return l
}

// expandHome replaces a leading ~ with the user's home directory
func expandHome(path string) (string, error) {
	if !strings.HasPrefix(path, "~") {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, path[1:]), nil
}

// NullLogger returns a logger that discards all output
func NullLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}
