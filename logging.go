package main

import (
	"io"
	"log/slog"

	"gopkg.in/natefinch/lumberjack.v2"
)

func parseLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// newLogger returns a JSON logger at the configured level. With LogFile set
// the log goes to a rotating file, otherwise to fallback. The returned
// closer is nil when there is no file to close.
func newLogger(config *Config, fallback io.Writer) (*slog.Logger, io.Closer) {
	opts := &slog.HandlerOptions{Level: parseLevel(config.LogLevel)}

	if config.LogFile == "" {
		return slog.New(slog.NewJSONHandler(fallback, opts)), nil
	}

	writer := rotatingFile(config, config.LogFile)
	return slog.New(slog.NewJSONHandler(writer, opts)), writer
}

// newTranscript returns the rotating transcript file, or nil when none is
// configured.
func newTranscript(config *Config) io.WriteCloser {
	if config.TranscriptFile == "" {
		return nil
	}
	return rotatingFile(config, config.TranscriptFile)
}

func rotatingFile(config *Config, path string) *lumberjack.Logger {
	return &lumberjack.Logger{
		Filename:   path,
		MaxSize:    config.LogMaxSizeMB,
		MaxBackups: config.LogMaxBackups,
	}
}
