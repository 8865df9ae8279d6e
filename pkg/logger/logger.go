package logger

import (
	"log/slog"
	"os"
)

var log *slog.Logger

// Init configures the process logger. Production gets JSON output, anything
// else gets human-readable text with debug level enabled.
func Init(environment string) {
	var handler slog.Handler
	if environment == "production" {
		handler = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo})
	} else {
		handler = slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug})
	}
	log = slog.New(handler)
}

func get() *slog.Logger {
	if log == nil {
		log = slog.Default()
	}
	return log
}

func Debug(msg string, args ...any) {
	get().Debug(msg, args...)
}

func Info(msg string, args ...any) {
	get().Info(msg, args...)
}

func Warn(msg string, args ...any) {
	get().Warn(msg, args...)
}

func Error(msg string, args ...any) {
	get().Error(msg, args...)
}

// Fatal logs at error level and exits the process.
func Fatal(msg string, args ...any) {
	get().Error(msg, args...)
	os.Exit(1)
}
