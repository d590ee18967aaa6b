package logger_test

import (
	"log/slog"

	"github.com/soundprediction/duocdien/pkg/logger"
)

func ExampleNewDefaultLogger() {
	// Create a logger with default settings
	log := logger.NewDefaultLogger(slog.LevelDebug)

	log.Debug("Tokenized query", "tokens", 4)
	log.Info("Corpus index built", "entries", 312) // Green in a terminal
	log.Warn("Skipping row without name", "line", 17) // Yellow in a terminal
	log.Error("Graph lookup failed", "error", "timeout") // Red in a terminal
}
