package main

import (
	"log/slog"

	"github.com/soundprediction/duocdien/pkg/logger"
)

func main() {
	log := logger.NewDefaultLogger(slog.LevelDebug)

	log.Info("duocdien colored logger demo")
	log.Debug("Debug message - cyan")
	log.Info("Info message - green", "entity", "PARACETAMOL")
	log.Warn("Warning message - yellow", "skipped", 2)
	log.Error("Error message - red", "error", "upstream unavailable")
}
