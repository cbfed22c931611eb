package main

import (
	"log/slog"

	"github.com/lexigraph/lexigraph/pkg/logger"
)

func main() {
	// Create a colored logger
	log := logger.NewDefaultLogger(slog.LevelDebug)

	log.Info("============================================")
	log.Info("    Lexigraph Colored Logger Demo")
	log.Info("============================================")
	log.Info("")

	log.Debug("Debug message - gray")
	log.Info("Info message - standard color")
	log.Info("Persisting chunks to store - green!")
	log.Info("Document ingested - also green!")
	log.Warn("Warning message - yellow!")
	log.Error("Error message - red!")

	log.Info("")
	log.Info("Write-path operations are highlighted in green:")
	log.Info("Persisting entities", "count", 42)
	log.Info("Document ingested", "chunks", 7, "duration", "120ms")
}
