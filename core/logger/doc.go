// Package logger provides a structured logging facility based on Zap.
//
// # Configuration
//
// The package supports configuration for:
//   - Level: debug, info, warn, error
//   - Encoding: json (production) or console (development)
//
// # Usage
//
//	log, _ := logger.New(&logger.Config{Level: "info", Format: "console"})
//	log.Info("Import started")
//
//	// Scope a logger to one system:
//	l := logger.WithSystem(log, system.ID, system.Name)
//	l.Warn("Entry matched no rom", zap.String("entry", name))
package logger
