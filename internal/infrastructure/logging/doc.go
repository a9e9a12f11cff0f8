// Package logging provides structured logging for batterygen.
//
// This package wraps Go's standard log/slog package so every component logs
// with the same handler, level and default fields.
//
// # Configuration
//
//	logging:
//	  level: "info"      # debug, info, warn, error
//	  format: "json"     # json, text
//	  output: "stdout"   # stdout, stderr
//
// # Usage
//
//	logger := logging.New(cfg.Logging, "1.0.0")
//	logger.Info("record produced", "key", key, "partition", 0, "offset", 42)
//	logger.Error("delivery failed", "key", key, "error", err)
//
// Never log credentials. The schema registry and cluster secrets are only
// ever passed to their clients.
package logging
