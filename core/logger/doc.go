// Package logger provides a structured logging facility based on Zap.
//
// It offers a configured logger instance that supports different environments
// (development vs production). Console encoding with colored levels is used
// for interactive runs; JSON encoding is available for log aggregation.
//
// # Usage
//
//	log, _ := logger.New(&logger.Config{Level: "info"})
//	log.Info("batch committed", zap.Int("batch", 3))
package logger
