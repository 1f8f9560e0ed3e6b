// Package logger provides a structured logging interface for igfollow.
//
// It wraps the zerolog library to provide a clean, easy-to-use API with support for:
// - Multiple log levels (Debug, Info, Warn, Error, Fatal)
// - Structured logging with fields
// - Pretty console output with colors, duplicated to an append-only log file
// - A global logger instance carrying the run_id of the current run
//
// Basic Usage:
//
//	import "igfollow/pkg/logger"
//
//	cfg := &config.LoggingConfig{
//	    Level: "info",
//	    File:  "bot_debug.log",
//	}
//	err := logger.Initialize(cfg)
//	logger.SetLogger(logger.GetLogger().WithField("run_id", runID))
//
//	logger.Info("Run started")
//	logger.WithField("subject", "Lincoln High").Info("Processing subject")
//	logger.LogDecision(subject, ref, decision)
package logger
