// Package logger provides structured logging using zerolog.
//
// It supports JSON and console output, log level configuration, and
// component-scoped loggers with structured fields. Logs go to stderr by
// default so that command output on stdout stays machine-readable.
//
// # Configuration
//
//	logging:
//	  level: "info"
//	  format: "json"
//
// # Usage
//
//	log := logger.Get("coco")
//	log.Info("pass finished", logger.Fields(logger.FieldSamples, n))
package logger
