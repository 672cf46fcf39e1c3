// Package logging provides structured logging for graylogic-input.
//
// This package wraps Go's standard log/slog package. Every entry carries
// the service and version fields; child loggers add a component field.
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
//	logger.Component("bridge").Info("device bound", "physical_path", path)
//
// Never log MQTT passwords or InfluxDB tokens.
package logging
