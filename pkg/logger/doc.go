// Package logger creates configured slog.Logger instances.
//
// The factory applies functional options over production-safe defaults:
// JSON output at info level to stdout. Text format and debug level suit
// development; static attributes tag every record with the emitting
// component.
//
//	log := logger.New(
//	    logger.WithFormat(logger.FormatText),
//	    logger.WithLevel(slog.LevelDebug),
//	    logger.WithComponent("glue-cell"),
//	)
//	logger.SetAsDefault(log)
package logger
