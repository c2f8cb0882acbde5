// Package logger builds configured slog.Logger instances for the metering
// engine. JSON output with info level is the default; options switch the
// format, level, destination, and static attributes.
//
//	log := logger.New(
//	    logger.WithFormat(logger.FormatText),
//	    logger.WithLevel(slog.LevelDebug),
//	    logger.WithAttr(slog.String("service", "metering")),
//	)
//	svc := meter.NewService(registry, storage, customers, meter.WithLogger(log))
package logger
