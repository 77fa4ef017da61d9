// Package logger builds the application's slog.Logger.
//
// Records are written as JSON (or text) to stdout and, when a Sentry DSN is
// configured, also sent to Sentry: errors become issues, warnings are kept as
// log entries. Context extractors add request-scoped attributes such as the
// request ID to every record logged with a context:
//
//	log := logger.New(logger.Config{Level: "debug"}, middlewares.RequestIDExtractor())
//	log.InfoContext(req.Context(), "greeted", slog.String("name", name))
//
// Config carries env tags, so it can be filled with caarlos0/env together
// with the rest of the application settings.
package logger
