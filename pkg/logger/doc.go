// Package logger builds the slog loggers used across courier.
//
// New writes JSON (or text, with Format "text") to stdout at the configured
// level. NewWithSentry also forwards warnings and errors to Sentry when a DSN
// is set and silently falls back to stdout otherwise.
//
// Context extractors add request-scoped attributes to every record. The
// bundled ContextAttrs extractor reads attributes attached with WithAttrs,
// which the mail service uses to tag records with template and config names:
//
//	log := logger.New(cfg, logger.ContextAttrs)
//	ctx = logger.WithAttrs(ctx, slog.String("template", "welcome"))
//	log.InfoContext(ctx, "sending")
//	// {"level":"INFO","msg":"sending","mail":{"template":"welcome"}}
//
// NewNope returns a logger that discards everything; components use it
// when no logger is configured.
package logger
