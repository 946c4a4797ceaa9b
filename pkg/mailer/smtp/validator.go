package smtp

import (
	"context"
	"log/slog"
)

// ValidationResult reports whether a connection check succeeded.
// Error holds the reason on failure.
type ValidationResult struct {
	Error   string `json:"error,omitempty" yaml:"error,omitempty"`
	Success bool   `json:"success" yaml:"success"`
}

// Validator checks SMTP connection settings with a throwaway session,
// independent of any Mailer.
type Validator struct {
	opts options
}

// NewValidator creates a Validator.
func NewValidator(opts ...Option) *Validator {
	return &Validator{opts: newOptions(opts)}
}

var defaultValidator = NewValidator()

// Validate checks raw with the default validator.
func Validate(ctx context.Context, raw RawConfig) ValidationResult {
	return defaultValidator.Validate(ctx, raw)
}

// Validate connects to the server described by raw, completes the greeting,
// STARTTLS and authentication, then closes the session. It never returns an
// error; failures are reported in the result.
func (v *Validator) Validate(ctx context.Context, raw RawConfig) ValidationResult {
	cfg, err := raw.Config()
	if err != nil {
		return ValidationResult{Error: err.Error()}
	}
	sec := cfg.Security()
	log := v.opts.logger.With(
		slog.String("host", cfg.Host),
		slog.Int("port", cfg.Port),
		slog.Bool("secure", sec.Secure),
		slog.Bool("require_tls", sec.RequireTLS),
	)

	// Connect, greeting and each command are bounded by cfg.Timeout inside
	// the dialer; the context bounds the whole exchange.
	ctx, cancel := context.WithTimeout(ctx, 3*cfg.Timeout)
	defer cancel()

	conn, err := dialContext(ctx, v.opts.dial, newDialer(cfg, sec))
	if err != nil {
		log.WarnContext(ctx, "smtp validation failed", slog.String("error", err.Error()))
		return ValidationResult{Error: err.Error()}
	}
	if err := conn.Close(); err != nil {
		log.DebugContext(ctx, "smtp quit failed after successful validation", slog.String("error", err.Error()))
	}
	log.InfoContext(ctx, "smtp validation succeeded")
	return ValidationResult{Success: true}
}
