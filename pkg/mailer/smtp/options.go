package smtp

import (
	"log/slog"

	"github.com/dmitrymomot/courier/pkg/logger"
)

type options struct {
	dial   DialFunc
	logger *slog.Logger
}

// Option configures a Validator or Transport.
type Option func(*options)

// WithDialFunc replaces the function that opens SMTP sessions.
func WithDialFunc(fn DialFunc) Option {
	return func(o *options) {
		if fn != nil {
			o.dial = fn
		}
	}
}

// WithLogger sets the logger for connection diagnostics.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

func newOptions(opts []Option) options {
	o := options{dial: defaultDial, logger: logger.NewNope()}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}
