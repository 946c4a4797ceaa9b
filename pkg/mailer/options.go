package mailer

import (
	"log/slog"

	"github.com/dmitrymomot/courier/pkg/template"
)

// Option configures a Mailer.
type Option func(*Mailer)

// WithRenderer makes the mailer render through r instead of a private renderer.
// Mailers sharing a renderer share its compile cache and helpers.
func WithRenderer(r *template.Renderer) Option {
	return func(m *Mailer) {
		if r != nil {
			m.renderer = r
		}
	}
}

// WithLogger sets the logger used for send and verify diagnostics.
func WithLogger(l *slog.Logger) Option {
	return func(m *Mailer) {
		if l != nil {
			m.logger = l
		}
	}
}

// WithMetrics enables prometheus instrumentation.
func WithMetrics(mt *Metrics) Option {
	return func(m *Mailer) {
		m.metrics = mt
	}
}

// WithAttachmentLoader sets the loader used for attachments given by path.
func WithAttachmentLoader(l AttachmentLoader) Option {
	return func(m *Mailer) {
		m.loader = l
	}
}

// WithBulkConcurrency caps the number of concurrent sends in SendBulk.
// Zero or negative means unlimited.
func WithBulkConcurrency(n int) Option {
	return func(m *Mailer) {
		m.bulkLimit = n
	}
}

// WithPlainTextFallback derives a plain text part from the HTML body
// for messages that do not carry one.
func WithPlainTextFallback() Option {
	return func(m *Mailer) {
		m.plainText = true
	}
}
