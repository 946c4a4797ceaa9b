package mailservice

import (
	"context"
	"log/slog"

	"github.com/dmitrymomot/courier/pkg/mailer"
	"github.com/dmitrymomot/courier/pkg/mailer/smtp"
	"github.com/dmitrymomot/courier/pkg/template"
)

// MailerFactory builds a mailer for one transport config.
type MailerFactory func(cfg smtp.Config, opts ...mailer.Option) (*mailer.Mailer, error)

// TransportValidator checks connection settings without sending.
type TransportValidator interface {
	Validate(ctx context.Context, raw smtp.RawConfig) smtp.ValidationResult
}

// Option configures a Service.
type Option func(*Service)

// WithMailerFactory replaces smtp.NewMailer.
func WithMailerFactory(f MailerFactory) Option {
	return func(s *Service) {
		if f != nil {
			s.newMailer = f
		}
	}
}

// WithRenderer sets the renderer shared by every mailer the service creates.
func WithRenderer(r *template.Renderer) Option {
	return func(s *Service) {
		if r != nil {
			s.renderer = r
		}
	}
}

// WithLogger sets the service logger. It is passed on to created mailers.
func WithLogger(l *slog.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithValidator replaces the default SMTP validator.
func WithValidator(v TransportValidator) Option {
	return func(s *Service) {
		if v != nil {
			s.validator = v
		}
	}
}

// WithMailerOptions adds options applied to every created mailer,
// for example mailer.WithMetrics or mailer.WithAttachmentLoader.
func WithMailerOptions(opts ...mailer.Option) Option {
	return func(s *Service) {
		s.mailerOpts = append(s.mailerOpts, opts...)
	}
}
