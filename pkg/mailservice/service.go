package mailservice

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/dmitrymomot/courier/pkg/logger"
	"github.com/dmitrymomot/courier/pkg/mailer"
	"github.com/dmitrymomot/courier/pkg/mailer/smtp"
	"github.com/dmitrymomot/courier/pkg/template"
)

// TemplateParams describes a send of a stored template.
type TemplateParams struct {
	Data         template.Data `json:"data,omitempty"`
	TemplateName string        `json:"templateName"`
	// ConfigName selects a stored transport config. Empty means the default.
	ConfigName string `json:"configName,omitempty"`
	// Subject overrides the template subject.
	Subject string   `json:"subject,omitempty"`
	To      []string `json:"to"`
}

// DirectParams describes a send of caller-provided template HTML over the
// default transport config.
type DirectParams struct {
	Data         template.Data `json:"data,omitempty"`
	Subject      string        `json:"subject"`
	TemplateHTML string        `json:"templateHtml"`
	From         string        `json:"from,omitempty"`
	DisplayName  string        `json:"displayName,omitempty"`
	To           []string      `json:"to"`
}

// Service resolves named templates and transport configs and sends
// through a fresh mailer per call. Mailers share the service renderer,
// so compiled templates are reused across calls.
type Service struct {
	templates  TemplateStore
	configs    ConfigStore
	validator  TransportValidator
	newMailer  MailerFactory
	renderer   *template.Renderer
	logger     *slog.Logger
	mailerOpts []mailer.Option
	config     Config
}

// New creates a Service.
func New(templates TemplateStore, configs ConfigStore, cfg Config, opts ...Option) *Service {
	s := &Service{
		templates: templates,
		configs:   configs,
		config:    cfg,
		newMailer: smtp.NewMailer,
		logger:    logger.NewNope(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.renderer == nil {
		s.renderer = template.NewRenderer()
	}
	if s.validator == nil {
		s.validator = smtp.NewValidator(smtp.WithLogger(s.logger))
	}
	return s
}

// Renderer returns the renderer shared by created mailers.
func (s *Service) Renderer() *template.Renderer {
	return s.renderer
}

// SendEmailWithTemplate looks up the template and transport config by name
// and sends one message. Every failure is returned wrapped with the template
// name and recipients; lookup failures unwrap to *LookupError.
func (s *Service) SendEmailWithTemplate(ctx context.Context, p TemplateParams) error {
	ctx = logger.WithAttrs(ctx,
		slog.String("template", p.TemplateName),
		slog.String("config", p.ConfigName),
	)
	if err := s.sendTemplate(ctx, p); err != nil {
		s.logger.ErrorContext(ctx, "template email failed", slog.String("error", err.Error()))
		return fmt.Errorf("send template %q to %s: %w", p.TemplateName, strings.Join(p.To, ", "), err)
	}
	return nil
}

func (s *Service) sendTemplate(ctx context.Context, p TemplateParams) error {
	tmpl, err := s.findTemplate(ctx, p.TemplateName)
	if err != nil {
		return err
	}

	cfg, from, displayName := s.config.Default, s.config.DefaultFromEmail, s.config.DefaultFromName
	if p.ConfigName != "" {
		rec, err := s.findConfig(ctx, p.ConfigName, p.TemplateName)
		if err != nil {
			return err
		}
		cfg, from, displayName = rec.SMTPConfig(s.config.Default), rec.FromEmail, rec.FromName
	}

	subject := firstNonEmpty(p.Subject, tmpl.Subject, s.config.FallbackSubject)

	return s.send(ctx, cfg, mailer.Message{
		To:           p.To,
		Subject:      subject,
		TemplateHTML: tmpl.HTML,
		TemplateData: p.Data,
		From:         from,
		DisplayName:  displayName,
	})
}

// SendEmailWithDirectTemplate renders p.TemplateHTML and sends it over the
// default transport config.
func (s *Service) SendEmailWithDirectTemplate(ctx context.Context, p DirectParams) error {
	from := firstNonEmpty(p.From, s.config.DefaultFromEmail)
	displayName := firstNonEmpty(p.DisplayName, s.config.DefaultFromName)

	err := s.send(ctx, s.config.Default, mailer.Message{
		To:           p.To,
		Subject:      firstNonEmpty(p.Subject, s.config.FallbackSubject),
		TemplateHTML: p.TemplateHTML,
		TemplateData: p.Data,
		From:         from,
		DisplayName:  displayName,
	})
	if err != nil {
		s.logger.ErrorContext(ctx, "direct template email failed", slog.String("error", err.Error()))
		return fmt.Errorf("send direct template to %s: %w", strings.Join(p.To, ", "), err)
	}
	return nil
}

// ValidateTransport checks raw connection settings. It never returns an error.
func (s *Service) ValidateTransport(ctx context.Context, raw smtp.RawConfig) smtp.ValidationResult {
	return s.validator.Validate(ctx, raw)
}

// ValidateStoredTransport checks a stored transport config by name.
func (s *Service) ValidateStoredTransport(ctx context.Context, configName string) (smtp.ValidationResult, error) {
	rec, err := s.findConfig(ctx, configName, "")
	if err != nil {
		return smtp.ValidationResult{}, err
	}
	return s.validator.Validate(ctx, rec.RawConfig()), nil
}

// send builds a mailer for cfg, sends msg and closes the mailer.
func (s *Service) send(ctx context.Context, cfg smtp.Config, msg mailer.Message) error {
	opts := append([]mailer.Option{
		mailer.WithRenderer(s.renderer),
		mailer.WithLogger(s.logger),
	}, s.mailerOpts...)

	m, err := s.newMailer(cfg, opts...)
	if err != nil {
		return err
	}
	defer func() {
		if err := m.Close(); err != nil {
			s.logger.WarnContext(ctx, "closing mailer", slog.String("error", err.Error()))
		}
	}()

	res := m.Send(ctx, msg)
	if !res.Success {
		return res.Err
	}
	s.logger.InfoContext(ctx, "email sent",
		slog.Any("to", msg.To),
		slog.String("message_id", res.MessageID),
	)
	return nil
}

func (s *Service) findTemplate(ctx context.Context, name string) (*TemplateRecord, error) {
	if name == "" || s.templates == nil {
		return nil, &LookupError{Kind: TemplateNotFound, TemplateName: name}
	}
	tmpl, err := s.templates.FindTemplateByName(ctx, name)
	if errors.Is(err, ErrRecordNotFound) || (err == nil && tmpl.Empty()) {
		return nil, &LookupError{Kind: TemplateNotFound, TemplateName: name}
	}
	if err != nil {
		return nil, fmt.Errorf("find template: %w", err)
	}
	return tmpl, nil
}

func (s *Service) findConfig(ctx context.Context, name, templateName string) (*ConfigRecord, error) {
	if name == "" || s.configs == nil {
		return nil, &LookupError{Kind: ConfigNotFound, TemplateName: templateName, ConfigName: name}
	}
	rec, err := s.configs.FindConfigByName(ctx, name)
	if errors.Is(err, ErrRecordNotFound) || (err == nil && rec == nil) {
		return nil, &LookupError{Kind: ConfigNotFound, TemplateName: templateName, ConfigName: name}
	}
	if err != nil {
		return nil, fmt.Errorf("find transport config: %w", err)
	}
	return rec, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
