package mailer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"mime"
	"net/mail"
	"path/filepath"
	"strings"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrymomot/courier/pkg/logger"
	"github.com/dmitrymomot/courier/pkg/template"
)

// Mailer renders and sends messages through one Transport.
// It is safe for concurrent use. Send never returns an error: every
// outcome, including validation and render failures, is a SendResult.
type Mailer struct {
	transport Transport
	renderer  *template.Renderer
	loader    AttachmentLoader
	logger    *slog.Logger
	metrics   *Metrics
	config    Config
	bulkLimit int
	plainText bool
	closed    atomic.Bool
}

// New creates a Mailer that owns transport.
// Without WithRenderer the mailer gets a private renderer and compile cache.
func New(transport Transport, cfg Config, opts ...Option) *Mailer {
	m := &Mailer{
		transport: transport,
		config:    cfg,
		logger:    logger.NewNope(),
		bulkLimit: cfg.BulkConcurrency,
		plainText: cfg.PlainTextFallback,
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.renderer == nil {
		m.renderer = template.NewRenderer()
	}
	return m
}

// Renderer returns the template renderer used by the mailer.
func (m *Mailer) Renderer() *template.Renderer {
	return m.renderer
}

// Send validates, renders and delivers one message.
func (m *Mailer) Send(ctx context.Context, msg Message) SendResult {
	start := time.Now()
	res := m.send(ctx, msg)
	m.metrics.observe(m.transport.Name(), res, time.Since(start))

	if res.Success {
		m.logger.DebugContext(ctx, "email sent",
			slog.String("transport", m.transport.Name()),
			slog.Any("to", msg.To),
			slog.String("message_id", res.MessageID),
		)
	} else {
		m.logger.WarnContext(ctx, "email not sent",
			slog.String("transport", m.transport.Name()),
			slog.Any("to", msg.To),
			slog.String("reason", FailureReason(res.Err)),
			slog.String("error", res.Error),
		)
	}
	return res
}

func (m *Mailer) send(ctx context.Context, msg Message) SendResult {
	if m.closed.Load() {
		return failed(ErrMailerClosed)
	}
	if err := ValidateMessage(msg); err != nil {
		return failed(err)
	}

	email, err := m.prepare(ctx, msg)
	if err != nil {
		return failed(err)
	}

	id, err := m.transport.Send(ctx, email)
	if err != nil {
		return failed(fmt.Errorf("%w: %w", ErrTransport, err))
	}
	if id == "" {
		id = email.MessageID
	}
	return succeeded(id)
}

// prepare turns a validated message into the transport-level Email.
func (m *Mailer) prepare(ctx context.Context, msg Message) (*Email, error) {
	htmlBody := msg.HTML
	subject := msg.Subject

	if msg.TemplateHTML != "" || len(msg.TemplateData) > 0 {
		data, err := template.NormalizeData(msg.TemplateData)
		if err != nil {
			return nil, err
		}
		if msg.TemplateHTML != "" {
			htmlBody, err = m.renderer.Render(msg.TemplateHTML, data, template.CacheKey(msg.TemplateHTML))
			if err != nil {
				return nil, err
			}
		}
		if len(msg.TemplateData) > 0 && strings.Contains(subject, "{{") {
			subject, err = m.renderer.RenderText(subject, data)
			if err != nil {
				return nil, fmt.Errorf("subject: %w", err)
			}
		}
	}

	text := msg.Text
	if text == "" && m.plainText && htmlBody != "" {
		text = PlainText(htmlBody)
	}

	from := msg.From
	if from == "" {
		from = m.config.DefaultFrom
	}
	if msg.DisplayName != "" && from != "" {
		from = Recipient(msg.DisplayName, from)
	}

	attachments, err := m.resolveAttachments(ctx, msg.Attachments)
	if err != nil {
		return nil, err
	}

	return &Email{
		Headers:     msg.Headers,
		Tags:        msg.Tags,
		MessageID:   newMessageID(from),
		Subject:     subject,
		HTML:        htmlBody,
		Text:        text,
		From:        from,
		ReplyTo:     msg.ReplyTo,
		To:          msg.To,
		CC:          msg.CC,
		BCC:         msg.BCC,
		Attachments: attachments,
	}, nil
}

// resolveAttachments loads path-only attachments and fills missing content types.
// The input slice is never modified.
func (m *Mailer) resolveAttachments(ctx context.Context, in []Attachment) ([]Attachment, error) {
	if len(in) == 0 {
		return nil, nil
	}
	out := make([]Attachment, len(in))
	for i, a := range in {
		if a.Content == nil {
			if a.Path == "" {
				return nil, fmt.Errorf("%w: %q has neither content nor path", ErrAttachment, a.Filename)
			}
			if m.loader == nil {
				return nil, fmt.Errorf("%w: %q: no attachment loader configured", ErrAttachment, a.Filename)
			}
			content, contentType, err := m.loader.Load(ctx, a.Path)
			if err != nil {
				return nil, fmt.Errorf("%w: %q: %w", ErrAttachment, a.Filename, err)
			}
			a.Content = content
			if a.ContentType == "" {
				a.ContentType = contentType
			}
		}
		if a.ContentType == "" {
			a.ContentType = mime.TypeByExtension(filepath.Ext(a.Filename))
		}
		if a.ContentType == "" {
			a.ContentType = "application/octet-stream"
		}
		out[i] = a
	}
	return out, nil
}

// VerifyConnection checks the transport. Failures are logged, not returned.
func (m *Mailer) VerifyConnection(ctx context.Context) bool {
	if err := m.verify(ctx); err != nil {
		m.logger.ErrorContext(ctx, "transport verification failed",
			slog.String("transport", m.transport.Name()),
			slog.String("error", err.Error()),
		)
		return false
	}
	return true
}

func (m *Mailer) verify(ctx context.Context) error {
	if m.closed.Load() {
		return ErrMailerClosed
	}
	if err := m.transport.Verify(ctx); err != nil {
		return fmt.Errorf("%w: %w", ErrTransport, err)
	}
	return nil
}

// Close releases the transport. It is safe to call more than once;
// every later Send fails with ErrMailerClosed.
func (m *Mailer) Close() error {
	if !m.closed.CompareAndSwap(false, true) {
		return nil
	}
	if err := m.transport.Close(); err != nil {
		return errors.Join(ErrTransport, err)
	}
	return nil
}

// Closed reports whether Close has been called.
func (m *Mailer) Closed() bool {
	return m.closed.Load()
}

// Healthcheck returns a closure for health checks that verifies the transport.
func Healthcheck(m *Mailer) func(context.Context) error {
	return m.verify
}

// newMessageID builds an RFC 5322 Message-ID using the sender's domain.
func newMessageID(from string) string {
	domain := "localhost"
	if addr, err := mail.ParseAddress(from); err == nil {
		if _, d, ok := strings.Cut(addr.Address, "@"); ok && d != "" {
			domain = d
		}
	}
	return fmt.Sprintf("<%s@%s>", uuid.NewString(), domain)
}
