package smtp

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"gopkg.in/mail.v2"

	"github.com/dmitrymomot/courier/pkg/mailer"
)

// Transport keeps one SMTP session open and reuses it across sends.
// Sends are serialized over the session. A session the server dropped is
// redialed once.
type Transport struct {
	dialer *mail.Dialer
	conn   mail.SendCloser
	opts   options
	config Config

	mu sync.Mutex
}

// NewTransport validates cfg and creates a transport. The session is opened
// lazily on the first send.
func NewTransport(cfg Config, opts ...Option) (*Transport, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	cfg = cfg.withDefaults()
	return &Transport{
		dialer: newDialer(cfg, cfg.Security()),
		opts:   newOptions(opts),
		config: cfg,
	}, nil
}

// NewMailer creates a mailer.Mailer on a persistent SMTP transport.
// The config username is the default sender.
func NewMailer(cfg Config, opts ...mailer.Option) (*mailer.Mailer, error) {
	t, err := NewTransport(cfg)
	if err != nil {
		return nil, err
	}
	return mailer.New(t, mailer.Config{DefaultFrom: cfg.Username}, opts...), nil
}

// Name implements mailer.Transport.
func (t *Transport) Name() string { return "smtp" }

// Config returns the effective configuration.
func (t *Transport) Config() Config { return t.config }

// Send implements mailer.Transport. The returned ID is the Message-ID set on the email.
func (t *Transport) Send(ctx context.Context, email *mailer.Email) (string, error) {
	msg, err := BuildMessage(email)
	if err != nil {
		return "", err
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	reused := t.conn != nil
	if err := t.connectLocked(ctx); err != nil {
		return "", err
	}
	err = mail.Send(t.conn, msg)
	if err != nil && reused {
		// The server may have closed an idle session.
		t.opts.logger.DebugContext(ctx, "smtp send on reused session failed, redialing",
			slog.String("host", t.config.Host),
			slog.String("error", err.Error()),
		)
		t.dropLocked()
		if err := t.connectLocked(ctx); err != nil {
			return "", err
		}
		err = mail.Send(t.conn, msg)
	}
	if err != nil {
		t.dropLocked()
		return "", err
	}
	return email.MessageID, nil
}

// Verify implements mailer.Transport by opening and closing a separate session.
func (t *Transport) Verify(ctx context.Context) error {
	conn, err := dialContext(ctx, t.opts.dial, t.dialer)
	if err != nil {
		return err
	}
	return conn.Close()
}

// Close implements mailer.Transport.
func (t *Transport) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.conn == nil {
		return nil
	}
	err := t.conn.Close()
	t.conn = nil
	return err
}

func (t *Transport) connectLocked(ctx context.Context) error {
	if t.conn != nil {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	conn, err := dialContext(ctx, t.opts.dial, t.dialer)
	if err != nil {
		return fmt.Errorf("smtp: connect %s:%d: %w", t.config.Host, t.config.Port, err)
	}
	t.conn = conn
	return nil
}

func (t *Transport) dropLocked() {
	if t.conn == nil {
		return
	}
	if err := t.conn.Close(); err != nil && !errors.Is(err, context.Canceled) {
		t.opts.logger.Debug("smtp session close failed", slog.String("error", err.Error()))
	}
	t.conn = nil
}
