// Package mailer sends transactional email through a pluggable Transport.
//
// A Mailer owns one Transport for its lifetime and turns caller-facing
// Message values into transport-level Email values: it validates the message,
// renders TemplateHTML with the template package, resolves the sender and
// loads attachments given by path. Send never returns an error. Every outcome
// is reported as a SendResult, so batches can be processed without per-call
// error handling.
//
// # Usage
//
//	import (
//		"context"
//
//		"github.com/dmitrymomot/courier/pkg/mailer"
//		"github.com/dmitrymomot/courier/pkg/mailer/smtp"
//	)
//
//	func main() {
//		ctx := context.Background()
//
//		m, err := smtp.NewMailer(smtp.Config{
//			Host:     "smtp.example.com",
//			Port:     587,
//			Username: "noreply@example.com",
//			Password: "secret",
//		})
//		if err != nil {
//			panic(err)
//		}
//		defer m.Close()
//
//		res := m.Send(ctx, mailer.Message{
//			To:           []string{"user@example.com"},
//			Subject:      "Your order {{.order}}",
//			TemplateHTML: `<p>Total: {{formatCurrency .total "EUR"}}</p>`,
//			TemplateData: map[string]any{"order": "A-1001", "total": 42.5},
//			DisplayName:  "Acme Shop",
//		})
//		if !res.Success {
//			// res.Error is human readable, res.Err supports errors.Is.
//		}
//	}
//
// # Bulk sends
//
// SendBulk dispatches messages concurrently through the same transport and
// template cache. Results are index-aligned with the input. One failing message
// never affects the others. WithBulkConcurrency caps parallelism.
//
// # Transports
//
// Implementations live in sub-packages:
//
//   - smtp: persistent SMTP connection with port-driven TLS and a standalone
//     connection validator
//   - resend: Resend HTTP API
//   - ses: Amazon SES v2
//
// # Errors
//
// Failed results carry an error matching one of ErrInvalidMessage,
// ErrNoContent, ErrAttachment, ErrTransport, ErrMailerClosed or the template
// package errors. FailureReason maps them to a metrics label.
//
// # Metrics
//
// NewMetrics registers courier_mail_sent_total, courier_mail_failed_total and
// courier_mail_send_duration_seconds. Pass the result with WithMetrics.
package mailer
