package resend

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/resend/resend-go/v3"

	"github.com/dmitrymomot/courier/pkg/mailer"
)

// emailAPI is the subset of the Resend client used by Transport.
type emailAPI interface {
	SendWithContext(ctx context.Context, params *resend.SendEmailRequest) (*resend.SendEmailResponse, error)
}

// Transport implements mailer.Transport using the Resend API.
type Transport struct {
	emails emailAPI
	config Config
}

// New creates a new Resend transport.
func New(cfg Config) (*Transport, error) {
	if err := validator.New().Struct(cfg); err != nil {
		return nil, errors.Join(mailer.ErrInvalidConfig, err)
	}
	return &Transport{
		emails: resend.NewClient(cfg.APIKey).Emails,
		config: cfg,
	}, nil
}

// NewMailer creates a mailer.Mailer backed by Resend.
func NewMailer(cfg Config, mcfg mailer.Config, opts ...mailer.Option) (*mailer.Mailer, error) {
	t, err := New(cfg)
	if err != nil {
		return nil, err
	}
	return mailer.New(t, mcfg, opts...), nil
}

// Name implements mailer.Transport.
func (s *Transport) Name() string { return "resend" }

// Verify implements mailer.Transport. Resend is stateless over HTTPS, so the
// check is limited to the configuration.
func (s *Transport) Verify(context.Context) error {
	if s.config.APIKey == "" {
		return fmt.Errorf("resend: %w: missing API key", mailer.ErrInvalidConfig)
	}
	return nil
}

// Close implements mailer.Transport.
func (s *Transport) Close() error { return nil }

// Send implements mailer.Transport.
func (s *Transport) Send(ctx context.Context, email *mailer.Email) (string, error) {
	from := email.From
	if from == "" && s.config.SenderEmail != "" {
		from = mailer.Recipient(s.config.SenderName, s.config.SenderEmail)
	}
	if from == "" {
		return "", errors.New("resend: no sender address")
	}

	req := &resend.SendEmailRequest{
		From:    from,
		To:      email.To,
		Subject: email.Subject,
		Html:    email.HTML,
		Text:    email.Text,
		ReplyTo: email.ReplyTo,
		Cc:      email.CC,
		Bcc:     email.BCC,
		Headers: email.Headers,
	}

	if len(email.Attachments) > 0 {
		req.Attachments = convertAttachments(email.Attachments)
	}

	if len(email.Tags) > 0 {
		req.Tags = convertTags(email.Tags)
	}

	resp, err := s.emails.SendWithContext(ctx, req)
	if err != nil {
		return "", fmt.Errorf("resend: failed to send email: %w", err)
	}
	if resp == nil {
		return "", nil
	}
	return resp.Id, nil
}

func convertAttachments(attachments []mailer.Attachment) []*resend.Attachment {
	result := make([]*resend.Attachment, len(attachments))
	for i, a := range attachments {
		result[i] = &resend.Attachment{
			Filename:    a.Filename,
			Content:     a.Content,
			ContentType: a.ContentType,
			ContentId:   a.ContentID,
		}
	}
	return result
}

func convertTags(tags mailer.Tags) []resend.Tag {
	result := make([]resend.Tag, 0, len(tags))
	for name, value := range tags {
		result = append(result, resend.Tag{
			Name:  name,
			Value: tagValue(value),
		})
	}
	return result
}

// tagValue converts any value to a string for Resend's tag API.
// Presence-only tags (struct{}{}) become "true".
func tagValue(v any) string {
	switch val := v.(type) {
	case nil, struct{}:
		return "true"
	case string:
		return val
	case bool:
		return strconv.FormatBool(val)
	case int:
		return strconv.Itoa(val)
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case fmt.Stringer:
		return val.String()
	default:
		return fmt.Sprint(val)
	}
}
