// Package ses implements mailer.Transport on the Amazon SES v2 API.
package ses

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sesv2/types"

	"github.com/dmitrymomot/courier/pkg/mailer"
	"github.com/dmitrymomot/courier/pkg/mailer/smtp"
)

// Config holds SES provider configuration.
// Static credentials are optional; the default AWS credential chain is used otherwise.
type Config struct {
	Region           string `env:"AWS_SES_REGION" envDefault:"us-east-1"`
	AccessKeyID      string `env:"AWS_SES_ACCESS_KEY_ID"`
	SecretAccessKey  string `env:"AWS_SES_SECRET_ACCESS_KEY"`
	Sender           string `env:"AWS_SES_SENDER"`
	ConfigurationSet string `env:"AWS_SES_CONFIGURATION_SET"`
}

// API is the subset of the SES v2 client used by Transport.
type API interface {
	SendEmail(ctx context.Context, params *sesv2.SendEmailInput, optFns ...func(*sesv2.Options)) (*sesv2.SendEmailOutput, error)
	GetAccount(ctx context.Context, params *sesv2.GetAccountInput, optFns ...func(*sesv2.Options)) (*sesv2.GetAccountOutput, error)
}

// ErrSendingDisabled indicates the SES account cannot send email.
var ErrSendingDisabled = errors.New("ses: sending is disabled for this account")

// Transport sends email through SES.
type Transport struct {
	client API
	config Config
}

// New loads AWS configuration and creates a Transport.
func New(ctx context.Context, cfg Config) (*Transport, error) {
	opts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(cfg.Region)}
	if cfg.AccessKeyID != "" && cfg.SecretAccessKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, errors.Join(mailer.ErrInvalidConfig, fmt.Errorf("ses: load aws config: %w", err))
	}
	return NewWithClient(sesv2.NewFromConfig(awsCfg), cfg), nil
}

// NewWithClient creates a Transport around an existing client.
func NewWithClient(client API, cfg Config) *Transport {
	return &Transport{client: client, config: cfg}
}

// Name implements mailer.Transport.
func (t *Transport) Name() string { return "ses" }

// Close implements mailer.Transport.
func (t *Transport) Close() error { return nil }

// Verify implements mailer.Transport by reading the account status.
func (t *Transport) Verify(ctx context.Context) error {
	out, err := t.client.GetAccount(ctx, &sesv2.GetAccountInput{})
	if err != nil {
		return fmt.Errorf("ses: get account: %w", err)
	}
	if !out.SendingEnabled {
		return ErrSendingDisabled
	}
	return nil
}

// Send implements mailer.Transport. Emails with attachments or custom headers
// are sent as raw MIME; everything else uses the simple content form.
func (t *Transport) Send(ctx context.Context, email *mailer.Email) (string, error) {
	e := *email
	if e.From == "" {
		e.From = t.config.Sender
	}

	input := &sesv2.SendEmailInput{
		FromEmailAddress: aws.String(e.From),
		Destination: &types.Destination{
			ToAddresses:  e.To,
			CcAddresses:  e.CC,
			BccAddresses: e.BCC,
		},
	}
	if e.ReplyTo != "" {
		input.ReplyToAddresses = []string{e.ReplyTo}
	}
	if t.config.ConfigurationSet != "" {
		input.ConfigurationSetName = aws.String(t.config.ConfigurationSet)
	}

	if len(e.Attachments) > 0 || len(e.Headers) > 0 {
		raw, err := smtp.Raw(&e)
		if err != nil {
			return "", fmt.Errorf("ses: build raw message: %w", err)
		}
		input.Content = &types.EmailContent{Raw: &types.RawMessage{Data: raw}}
	} else {
		input.Content = &types.EmailContent{Simple: simpleMessage(&e)}
	}

	out, err := t.client.SendEmail(ctx, input)
	if err != nil {
		return "", fmt.Errorf("ses: send email: %w", err)
	}
	return aws.ToString(out.MessageId), nil
}

func simpleMessage(e *mailer.Email) *types.Message {
	body := &types.Body{}
	if e.HTML != "" {
		body.Html = &types.Content{Data: aws.String(e.HTML), Charset: aws.String("UTF-8")}
	}
	if e.Text != "" {
		body.Text = &types.Content{Data: aws.String(e.Text), Charset: aws.String("UTF-8")}
	}
	return &types.Message{
		Subject: &types.Content{Data: aws.String(e.Subject), Charset: aws.String("UTF-8")},
		Body:    body,
	}
}
