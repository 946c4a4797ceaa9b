package smtp

import (
	"bytes"
	"errors"
	"fmt"
	netmail "net/mail"

	"gopkg.in/mail.v2"

	"github.com/dmitrymomot/courier/pkg/mailer"
)

// ErrNoSender indicates an email without a From address reached the transport.
var ErrNoSender = errors.New("smtp: email has no sender")

// BuildMessage converts a prepared email into a MIME message.
// Bcc recipients are kept as envelope recipients only.
func BuildMessage(e *mailer.Email) (*mail.Message, error) {
	if e.From == "" {
		return nil, ErrNoSender
	}
	from, err := netmail.ParseAddress(e.From)
	if err != nil {
		return nil, fmt.Errorf("smtp: invalid from %q: %w", e.From, err)
	}

	m := mail.NewMessage()
	for k, v := range e.Headers {
		m.SetHeader(k, v)
	}
	m.SetAddressHeader("From", from.Address, from.Name)
	m.SetHeader("To", e.To...)
	if len(e.CC) > 0 {
		m.SetHeader("Cc", e.CC...)
	}
	if len(e.BCC) > 0 {
		m.SetHeader("Bcc", e.BCC...)
	}
	if e.ReplyTo != "" {
		m.SetHeader("Reply-To", e.ReplyTo)
	}
	if e.MessageID != "" {
		m.SetHeader("Message-ID", e.MessageID)
	}
	m.SetHeader("Subject", e.Subject)

	switch {
	case e.Text != "" && e.HTML != "":
		m.SetBody("text/plain", e.Text)
		m.AddAlternative("text/html", e.HTML)
	case e.HTML != "":
		m.SetBody("text/html", e.HTML)
	default:
		m.SetBody("text/plain", e.Text)
	}

	for _, a := range e.Attachments {
		header := map[string][]string{}
		if a.ContentType != "" {
			header["Content-Type"] = []string{a.ContentType}
		}
		if a.ContentID != "" {
			header["Content-ID"] = []string{"<" + a.ContentID + ">"}
			m.EmbedReader(a.Filename, bytes.NewReader(a.Content), mail.SetHeader(header))
			continue
		}
		m.AttachReader(a.Filename, bytes.NewReader(a.Content), mail.SetHeader(header))
	}
	return m, nil
}

// Raw renders the email as RFC 5322 bytes.
func Raw(e *mailer.Email) ([]byte, error) {
	m, err := BuildMessage(e)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if _, err := m.WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("smtp: write message: %w", err)
	}
	return buf.Bytes(), nil
}
