package mailer

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/mail"
	"strings"

	"github.com/dmitrymomot/courier/pkg/template"
)

// Tags represents email tags/categories that can be either presence-only
// (using struct{}{}) or key-value pairs (using string values).
// Transports that support tagging convert them to their own format;
// SMTP ignores them.
type Tags map[string]any

// SimpleTags creates presence-only tags from a list of tag names.
func SimpleTags(names ...string) Tags {
	t := make(Tags, len(names))
	for _, n := range names {
		t[n] = struct{}{}
	}
	return t
}

// addressSpecials are the RFC 5322 characters that force a quoted display name.
const addressSpecials = `()<>[]:;@\,."`

// Recipient formats a name and email into RFC 5322 address format.
// Returns "Name <email>" if name is provided, otherwise just email.
// Names containing specials such as "Acme, Inc." are quoted.
func Recipient(name, email string) string {
	if name == "" {
		return email
	}
	if strings.ContainsAny(name, addressSpecials) {
		return (&mail.Address{Name: name, Address: email}).String()
	}
	return fmt.Sprintf("%s <%s>", name, email)
}

// Message is the caller-facing description of one email.
// At least one of Text, HTML or TemplateHTML must be set. When TemplateHTML
// is set it is rendered with TemplateData and replaces HTML.
type Message struct {
	TemplateData template.Data     `json:"templateData,omitempty"`
	Headers      map[string]string `json:"headers,omitempty"`
	Tags         Tags              `json:"tags,omitempty"`
	Subject      string            `json:"subject" validate:"required"`
	Text         string            `json:"text,omitempty"`
	HTML         string            `json:"html,omitempty"`
	TemplateHTML string            `json:"templateHtml,omitempty"`
	DisplayName  string            `json:"displayName,omitempty"`
	From         string            `json:"from,omitempty" validate:"omitempty,email"`
	ReplyTo      string            `json:"replyTo,omitempty" validate:"omitempty,email"`
	To           AddressList       `json:"to" validate:"required,min=1,dive,email"`
	CC           AddressList       `json:"cc,omitempty" validate:"omitempty,dive,email"`
	BCC          AddressList       `json:"bcc,omitempty" validate:"omitempty,dive,email"`
	Attachments  []Attachment      `json:"attachments,omitempty" validate:"omitempty,dive"`
}

// AddressList holds one or more addresses. In JSON it accepts either a
// single string or an array of strings.
type AddressList []string

// UnmarshalJSON implements json.Unmarshaler.
func (l *AddressList) UnmarshalJSON(data []byte) error {
	var one string
	if err := json.Unmarshal(data, &one); err == nil {
		*l = nil
		if one != "" {
			*l = AddressList{one}
		}
		return nil
	}
	var many []string
	if err := json.Unmarshal(data, &many); err != nil {
		return fmt.Errorf("address list must be a string or an array of strings: %w", err)
	}
	*l = many
	return nil
}

// Email represents a fully-prepared email message handed to a Transport.
type Email struct {
	Headers     map[string]string // Custom headers
	Tags        Tags              // Provider-specific tags/categories
	MessageID   string            // Generated Message-ID, used when the provider does not assign one
	Subject     string            // Email subject
	HTML        string            // HTML body content
	Text        string            // Plain text alternative
	From        string            // Sender, may be empty when the transport has its own default
	ReplyTo     string            // Reply-to address
	To          []string          // Recipients (at least one required)
	CC          []string          // Carbon copy recipients
	BCC         []string          // Blind carbon copy recipients
	Attachments []Attachment      // File attachments, always with Content loaded
}

// Attachment represents an email attachment.
// Content wins over Path; Path is resolved through the mailer's AttachmentLoader.
type Attachment struct {
	Filename    string `json:"filename" validate:"required"` // Display name for the attachment
	Path        string `json:"path,omitempty"`                 // Location to load Content from
	ContentType string `json:"contentType,omitempty"`          // MIME type (e.g., "application/pdf")
	ContentID   string `json:"cid,omitempty"`                  // Optional Content-ID for inline attachments
	Content     []byte `json:"content,omitempty"`              // Raw file content
}

// ContentEncodingBase64 marks attachment content given as base64 text in JSON.
const ContentEncodingBase64 = "base64"

// attachmentJSON is the wire shape of Attachment. Content is a plain
// string (taken as its UTF-8 bytes), a base64 string when Encoding is
// "base64", or an array of byte values.
type attachmentJSON struct {
	Filename    string          `json:"filename"`
	Path        string          `json:"path,omitempty"`
	ContentType string          `json:"contentType,omitempty"`
	ContentID   string          `json:"cid,omitempty"`
	Encoding    string          `json:"encoding,omitempty"`
	Content     json.RawMessage `json:"content,omitempty"`
}

// MarshalJSON implements json.Marshaler. Content is written as base64.
func (a Attachment) MarshalJSON() ([]byte, error) {
	out := attachmentJSON{
		Filename:    a.Filename,
		Path:        a.Path,
		ContentType: a.ContentType,
		ContentID:   a.ContentID,
	}
	if a.Content != nil {
		encoded, err := json.Marshal(base64.StdEncoding.EncodeToString(a.Content))
		if err != nil {
			return nil, err
		}
		out.Encoding = ContentEncodingBase64
		out.Content = encoded
	}
	return json.Marshal(out)
}

// UnmarshalJSON implements json.Unmarshaler.
func (a *Attachment) UnmarshalJSON(data []byte) error {
	var in attachmentJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	content, err := decodeContent(in.Content, in.Encoding)
	if err != nil {
		return fmt.Errorf("attachment %q: %w", in.Filename, err)
	}
	*a = Attachment{
		Filename:    in.Filename,
		Path:        in.Path,
		ContentType: in.ContentType,
		ContentID:   in.ContentID,
		Content:     content,
	}
	return nil
}

func decodeContent(raw json.RawMessage, encoding string) ([]byte, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return nil, nil
	}
	var text string
	if err := json.Unmarshal(raw, &text); err != nil {
		var values []int
		if err := json.Unmarshal(raw, &values); err != nil {
			return nil, fmt.Errorf("content must be a string or an array of bytes: %w", err)
		}
		out := make([]byte, len(values))
		for i, v := range values {
			if v < 0 || v > 255 {
				return nil, fmt.Errorf("content byte %d out of range: %d", i, v)
			}
			out[i] = byte(v)
		}
		return out, nil
	}
	switch strings.ToLower(encoding) {
	case "", "utf8", "utf-8":
		return []byte(text), nil
	case ContentEncodingBase64:
		b, err := base64.StdEncoding.DecodeString(text)
		if err != nil {
			return nil, fmt.Errorf("invalid base64 content: %w", err)
		}
		return b, nil
	default:
		return nil, fmt.Errorf("unsupported content encoding %q", encoding)
	}
}

// SendResult is the outcome of one send.
// On success MessageID is set, on failure Error (and Err) are set. Never both.
type SendResult struct {
	Err       error  `json:"-" yaml:"-"`
	MessageID string `json:"messageId,omitempty" yaml:"messageId,omitempty"`
	Error     string `json:"error,omitempty" yaml:"error,omitempty"`
	Success   bool   `json:"success" yaml:"success"`
}

func succeeded(messageID string) SendResult {
	return SendResult{Success: true, MessageID: messageID}
}

func failed(err error) SendResult {
	return SendResult{Err: err, Error: err.Error()}
}
