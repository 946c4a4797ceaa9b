package mailer

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestValidateMessage(t *testing.T) {
	t.Parallel()

	valid := func() Message {
		return Message{To: []string{"a@example.com"}, Subject: "Hi", Text: "hello"}
	}

	tests := []struct {
		modify  func(*Message)
		name    string
		wantMsg string
		wantErr bool
	}{
		{name: "text only", modify: func(*Message) {}},
		{name: "html only", modify: func(m *Message) { m.Text = ""; m.HTML = "<p>x</p>" }},
		{name: "template only", modify: func(m *Message) { m.Text = ""; m.TemplateHTML = "<p>{{.x}}</p>" }},
		{name: "no recipients", modify: func(m *Message) { m.To = nil }, wantErr: true, wantMsg: "to is required"},
		{name: "empty recipients", modify: func(m *Message) { m.To = []string{} }, wantErr: true, wantMsg: "to must have at least 1"},
		{name: "bad recipient", modify: func(m *Message) { m.To = []string{"a@example.com", "nope"} }, wantErr: true, wantMsg: "to[1] must be a valid email"},
		{name: "no subject", modify: func(m *Message) { m.Subject = "" }, wantErr: true, wantMsg: "subject is required"},
		{name: "bad from", modify: func(m *Message) { m.From = "x" }, wantErr: true, wantMsg: "from must be a valid email"},
		{name: "bad cc", modify: func(m *Message) { m.CC = []string{"x"} }, wantErr: true, wantMsg: "cc[0]"},
		{name: "attachment without filename", modify: func(m *Message) { m.Attachments = []Attachment{{Content: []byte("x")}} }, wantErr: true, wantMsg: "attachments[0].filename is required"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			msg := valid()
			tt.modify(&msg)
			err := ValidateMessage(msg)
			if !tt.wantErr {
				require.NoError(t, err)
				return
			}
			require.ErrorIs(t, err, ErrInvalidMessage)
			require.Contains(t, err.Error(), tt.wantMsg)
		})
	}
}

func TestValidateMessage_NoContent(t *testing.T) {
	t.Parallel()

	err := ValidateMessage(Message{To: []string{"a@example.com"}, Subject: "Hi"})
	require.ErrorIs(t, err, ErrInvalidMessage)
	require.ErrorIs(t, err, ErrNoContent)
}
