package mailer

import "errors"

var (
	// ErrInvalidMessage indicates the message failed schema validation.
	ErrInvalidMessage = errors.New("mailer: invalid message")

	// ErrNoContent indicates none of text, html or template html was provided.
	ErrNoContent = errors.New("mailer: message must have text, html or template html content")

	// ErrInvalidConfig indicates a transport configuration failed validation.
	ErrInvalidConfig = errors.New("mailer: invalid transport config")

	// ErrAttachment indicates an attachment could not be resolved.
	ErrAttachment = errors.New("mailer: attachment unavailable")

	// ErrTransport indicates the transport failed to deliver or verify.
	ErrTransport = errors.New("mailer: transport failed")

	// ErrMailerClosed indicates the mailer was used after Close.
	ErrMailerClosed = errors.New("mailer: closed")
)
