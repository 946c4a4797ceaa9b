package mailer

import "context"

// Transport delivers prepared emails. A Mailer owns exactly one Transport
// and closes it on Close.
type Transport interface {
	// Send delivers an email and returns the provider message ID.
	// An empty ID means the transport did not assign one.
	Send(ctx context.Context, email *Email) (string, error)

	// Verify checks that the remote side is reachable and accepts our credentials.
	Verify(ctx context.Context) error

	// Close releases any connection held by the transport.
	Close() error

	// Name identifies the transport in logs and metrics.
	Name() string
}

// AttachmentLoader resolves an attachment path into its content.
// The returned content type may be empty.
type AttachmentLoader interface {
	Load(ctx context.Context, path string) (content []byte, contentType string, err error)
}
