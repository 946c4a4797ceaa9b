package smtp

// Well-known SMTP ports.
const (
	PortSMTP       = 25
	PortSubmission = 587
	PortSMTPS      = 465
)

// Security is the effective TLS mode for a connection.
// Secure means implicit TLS from the first byte; RequireTLS means the
// session must be upgraded with STARTTLS before authenticating.
type Security struct {
	Secure     bool `json:"secure"`
	RequireTLS bool `json:"requireTls"`
}

// ResolveSecurity derives the TLS mode from the port. Port 465 always uses
// implicit TLS, 587 and 25 always require STARTTLS, any other port keeps
// the caller's secure flag.
func ResolveSecurity(port int, secure bool) Security {
	switch port {
	case PortSMTPS:
		return Security{Secure: true}
	case PortSubmission, PortSMTP:
		return Security{RequireTLS: true}
	default:
		return Security{Secure: secure}
	}
}
