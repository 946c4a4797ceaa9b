// Package smtp implements mailer.Transport over SMTP using gopkg.in/mail.v2,
// and checks connection settings before they are stored.
//
// TLS mode is derived from the port: 465 uses implicit TLS, 587 and 25
// require STARTTLS, other ports honor Config.Secure. Certificates are not
// verified unless TLSRejectUnauthorized is set, and legacy protocol versions
// and cipher suites are accepted so older relays keep working.
//
// Validate opens a throwaway session, completes greeting, STARTTLS and
// AUTH, and closes it again on every path:
//
//	res := smtp.Validate(ctx, smtp.RawConfig{
//		Host:     "smtp.example.com",
//		Port:     "587",
//		Username: "noreply@example.com",
//		Password: "secret",
//	})
//	if !res.Success {
//		log.Println(res.Error)
//	}
//
// NewMailer builds a mailer.Mailer on a persistent Transport whose default
// sender is the config username.
package smtp
