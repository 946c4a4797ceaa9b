package smtp

import (
	"context"
	"crypto/tls"
	"fmt"

	"gopkg.in/mail.v2"
)

// DialFunc opens an SMTP session: connect, greeting, STARTTLS and AUTH.
// It is replaceable in tests.
type DialFunc func(d *mail.Dialer) (mail.SendCloser, error)

func defaultDial(d *mail.Dialer) (mail.SendCloser, error) {
	return d.Dial()
}

// newDialer builds a mail.v2 dialer for cfg with its security already resolved.
func newDialer(cfg Config, sec Security) *mail.Dialer {
	d := mail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password)
	d.SSL = sec.Secure
	d.TLSConfig = permissiveTLS(cfg.Host, cfg.rejectUnauthorized())
	d.Timeout = cfg.Timeout
	d.StartTLSPolicy = mail.OpportunisticStartTLS
	if sec.RequireTLS {
		d.StartTLSPolicy = mail.MandatoryStartTLS
	}
	if cfg.LocalName != "" {
		d.LocalName = cfg.LocalName
	}
	return d
}

// permissiveTLS accepts self-signed certificates, legacy protocol versions and
// legacy cipher suites unless rejectUnauthorized is set.
func permissiveTLS(host string, rejectUnauthorized bool) *tls.Config {
	suites := make([]uint16, 0, len(tls.CipherSuites())+len(tls.InsecureCipherSuites()))
	for _, s := range tls.CipherSuites() {
		suites = append(suites, s.ID)
	}
	for _, s := range tls.InsecureCipherSuites() {
		suites = append(suites, s.ID)
	}
	return &tls.Config{
		ServerName:         host,
		InsecureSkipVerify: !rejectUnauthorized, //nolint:gosec
		MinVersion:         tls.VersionTLS10,
		CipherSuites:       suites,
	}
}

// dialContext runs dial in the background so ctx cancellation stops the wait.
// A session that completes after ctx is done is closed by the dialing side.
// A panicking dial is reported as an error.
func dialContext(ctx context.Context, dial DialFunc, d *mail.Dialer) (mail.SendCloser, error) {
	type result struct {
		conn mail.SendCloser
		err  error
	}
	ch := make(chan result, 1)
	go func() {
		var res result
		defer func() {
			if r := recover(); r != nil {
				res = result{err: fmt.Errorf("smtp: dial panicked: %v", r)}
			}
			ch <- res
		}()
		res.conn, res.err = dial(d)
	}()

	select {
	case res := <-ch:
		return res.conn, res.err
	case <-ctx.Done():
		go func() {
			if res := <-ch; res.conn != nil {
				_ = res.conn.Close()
			}
		}()
		return nil, ctx.Err()
	}
}
