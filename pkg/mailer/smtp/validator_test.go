package smtp

import (
	"bufio"
	"context"
	"crypto/tls"
	"net"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gopkg.in/mail.v2"
)

func rawConfig(port string) RawConfig {
	return RawConfig{Host: "smtp.example.com", Port: port, Username: "a@example.com", Password: "p"}
}

func TestValidator_Validate_Success(t *testing.T) {
	t.Parallel()

	fd := &fakeDialer{}
	res := NewValidator(WithDialFunc(fd.dial)).Validate(context.Background(), rawConfig("587"))

	require.True(t, res.Success)
	require.Empty(t, res.Error)
	require.Len(t, fd.sessions, 1)
	require.True(t, fd.sessions[0].closed.Load(), "session must be closed after validation")
}

func TestValidator_Validate_PortDrivesSecurity(t *testing.T) {
	t.Parallel()

	tests := []struct {
		port       string
		secure     bool
		wantSSL    bool
		wantPolicy mail.StartTLSPolicy
	}{
		{port: "465", secure: false, wantSSL: true, wantPolicy: mail.OpportunisticStartTLS},
		{port: "587", secure: true, wantSSL: false, wantPolicy: mail.MandatoryStartTLS},
		{port: "25", secure: false, wantSSL: false, wantPolicy: mail.MandatoryStartTLS},
		{port: "2525", secure: true, wantSSL: true, wantPolicy: mail.OpportunisticStartTLS},
	}

	for _, tt := range tests {
		t.Run(tt.port, func(t *testing.T) {
			t.Parallel()

			fd := &fakeDialer{}
			raw := rawConfig(tt.port)
			raw.Secure = tt.secure
			require.True(t, NewValidator(WithDialFunc(fd.dial)).Validate(context.Background(), raw).Success)

			d := fd.last()
			require.Equal(t, tt.wantSSL, d.SSL)
			require.Equal(t, tt.wantPolicy, d.StartTLSPolicy)
			require.Equal(t, DefaultTimeout, d.Timeout)
		})
	}
}

func TestValidator_Validate_PermissiveTLS(t *testing.T) {
	t.Parallel()

	fd := &fakeDialer{}
	v := NewValidator(WithDialFunc(fd.dial))

	require.True(t, v.Validate(context.Background(), rawConfig("465")).Success)
	cfg := fd.last().TLSConfig
	require.True(t, cfg.InsecureSkipVerify)
	require.Equal(t, uint16(tls.VersionTLS10), cfg.MinVersion)
	require.Greater(t, len(cfg.CipherSuites), len(tls.CipherSuites()))

	strict := true
	raw := rawConfig("465")
	raw.TLSRejectUnauthorized = &strict
	require.True(t, v.Validate(context.Background(), raw).Success)
	require.False(t, fd.last().TLSConfig.InsecureSkipVerify)
}

func TestValidator_Validate_Failures(t *testing.T) {
	t.Parallel()

	t.Run("bad port never dials", func(t *testing.T) {
		t.Parallel()

		fd := &fakeDialer{}
		res := NewValidator(WithDialFunc(fd.dial)).Validate(context.Background(), rawConfig("smtp"))
		require.False(t, res.Success)
		require.Contains(t, res.Error, "invalid port")
		require.Empty(t, fd.dialers)
	})

	t.Run("dial error surfaces message", func(t *testing.T) {
		t.Parallel()

		fd := &fakeDialer{err: errRefused}
		res := NewValidator(WithDialFunc(fd.dial)).Validate(context.Background(), rawConfig("587"))
		require.False(t, res.Success)
		require.Equal(t, errRefused.Error(), res.Error)
	})

	t.Run("panicking dial is contained", func(t *testing.T) {
		t.Parallel()

		panicky := func(*mail.Dialer) (mail.SendCloser, error) { panic("boom") }
		res := NewValidator(WithDialFunc(panicky)).Validate(context.Background(), rawConfig("587"))
		require.False(t, res.Success)
		require.Contains(t, res.Error, "boom")
	})
}

func TestValidator_Validate_CanceledContextClosesLateSession(t *testing.T) {
	t.Parallel()

	release := make(chan struct{})
	session := &fakeSession{}
	slow := func(*mail.Dialer) (mail.SendCloser, error) {
		<-release
		return session, nil
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan ValidationResult, 1)
	go func() { done <- NewValidator(WithDialFunc(slow)).Validate(ctx, rawConfig("587")) }()

	cancel()
	res := <-done
	require.False(t, res.Success)
	require.Contains(t, res.Error, "context canceled")

	close(release)
	require.Eventually(t, session.closed.Load, time.Second, 5*time.Millisecond)
}

// The following tests talk to a local listener through the real mail.v2 dialer.

func TestValidate_RejectedGreeting(t *testing.T) {
	t.Parallel()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { _ = ln.Close() })

	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()
		w := bufio.NewWriter(conn)
		_, _ = w.WriteString("554 no service\r\n")
		_ = w.Flush()
	}()

	port := strconv.Itoa(ln.Addr().(*net.TCPAddr).Port)
	res := Validate(context.Background(), RawConfig{Host: "127.0.0.1", Port: port, Username: "a@example.com", Password: "p"})
	require.False(t, res.Success)
	require.NotEmpty(t, res.Error)
}

func TestValidate_ConnectionRefused(t *testing.T) {
	t.Parallel()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	port := strconv.Itoa(ln.Addr().(*net.TCPAddr).Port)
	require.NoError(t, ln.Close())

	res := Validate(context.Background(), RawConfig{Host: "127.0.0.1", Port: port})
	require.False(t, res.Success)
	require.NotEmpty(t, res.Error)
}
