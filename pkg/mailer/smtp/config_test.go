package smtp

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/courier/pkg/mailer"
)

func validConfig() Config {
	return Config{Host: "smtp.example.com", Port: 587, Username: "noreply@example.com", Password: "secret"}
}

func TestConfig_Validate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		modify  func(*Config)
		name    string
		wantErr bool
	}{
		{name: "valid", modify: func(*Config) {}},
		{name: "ip host", modify: func(c *Config) { c.Host = "10.0.0.5" }},
		{name: "service fills host", modify: func(c *Config) { c.Host = ""; c.Port = 0; c.Service = "gmail" }},
		{name: "missing host", modify: func(c *Config) { c.Host = "" }, wantErr: true},
		{name: "bad host", modify: func(c *Config) { c.Host = "not a host" }, wantErr: true},
		{name: "port zero", modify: func(c *Config) { c.Port = 0 }, wantErr: true},
		{name: "port too large", modify: func(c *Config) { c.Port = 70000 }, wantErr: true},
		{name: "username not email", modify: func(c *Config) { c.Username = "admin" }, wantErr: true},
		{name: "missing password", modify: func(c *Config) { c.Password = "" }, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cfg := validConfig()
			tt.modify(&cfg)
			err := cfg.Validate()
			if tt.wantErr {
				require.ErrorIs(t, err, mailer.ErrInvalidConfig)
				return
			}
			require.NoError(t, err)
		})
	}
}

func TestNewTransport_InvalidConfigFailsBeforeNetwork(t *testing.T) {
	t.Parallel()

	fd := &fakeDialer{}
	_, err := NewTransport(Config{Host: "smtp.example.com", Port: 587}, WithDialFunc(fd.dial))
	require.ErrorIs(t, err, mailer.ErrInvalidConfig)
	require.Empty(t, fd.dialers)

	_, err = NewMailer(Config{})
	require.ErrorIs(t, err, mailer.ErrInvalidConfig)
}

func TestRawConfig_Config(t *testing.T) {
	t.Parallel()

	cfg, err := RawConfig{Host: " smtp.example.com ", Port: " 465 ", Username: "a@example.com", Password: "p"}.Config()
	require.NoError(t, err)
	require.Equal(t, "smtp.example.com", cfg.Host)
	require.Equal(t, 465, cfg.Port)
	require.Equal(t, DefaultTimeout, cfg.Timeout)

	for _, port := range []string{"abc", "0", "65536", "-1", "12.5"} {
		_, err := RawConfig{Host: "smtp.example.com", Port: port}.Config()
		require.ErrorIs(t, err, mailer.ErrInvalidConfig, port)
	}

	_, err = RawConfig{Port: "587"}.Config()
	require.ErrorContains(t, err, "host is required")

	cfg, err = RawConfig{Service: "yahoo"}.Config()
	require.NoError(t, err)
	require.Equal(t, "smtp.mail.yahoo.com", cfg.Host)
	require.Equal(t, 465, cfg.Port)
}

func TestLoadConfigFrom(t *testing.T) {
	t.Parallel()

	cfg, err := LoadConfigFrom(map[string]string{
		"SMTP_HOST":                    "mail.example.com",
		"SMTP_PORT":                    "2525",
		"SMTP_SECURE":                  "true",
		"SMTP_USER":                    "bot@example.com",
		"SMTP_PASSWORD":                "pw",
		"SMTP_TLS_REJECT_UNAUTHORIZED": "true",
	})
	require.NoError(t, err)
	require.Equal(t, "mail.example.com", cfg.Host)
	require.Equal(t, 2525, cfg.Port)
	require.True(t, cfg.Secure)
	require.Equal(t, 10*time.Second, cfg.Timeout)
	require.NotNil(t, cfg.TLSRejectUnauthorized)
	require.True(t, *cfg.TLSRejectUnauthorized)
	require.NoError(t, cfg.Validate())

	defaults, err := LoadConfigFrom(map[string]string{})
	require.NoError(t, err)
	require.Equal(t, 587, defaults.Port)
	require.Nil(t, defaults.TLSRejectUnauthorized)

	_, err = LoadConfigFrom(map[string]string{"SMTP_PORT": "many"})
	require.Error(t, err)
}
