package smtp

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/go-playground/validator/v10"

	"github.com/dmitrymomot/courier/pkg/mailer"
)

// DefaultTimeout caps connect, greeting and socket operations.
const DefaultTimeout = 10 * time.Second

// Config describes one SMTP server and its credentials.
// Embed this in your app config for env parsing with caarlos0/env.
type Config struct {
	// TLSRejectUnauthorized enables certificate verification. Nil or false
	// accepts self-signed certificates.
	TLSRejectUnauthorized *bool `env:"SMTP_TLS_REJECT_UNAUTHORIZED"`

	Host     string `env:"SMTP_HOST" validate:"required,hostname_rfc1123|ip"`
	Username string `env:"SMTP_USER" validate:"required,email"`
	Password string `env:"SMTP_PASSWORD" validate:"required"`
	// Service names a well-known provider and fills Host and Port when Host is empty.
	Service   string        `env:"SMTP_SERVICE"`
	LocalName string        `env:"SMTP_LOCAL_NAME"`
	Port      int           `env:"SMTP_PORT" envDefault:"587" validate:"required,min=1,max=65535"`
	Timeout   time.Duration `env:"SMTP_TIMEOUT" envDefault:"10s"`
	Secure    bool          `env:"SMTP_SECURE" envDefault:"false"`
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// LoadConfig reads Config from the process environment.
func LoadConfig() (Config, error) {
	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return Config{}, fmt.Errorf("smtp: parse env: %w", err)
	}
	return cfg, nil
}

// LoadConfigFrom reads Config from the given variables instead of the process environment.
func LoadConfigFrom(environment map[string]string) (Config, error) {
	var cfg Config
	if err := env.ParseWithOptions(&cfg, env.Options{Environment: environment}); err != nil {
		return Config{}, fmt.Errorf("smtp: parse env: %w", err)
	}
	return cfg, nil
}

// withDefaults fills Host and Port from Service and applies the default timeout.
func (c Config) withDefaults() Config {
	if c.Host == "" && c.Service != "" {
		if s, ok := LookupService(c.Service); ok {
			c.Host = s.Host
			c.Port = s.Port
			c.Secure = s.Secure
		}
	}
	if c.Timeout <= 0 {
		c.Timeout = DefaultTimeout
	}
	return c
}

// Validate checks the config schema. It never touches the network.
func (c Config) Validate() error {
	if err := validate.Struct(c.withDefaults()); err != nil {
		return errors.Join(mailer.ErrInvalidConfig, err)
	}
	return nil
}

// Security returns the effective TLS settings for the config.
func (c Config) Security() Security {
	return ResolveSecurity(c.Port, c.Secure)
}

func (c Config) rejectUnauthorized() bool {
	return c.TLSRejectUnauthorized != nil && *c.TLSRejectUnauthorized
}

// RawConfig is unvalidated connection input, e.g. from an admin form.
// Port arrives as text and is coerced by Validate.
type RawConfig struct {
	TLSRejectUnauthorized *bool  `json:"tlsRejectUnauthorized,omitempty"`
	Host                  string `json:"host"`
	Port                  string `json:"port"`
	Username              string `json:"username"`
	Password              string `json:"password"`
	Service               string `json:"service,omitempty"`
	Secure                bool   `json:"secure"`
}

// Config coerces raw input into a Config. Only the port is checked here;
// schema rules are left to Config.Validate.
func (r RawConfig) Config() (Config, error) {
	cfg := Config{
		TLSRejectUnauthorized: r.TLSRejectUnauthorized,
		Host:                  strings.TrimSpace(r.Host),
		Username:              strings.TrimSpace(r.Username),
		Password:              r.Password,
		Service:               strings.TrimSpace(r.Service),
		Secure:                r.Secure,
	}
	if p := strings.TrimSpace(r.Port); p != "" {
		port, err := strconv.Atoi(p)
		if err != nil || port < 1 || port > 65535 {
			return Config{}, fmt.Errorf("%w: invalid port %q", mailer.ErrInvalidConfig, r.Port)
		}
		cfg.Port = port
	}
	cfg = cfg.withDefaults()
	if cfg.Host == "" {
		return Config{}, fmt.Errorf("%w: host is required", mailer.ErrInvalidConfig)
	}
	if cfg.Port == 0 {
		return Config{}, fmt.Errorf("%w: port is required", mailer.ErrInvalidConfig)
	}
	return cfg, nil
}
