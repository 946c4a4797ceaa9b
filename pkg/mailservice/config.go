package mailservice

import (
	"github.com/caarlos0/env/v11"

	"github.com/dmitrymomot/courier/pkg/mailer/smtp"
)

// Config holds the service defaults.
type Config struct {
	// Default is used when a send names no transport config.
	Default smtp.Config
	// DefaultFromName is the display name for sends on the default config.
	DefaultFromName string `env:"MAIL_FROM_NAME"`
	// DefaultFromEmail overrides the default config's username as sender.
	DefaultFromEmail string `env:"MAIL_FROM_EMAIL"`
	// FallbackSubject is used when neither the caller nor the template has one.
	FallbackSubject string `env:"MAIL_FALLBACK_SUBJECT"`
}

// LoadConfig reads Config from the environment.
func LoadConfig() (Config, error) {
	return env.ParseAs[Config]()
}
