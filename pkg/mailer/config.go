package mailer

// Config holds mailer configuration.
// Embed this in your app config for env parsing with caarlos0/env.
type Config struct {
	// DefaultFrom is used when a message carries no From address.
	DefaultFrom string `env:"MAILER_DEFAULT_FROM"`
	// BulkConcurrency caps concurrent sends in SendBulk; 0 means unlimited.
	BulkConcurrency int `env:"MAILER_BULK_CONCURRENCY" envDefault:"0"`
	// PlainTextFallback derives a text part from HTML when Text is empty.
	PlainTextFallback bool `env:"MAILER_PLAIN_TEXT_FALLBACK" envDefault:"false"`
}
