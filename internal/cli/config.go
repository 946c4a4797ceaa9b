package cli

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"

	"github.com/dmitrymomot/courier/pkg/attachment"
	"github.com/dmitrymomot/courier/pkg/logger"
	"github.com/dmitrymomot/courier/pkg/mailer"
	"github.com/dmitrymomot/courier/pkg/mailer/resend"
	"github.com/dmitrymomot/courier/pkg/mailer/ses"
	"github.com/dmitrymomot/courier/pkg/mailservice"
	"github.com/dmitrymomot/courier/pkg/mailservice/pgstore"
)

const (
	transportSMTP   = "smtp"
	transportResend = "resend"
	transportSES    = "ses"

	storeFS       = "fs"
	storePostgres = "pg"
)

// Config is everything courier reads from the environment.
type Config struct {
	Log     logger.Config
	Mailer  mailer.Config
	Service mailservice.Config
	Resend  resend.Config
	SES     ses.Config
	S3      attachment.S3Config

	// Transport is smtp, resend or ses.
	Transport string `env:"MAIL_TRANSPORT" envDefault:"smtp"`
	// Store is fs or pg.
	Store    string `env:"COURIER_STORE" envDefault:"fs"`
	StoreDir string `env:"COURIER_STORE_DIR" envDefault:"."`

	// RedisURL switches the template cache from memory to Redis.
	RedisURL         string        `env:"REDIS_URL"`
	TemplateCacheTTL time.Duration `env:"COURIER_TEMPLATE_CACHE_TTL" envDefault:"5m"`

	AttachmentMaxSize int64  `env:"COURIER_ATTACHMENT_MAX_SIZE" envDefault:"26214400"`
	PushgatewayURL    string `env:"PUSHGATEWAY_URL"`
}

func parseEnv[T any](environ map[string]string) (T, error) {
	if environ == nil {
		return env.ParseAs[T]()
	}
	var v T
	err := env.ParseWithOptions(&v, env.Options{Environment: environ})
	return v, err
}

func loadConfig(environ map[string]string) (Config, error) {
	cfg, err := parseEnv[Config](environ)
	if err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}

// postgresConfig is parsed on demand so DATABASE_URL is only required
// when the pg store is in use.
func (rt *runtimeState) postgresConfig() (pgstore.Config, error) {
	cfg, err := parseEnv[pgstore.Config](rt.opts.Environ)
	if err != nil {
		return pgstore.Config{}, fmt.Errorf("parse database env: %w", err)
	}
	return cfg, nil
}
