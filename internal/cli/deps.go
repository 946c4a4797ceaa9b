package cli

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/dmitrymomot/courier/pkg/attachment"
	"github.com/dmitrymomot/courier/pkg/cache"
	"github.com/dmitrymomot/courier/pkg/mailer"
	"github.com/dmitrymomot/courier/pkg/mailer/resend"
	"github.com/dmitrymomot/courier/pkg/mailer/ses"
	"github.com/dmitrymomot/courier/pkg/mailer/smtp"
	"github.com/dmitrymomot/courier/pkg/mailservice"
	"github.com/dmitrymomot/courier/pkg/mailservice/fsstore"
	"github.com/dmitrymomot/courier/pkg/mailservice/pgstore"
)

const (
	redisAttempts = 3
	redisInterval = time.Second
	redisPrefix   = "courier:templates"
)

func (rt *runtimeState) resolver() *attachment.Resolver {
	opts := []attachment.Option{attachment.WithMaxSize(rt.cfg.AttachmentMaxSize)}
	if rt.cfg.S3.AccessKey != "" {
		opts = append(opts, attachment.WithS3(attachment.NewS3Client(rt.cfg.S3)))
	}
	return attachment.NewResolver(opts...)
}

func (rt *runtimeState) mailerOptions() []mailer.Option {
	return []mailer.Option{
		mailer.WithLogger(rt.log),
		mailer.WithMetrics(rt.metrics),
		mailer.WithAttachmentLoader(rt.resolver()),
	}
}

// newMailer builds a mailer over the transport named by MAIL_TRANSPORT.
func (rt *runtimeState) newMailer(ctx context.Context) (*mailer.Mailer, error) {
	mcfg := rt.cfg.Mailer
	if rt.opts.Transport != nil {
		return mailer.New(rt.opts.Transport, mcfg, rt.mailerOptions()...), nil
	}

	switch strings.ToLower(rt.cfg.Transport) {
	case transportSMTP:
		scfg := rt.cfg.Service.Default
		if mcfg.DefaultFrom == "" {
			mcfg.DefaultFrom = scfg.Username
		}
		t, err := smtp.NewTransport(scfg, smtp.WithLogger(rt.log))
		if err != nil {
			return nil, err
		}
		return mailer.New(t, mcfg, rt.mailerOptions()...), nil
	case transportResend:
		return resend.NewMailer(rt.cfg.Resend, mcfg, rt.mailerOptions()...)
	case transportSES:
		t, err := ses.New(ctx, rt.cfg.SES)
		if err != nil {
			return nil, err
		}
		return mailer.New(t, mcfg, rt.mailerOptions()...), nil
	default:
		return nil, fmt.Errorf("unknown transport %q: want smtp, resend or ses", rt.cfg.Transport)
	}
}

// stores bundles the configured template and config stores with the
// connections backing them.
type stores struct {
	templates mailservice.TemplateStore
	configs   mailservice.ConfigStore
	fs        *fsstore.Store
	pg        *pgstore.Store
	pool      *pgxpool.Pool
	redis     redis.UniversalClient
	cache     cache.Cache[mailservice.TemplateRecord]
}

func (s *stores) Close() {
	if s.cache != nil {
		_ = s.cache.Close()
	}
	if s.redis != nil {
		_ = s.redis.Close()
	}
	if s.pool != nil {
		s.pool.Close()
	}
}

func (rt *runtimeState) openStores(ctx context.Context) (*stores, error) {
	s := &stores{}
	switch strings.ToLower(rt.cfg.Store) {
	case storeFS:
		s.fs = fsstore.New(os.DirFS(rt.cfg.StoreDir))
		s.templates, s.configs = s.fs, s.fs
	case storePostgres:
		pool, err := rt.openPostgres(ctx)
		if err != nil {
			return nil, err
		}
		s.pool = pool
		s.pg = pgstore.New(pool)
		s.templates, s.configs = s.pg, s.pg
	default:
		return nil, fmt.Errorf("unknown store %q: want fs or pg", rt.cfg.Store)
	}

	if rt.cfg.RedisURL != "" {
		client, err := cache.OpenRedis(ctx, rt.cfg.RedisURL, redisAttempts, redisInterval)
		if err != nil {
			s.Close()
			return nil, err
		}
		s.redis = client
		s.cache = cache.NewRedis[mailservice.TemplateRecord](client, redisPrefix, rt.cfg.TemplateCacheTTL)
	} else {
		s.cache = cache.NewMemory[mailservice.TemplateRecord](cache.WithDefaultTTL(rt.cfg.TemplateCacheTTL))
	}
	s.templates = mailservice.NewCachedTemplateStore(s.templates, s.cache, rt.cfg.TemplateCacheTTL)
	return s, nil
}

func (rt *runtimeState) openPostgres(ctx context.Context) (*pgxpool.Pool, error) {
	cfg, err := rt.postgresConfig()
	if err != nil {
		return nil, err
	}
	return pgstore.Open(ctx, cfg)
}

func (rt *runtimeState) newService(s *stores) *mailservice.Service {
	opts := []mailservice.Option{
		mailservice.WithLogger(rt.log),
		mailservice.WithMailerOptions(rt.mailerOptions()...),
	}
	if rt.opts.Transport != nil {
		transport, mcfg := rt.opts.Transport, rt.cfg.Mailer
		opts = append(opts, mailservice.WithMailerFactory(
			func(_ smtp.Config, o ...mailer.Option) (*mailer.Mailer, error) {
				return mailer.New(transport, mcfg, o...), nil
			},
		))
	}
	return mailservice.New(s.templates, s.configs, rt.cfg.Service, opts...)
}
