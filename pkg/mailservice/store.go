package mailservice

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/dmitrymomot/courier/pkg/cache"
	"github.com/dmitrymomot/courier/pkg/mailer/smtp"
)

// TemplateRecord is a stored email template.
type TemplateRecord struct {
	Name    string `json:"name" yaml:"name"`
	Subject string `json:"subject" yaml:"subject"`
	HTML    string `json:"html" yaml:"-"`
}

// Empty reports whether the record has no usable body.
func (r *TemplateRecord) Empty() bool {
	return r == nil || strings.TrimSpace(r.HTML) == ""
}

// ConfigRecord is a stored SMTP configuration.
type ConfigRecord struct {
	TLSRejectUnauthorized *bool  `json:"tls_reject_unauthorized,omitempty" yaml:"tls_reject_unauthorized"`
	Name                  string `json:"name" yaml:"name"`
	Host                  string `json:"host" yaml:"host"`
	Username              string `json:"username" yaml:"username"`
	Password              string `json:"password" yaml:"password"`
	FromName              string `json:"from_name" yaml:"from_name"`
	FromEmail             string `json:"from_email" yaml:"from_email"`
	Port                  int    `json:"port" yaml:"port"`
	Secure                bool   `json:"secure" yaml:"secure"`
}

// SMTPConfig converts the record into a transport config. Timeout and
// LocalName are taken from base.
func (r ConfigRecord) SMTPConfig(base smtp.Config) smtp.Config {
	return smtp.Config{
		Host:                  r.Host,
		Port:                  r.Port,
		Secure:                r.Secure,
		Username:              r.Username,
		Password:              r.Password,
		TLSRejectUnauthorized: r.TLSRejectUnauthorized,
		Timeout:               base.Timeout,
		LocalName:             base.LocalName,
	}
}

// RawConfig converts the record into validator input.
func (r ConfigRecord) RawConfig() smtp.RawConfig {
	return smtp.RawConfig{
		Host:                  r.Host,
		Port:                  strconv.Itoa(r.Port),
		Secure:                r.Secure,
		Username:              r.Username,
		Password:              r.Password,
		TLSRejectUnauthorized: r.TLSRejectUnauthorized,
	}
}

// TemplateStore finds templates by name.
// Implementations return ErrRecordNotFound for unknown names.
type TemplateStore interface {
	FindTemplateByName(ctx context.Context, name string) (*TemplateRecord, error)
}

// ConfigStore finds SMTP configurations by name.
// Implementations return ErrRecordNotFound for unknown names.
type ConfigStore interface {
	FindConfigByName(ctx context.Context, name string) (*ConfigRecord, error)
}

// CachedTemplateStore is a read-through cache in front of a TemplateStore.
// Misses are not cached.
type CachedTemplateStore struct {
	store TemplateStore
	cache cache.Cache[TemplateRecord]
	ttl   time.Duration
}

// NewCachedTemplateStore wraps store. A zero ttl uses the cache default.
func NewCachedTemplateStore(store TemplateStore, c cache.Cache[TemplateRecord], ttl time.Duration) *CachedTemplateStore {
	return &CachedTemplateStore{store: store, cache: c, ttl: ttl}
}

// FindTemplateByName implements TemplateStore.
func (s *CachedTemplateStore) FindTemplateByName(ctx context.Context, name string) (*TemplateRecord, error) {
	rec, err := cache.GetOrSet(ctx, s.cache, templateCacheKey(name), func(ctx context.Context) (TemplateRecord, time.Duration, error) {
		r, err := s.store.FindTemplateByName(ctx, name)
		if err != nil {
			return TemplateRecord{}, 0, err
		}
		if r == nil {
			return TemplateRecord{}, 0, ErrRecordNotFound
		}
		return *r, s.ttl, nil
	})
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// Invalidate drops name from the cache, typically after the template was edited.
func (s *CachedTemplateStore) Invalidate(ctx context.Context, name string) error {
	return s.cache.Delete(ctx, templateCacheKey(name))
}

func templateCacheKey(name string) string { return "template:" + name }
