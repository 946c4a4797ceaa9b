package pgstore

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/dmitrymomot/courier/pkg/mailservice"
)

// DB is the subset of *pgxpool.Pool used by Store.
type DB interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Begin(ctx context.Context) (pgx.Tx, error)
}

// Store implements mailservice.TemplateStore and mailservice.ConfigStore.
type Store struct {
	db DB
}

// New creates a Store. Run Migrate first.
func New(db DB) *Store {
	return &Store{db: db}
}

const (
	findTemplateSQL = `SELECT name, subject, html FROM email_templates WHERE name = $1`
	findConfigSQL   = `SELECT name, host, port, secure, username, password, from_name, from_email, tls_reject_unauthorized
		FROM smtp_configs WHERE name = $1`

	upsertTemplateSQL = `INSERT INTO email_templates (name, subject, html) VALUES ($1, $2, $3)
		ON CONFLICT (name) DO UPDATE SET subject = EXCLUDED.subject, html = EXCLUDED.html, updated_at = now()`
	upsertConfigSQL = `INSERT INTO smtp_configs
		(name, host, port, secure, username, password, from_name, from_email, tls_reject_unauthorized)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (name) DO UPDATE SET host = EXCLUDED.host, port = EXCLUDED.port, secure = EXCLUDED.secure,
			username = EXCLUDED.username, password = EXCLUDED.password, from_name = EXCLUDED.from_name,
			from_email = EXCLUDED.from_email, tls_reject_unauthorized = EXCLUDED.tls_reject_unauthorized,
			updated_at = now()`
	deleteTemplateSQL = `DELETE FROM email_templates WHERE name = $1`
	deleteConfigSQL   = `DELETE FROM smtp_configs WHERE name = $1`
)

// FindTemplateByName implements mailservice.TemplateStore.
func (s *Store) FindTemplateByName(ctx context.Context, name string) (*mailservice.TemplateRecord, error) {
	var r mailservice.TemplateRecord
	err := s.db.QueryRow(ctx, findTemplateSQL, name).Scan(&r.Name, &r.Subject, &r.HTML)
	if err != nil {
		return nil, notFound(err, "template", name)
	}
	return &r, nil
}

// FindConfigByName implements mailservice.ConfigStore.
func (s *Store) FindConfigByName(ctx context.Context, name string) (*mailservice.ConfigRecord, error) {
	var r mailservice.ConfigRecord
	err := s.db.QueryRow(ctx, findConfigSQL, name).Scan(
		&r.Name, &r.Host, &r.Port, &r.Secure, &r.Username, &r.Password,
		&r.FromName, &r.FromEmail, &r.TLSRejectUnauthorized,
	)
	if err != nil {
		return nil, notFound(err, "config", name)
	}
	return &r, nil
}

// SaveTemplate inserts or replaces a template.
func (s *Store) SaveTemplate(ctx context.Context, r mailservice.TemplateRecord) error {
	if _, err := s.db.Exec(ctx, upsertTemplateSQL, r.Name, r.Subject, r.HTML); err != nil {
		return fmt.Errorf("pgstore: save template %q: %w", r.Name, err)
	}
	return nil
}

// SaveConfig inserts or replaces a transport config.
func (s *Store) SaveConfig(ctx context.Context, r mailservice.ConfigRecord) error {
	_, err := s.db.Exec(ctx, upsertConfigSQL,
		r.Name, r.Host, r.Port, r.Secure, r.Username, r.Password, r.FromName, r.FromEmail, r.TLSRejectUnauthorized)
	if err != nil {
		return fmt.Errorf("pgstore: save config %q: %w", r.Name, err)
	}
	return nil
}

// DeleteTemplate removes a template. It returns mailservice.ErrRecordNotFound
// when nothing was deleted.
func (s *Store) DeleteTemplate(ctx context.Context, name string) error {
	return s.delete(ctx, deleteTemplateSQL, "template", name)
}

// DeleteConfig removes a transport config. It returns
// mailservice.ErrRecordNotFound when nothing was deleted.
func (s *Store) DeleteConfig(ctx context.Context, name string) error {
	return s.delete(ctx, deleteConfigSQL, "config", name)
}

func (s *Store) delete(ctx context.Context, sql, kind, name string) error {
	tag, err := s.db.Exec(ctx, sql, name)
	if err != nil {
		return fmt.Errorf("pgstore: delete %s %q: %w", kind, name, err)
	}
	if tag.RowsAffected() == 0 {
		return mailservice.ErrRecordNotFound
	}
	return nil
}

// ImportTemplates upserts all records in one transaction.
func (s *Store) ImportTemplates(ctx context.Context, records []mailservice.TemplateRecord) error {
	return WithTx(ctx, s.db, func(tx pgx.Tx) error {
		for _, r := range records {
			if _, err := tx.Exec(ctx, upsertTemplateSQL, r.Name, r.Subject, r.HTML); err != nil {
				return fmt.Errorf("pgstore: import template %q: %w", r.Name, err)
			}
		}
		return nil
	})
}

// WithTx runs fn in a transaction, rolling back on error or panic.
func WithTx(ctx context.Context, db DB, fn func(tx pgx.Tx) error) error {
	tx, err := db.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback(ctx)
			panic(p)
		}
	}()

	if err := fn(tx); err != nil {
		_ = tx.Rollback(ctx)
		return err
	}
	return tx.Commit(ctx)
}

func notFound(err error, kind, name string) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return mailservice.ErrRecordNotFound
	}
	return fmt.Errorf("pgstore: find %s %q: %w", kind, name, err)
}

var (
	_ mailservice.TemplateStore = (*Store)(nil)
	_ mailservice.ConfigStore   = (*Store)(nil)
)
