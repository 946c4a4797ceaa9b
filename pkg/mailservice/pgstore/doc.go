// Package pgstore keeps templates and transport configs in PostgreSQL.
//
//	pool, err := pgstore.Open(ctx, cfg)
//	if err != nil {
//		return err
//	}
//	defer pool.Close()
//
//	if err := pgstore.Migrate(ctx, pool, cfg.MigrationsTable, log); err != nil {
//		return err
//	}
//	store := pgstore.New(pool)
//	svc := mailservice.New(store, store, svcCfg)
//
// Migrate applies the embedded goose migrations that create the
// email_templates and smtp_configs tables. Passwords are stored as given;
// encrypt them at rest on the database side if required.
package pgstore
