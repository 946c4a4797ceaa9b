package pgstore

import "errors"

var (
	ErrInvalidConfig     = errors.New("pgstore: invalid database configuration")
	ErrConnectionFailed  = errors.New("pgstore: failed to connect to database")
	ErrHealthcheckFailed = errors.New("pgstore: healthcheck failed")
	ErrMigrationFailed   = errors.New("pgstore: failed to apply migrations")
)
