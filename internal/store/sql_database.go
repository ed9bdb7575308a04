package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/MKhiriev/go-offline-sync/internal/logger"
	"github.com/MKhiriev/go-offline-sync/migrations"
)

const (
	busyRetryAttempts = 3
	busyRetryDelay    = 20 * time.Millisecond
)

// DB wraps a SQLite connection together with the error classifier used to
// retry statements that hit a busy or locked database.
type DB struct {
	*sql.DB
	errorClassificator ErrorClassificator
	logger             *logger.Logger
}

// Migrate applies the embedded schema migrations.
func (db *DB) Migrate(ctx context.Context) error {
	applied, err := migrations.Migrate(ctx, db.DB)
	if err != nil {
		return err
	}
	if len(applied) > 0 {
		db.logger.Info().
			Str("func", "DB.Migrate").
			Ints64("versions", applied).
			Msg("schema migrated")
	}
	return nil
}

// execWithRetry runs a DML statement, retrying while the classifier reports
// the failure as transient.
func (db *DB) execWithRetry(ctx context.Context, query string, args ...any) (sql.Result, error) {
	var (
		res sql.Result
		err error
	)
	for attempt := 1; attempt <= busyRetryAttempts; attempt++ {
		res, err = db.ExecContext(ctx, query, args...)
		if err == nil || db.errorClassificator.Classify(err) != Retryable || attempt == busyRetryAttempts {
			return res, err
		}

		db.logger.Debug().
			Str("func", "DB.execWithRetry").
			Int("attempt", attempt).
			Msg("database is busy, retrying statement")

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(busyRetryDelay * time.Duration(attempt)):
		}
	}
	return res, err
}
