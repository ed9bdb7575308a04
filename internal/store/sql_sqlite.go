package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	_ "github.com/mattn/go-sqlite3"

	"github.com/MKhiriev/go-offline-sync/internal/config"
	"github.com/MKhiriev/go-offline-sync/internal/logger"
)

// sqlitePragmas are applied to plain file DSNs. WAL lets the dashboard read
// while a replay writes; the busy timeout absorbs short lock waits before the
// retry classifier sees them.
const sqlitePragmas = "_busy_timeout=5000&_journal_mode=WAL&_foreign_keys=on"

// NewConnectSQLite opens the local record database, creating its parent
// directory when needed.
func NewConnectSQLite(ctx context.Context, cfg config.ClientDB, log *logger.Logger) (*DB, error) {
	const fn = "NewConnectSQLite"

	if err := ensureDBDir(cfg.DSN); err != nil {
		log.Err(err).Str("func", fn).Msg("cannot prepare database directory")
		return nil, err
	}

	conn, err := sql.Open("sqlite3", sqliteDSN(cfg.DSN))
	if err != nil {
		log.Err(err).Str("func", fn).Msg("cannot open database")
		return nil, fmt.Errorf("open sqlite %s: %w", cfg.DSN, err)
	}
	// a single connection serializes writers and keeps rowid order stable
	conn.SetMaxOpenConns(1)

	if err = conn.PingContext(ctx); err != nil {
		log.Err(err).Str("func", fn).Msg("database is not reachable")
		_ = conn.Close()
		return nil, fmt.Errorf("ping sqlite %s: %w", cfg.DSN, err)
	}
	log.Debug().Str("func", fn).Str("dsn", cfg.DSN).Msg("database opened")

	return &DB{
		DB:                 conn,
		errorClassificator: NewSQLiteErrorClassifier(),
		logger:             log,
	}, nil
}

// sqliteDSN appends the connection pragmas to a plain file path. URIs and
// DSNs that already carry parameters are used verbatim.
func sqliteDSN(dsn string) string {
	if strings.HasPrefix(dsn, "file:") || strings.Contains(dsn, "?") {
		return dsn
	}
	return dsn + "?" + sqlitePragmas
}

func ensureDBDir(dsn string) error {
	if strings.HasPrefix(dsn, "file:") {
		return nil
	}
	path, _, _ := strings.Cut(dsn, "?")
	dir := filepath.Dir(path)
	if dir == "." {
		return nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create database directory %s: %w", dir, err)
	}
	return nil
}
