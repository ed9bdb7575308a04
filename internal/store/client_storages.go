package store

import (
	"context"
	"fmt"

	"github.com/MKhiriev/go-offline-sync/internal/config"
	"github.com/MKhiriev/go-offline-sync/internal/logger"
	"github.com/MKhiriev/go-offline-sync/internal/utils"
)

// ClientStorages groups the client-side storages into a single value that
// can be passed around the service layer.
type ClientStorages struct {
	// Records is the local record store holding the pending-change queue.
	Records LocalStore
	// Blobs caches attachment bytes of locally written records.
	Blobs BlobStore
	// Responses caches passthrough responses.
	Responses ResponseCache

	db *DB
}

// NewClientStorages initialises the client storage layer:
//  1. With DSN [config.MemoryDSN] records and responses live in a
//     [MemoryStore]; otherwise an SQLite connection is opened (creating the
//     database file if needed) and migrated.
//  2. The attachment cache is rooted at cfg.Files.BinaryDataDir.
func NewClientStorages(ctx context.Context, cfg config.ClientStorage, logger *logger.Logger) (*ClientStorages, error) {
	logger.Info().Msg("creating new storages...")

	blobs, err := NewFileBlobStorage(cfg.Files.BinaryDataDir, logger)
	if err != nil {
		return nil, fmt.Errorf("blob storage error: %w", err)
	}

	ids := utils.NewUUIDGenerator()

	if cfg.DB.IsMemory() {
		mem, err := NewMemoryStore("", ids)
		if err != nil {
			return nil, fmt.Errorf("memory storage error: %w", err)
		}
		return &ClientStorages{Records: mem, Blobs: blobs, Responses: mem}, nil
	}

	db, err := NewConnectSQLite(ctx, cfg.DB, logger)
	if err != nil {
		return nil, fmt.Errorf("sqlite connection error: %w", err)
	}

	if err := db.Migrate(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("migration failed: %w", err)
	}

	return &ClientStorages{
		Records:   NewRecordRepository(db, ids),
		Blobs:     blobs,
		Responses: NewResponseRepository(db),
		db:        db,
	}, nil
}

// Close releases the database connection, if any.
func (s *ClientStorages) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}
