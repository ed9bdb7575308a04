package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/MKhiriev/go-offline-sync/internal/logger"
	"github.com/MKhiriev/go-offline-sync/models"
)

type responseRepository struct {
	*DB
	now func() time.Time
}

// NewResponseRepository returns a SQLite-backed ResponseCache.
func NewResponseRepository(db *DB) ResponseCache {
	return &responseRepository{DB: db, now: time.Now}
}

func (r *responseRepository) PutResponse(ctx context.Context, key string, resp models.SendResponse) error {
	log := logger.FromContext(ctx)

	query, args, err := buildUpsertResponseQuery(key, resp.Status, resp.Body, formatTime(r.now()))
	if err != nil {
		return fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}

	if _, err = r.execWithRetry(ctx, query, args...); err != nil {
		log.Err(err).Str("func", "responseRepository.PutResponse").Str("key", key).Msg("failed to cache response")
		return fmt.Errorf("%w: %w", ErrExecutingStatement, err)
	}
	return nil
}

func (r *responseRepository) GetResponse(ctx context.Context, key string) (models.SendResponse, error) {
	query, args, err := buildSelectResponseQuery(key)
	if err != nil {
		return models.SendResponse{}, fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}

	var resp models.SendResponse
	err = r.QueryRowContext(ctx, query, args...).Scan(&resp.Status, &resp.Body)
	if errors.Is(err, sql.ErrNoRows) {
		return models.SendResponse{}, ErrResponseNotCached
	}
	if err != nil {
		logger.FromContext(ctx).Err(err).
			Str("func", "responseRepository.GetResponse").
			Str("key", key).
			Msg("failed to read cached response")
		return models.SendResponse{}, fmt.Errorf("%w: %w", ErrExecutingQuery, err)
	}

	resp.FromCache = true
	return resp, nil
}
