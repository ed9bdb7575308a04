// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package store

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/MKhiriev/go-offline-sync/internal/logger"
	"github.com/MKhiriev/go-offline-sync/models"
)

type recordRepository struct {
	*DB
	ids    IDGenerator
	hub    *changeHub
	now    func() time.Time

	// mu serialises read-modify-write sequences (Update, SoftDelete).
	mu sync.Mutex
}

// NewRecordRepository returns a SQLite-backed LocalStore.
func NewRecordRepository(db *DB, ids IDGenerator) LocalStore {
	return &recordRepository{
		DB:  db,
		ids: ids,
		hub: newChangeHub(),
		now: time.Now,
	}
}

func (r *recordRepository) Create(ctx context.Context, collection string, data map[string]any, flags models.RecordFlags) (models.Record, error) {
	log := logger.FromContext(ctx)

	rec := newLocalRecord(collection, data, flags, r.ids, r.now())
	row, err := newRecordRow(rec)
	if err != nil {
		return models.Record{}, err
	}

	query, args, err := buildInsertRecordQuery(row)
	if err != nil {
		log.Err(err).Str("func", "recordRepository.Create").Msg("failed to build insert query")
		return models.Record{}, fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}

	if _, err = r.execWithRetry(ctx, query, args...); err != nil {
		if isConstraintViolation(err) {
			return models.Record{}, fmt.Errorf("%w: %s/%s", ErrRecordExists, collection, rec.ID)
		}
		log.Err(err).
			Str("func", "recordRepository.Create").
			Str("collection", collection).
			Str("id", rec.ID).
			Msg("failed to insert record")
		return models.Record{}, fmt.Errorf("%w: %w", ErrExecutingStatement, err)
	}

	r.hub.publish(collection)
	return rec, nil
}

func (r *recordRepository) Update(ctx context.Context, collection, id string, data map[string]any, flags models.RecordFlags) (models.Record, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	existing, err := r.Get(ctx, collection, id)
	if err != nil {
		return models.Record{}, err
	}

	return r.upsert(ctx, mergeRecord(existing, data, flags, r.now()), "recordRepository.Update")
}

func (r *recordRepository) Put(ctx context.Context, rec models.Record) (models.Record, error) {
	now := r.now()
	if rec.Created.IsZero() {
		rec.Created = now
	}
	if rec.Updated.IsZero() {
		rec.Updated = now
	}
	rec.Data = userFields(rec.Data)

	return r.upsert(ctx, rec, "recordRepository.Put")
}

func (r *recordRepository) SoftDelete(ctx context.Context, collection, id string, flags models.RecordFlags) (models.Record, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	existing, err := r.Get(ctx, collection, id)
	if err != nil {
		return models.Record{}, err
	}

	flags.Deleted = true
	flags.IsNew = existing.IsNew
	tombstone := existing.WithFlags(flags)
	tombstone.Updated = r.now()

	return r.upsert(ctx, tombstone, "recordRepository.SoftDelete")
}

func (r *recordRepository) upsert(ctx context.Context, rec models.Record, fn string) (models.Record, error) {
	log := logger.FromContext(ctx)

	row, err := newRecordRow(rec)
	if err != nil {
		return models.Record{}, err
	}

	query, args, err := buildUpsertRecordQuery(row)
	if err != nil {
		log.Err(err).Str("func", fn).Msg("failed to build upsert query")
		return models.Record{}, fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}

	if _, err = r.execWithRetry(ctx, query, args...); err != nil {
		log.Err(err).
			Str("func", fn).
			Str("collection", rec.Collection).
			Str("id", rec.ID).
			Msg("failed to upsert record")
		return models.Record{}, fmt.Errorf("%w: %w", ErrExecutingStatement, err)
	}

	r.hub.publish(rec.Collection)
	return rec, nil
}

func (r *recordRepository) Delete(ctx context.Context, collection, id string) error {
	log := logger.FromContext(ctx)

	query, args, err := buildDeleteRecordQuery(collection, id)
	if err != nil {
		log.Err(err).Str("func", "recordRepository.Delete").Msg("failed to build delete query")
		return fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}

	if _, err = r.execWithRetry(ctx, query, args...); err != nil {
		log.Err(err).
			Str("func", "recordRepository.Delete").
			Str("collection", collection).
			Str("id", id).
			Msg("failed to delete record")
		return fmt.Errorf("%w: %w", ErrExecutingStatement, err)
	}

	r.hub.publish(collection)
	return nil
}

func (r *recordRepository) Get(ctx context.Context, collection, id string) (models.Record, error) {
	return r.QueryOne(ctx, RecordFilter{Collection: collection, ID: id, IncludeDeleted: true})
}

func (r *recordRepository) QueryOne(ctx context.Context, filter RecordFilter) (models.Record, error) {
	filter.Limit = 1
	records, err := r.Query(ctx, filter)
	if err != nil {
		return models.Record{}, err
	}
	if len(records) == 0 {
		return models.Record{}, ErrRecordNotFound
	}
	return records[0], nil
}

func (r *recordRepository) Query(ctx context.Context, filter RecordFilter) ([]models.Record, error) {
	log := logger.FromContext(ctx)

	query, args, err := buildSelectRecordsQuery(filter)
	if err != nil {
		log.Err(err).Str("func", "recordRepository.Query").Msg("failed to build select query")
		return nil, fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}

	rows, err := r.QueryContext(ctx, query, args...)
	if err != nil {
		log.Err(err).
			Str("func", "recordRepository.Query").
			Str("collection", filter.Collection).
			Msg("failed to query records")
		return nil, fmt.Errorf("%w: %w", ErrExecutingQuery, err)
	}
	defer rows.Close()

	records := make([]models.Record, 0)
	for rows.Next() {
		var row recordRow
		if err = rows.Scan(row.scanTargets()...); err != nil {
			log.Err(err).Str("func", "recordRepository.Query").Msg("failed to scan record row")
			return nil, fmt.Errorf("%w: %w", ErrScanningRows, err)
		}

		rec, err := row.toRecord()
		if err != nil {
			log.Err(err).
				Str("func", "recordRepository.Query").
				Str("collection", row.Collection).
				Str("id", row.ID).
				Msg("failed to decode record data")
			return nil, err
		}
		records = append(records, rec)
	}

	if err = rows.Err(); err != nil {
		log.Err(err).Str("func", "recordRepository.Query").Msg("failed to iterate record rows")
		return nil, fmt.Errorf("%w: %w", ErrScanningRows, err)
	}

	return records, nil
}

func (r *recordRepository) Watch(ctx context.Context, filter RecordFilter) (<-chan []models.Record, error) {
	return watchQuery(ctx, r.hub, filter, r.Query)
}

func (r *recordRepository) Collections(ctx context.Context) ([]string, error) {
	log := logger.FromContext(ctx)

	query, args, err := buildSelectCollectionsQuery()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}

	rows, err := r.QueryContext(ctx, query, args...)
	if err != nil {
		log.Err(err).Str("func", "recordRepository.Collections").Msg("failed to query collections")
		return nil, fmt.Errorf("%w: %w", ErrExecutingQuery, err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var name string
		if err = rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrScanningRows, err)
		}
		out = append(out, name)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrScanningRows, err)
	}

	return out, nil
}
