package service

import (
	"context"
	"errors"
	"fmt"
	"maps"

	"github.com/MKhiriev/go-offline-sync/internal/logger"
	"github.com/MKhiriev/go-offline-sync/internal/policy"
	"github.com/MKhiriev/go-offline-sync/internal/store"
	"github.com/MKhiriev/go-offline-sync/models"
)

// localRecords applies record writes to the local store the way every cache
// leg and every mirror does, for both single-record operations and batches.
type localRecords struct {
	records store.LocalStore
	blobs   store.BlobStore
	logger  *logger.Logger
}

// create inserts a row with deleted=false, isNew=true.
func (l *localRecords) create(ctx context.Context, collection string, body map[string]any, files []models.FileAttachment, mode policy.CacheMode) (models.Record, error) {
	rec, err := l.records.Create(ctx, collection, withFileNames(body, files), models.RecordFlags{IsNew: true, NoSync: mode.NoSync})
	if err != nil {
		return models.Record{}, fmt.Errorf("create local record: %w", err)
	}
	if err = l.storeFiles(ctx, rec.ID, files); err != nil {
		return rec, err
	}
	return rec, nil
}

// update merges body into an existing row with deleted=false. A row that was
// created offline and never confirmed stays isNew so that its replay is
// still a create.
func (l *localRecords) update(ctx context.Context, collection, id string, body map[string]any, files []models.FileAttachment, mode policy.CacheMode) (models.Record, error) {
	existing, err := l.records.Get(ctx, collection, id)
	if err != nil {
		return models.Record{}, fmt.Errorf("update local record %s: %w", id, err)
	}

	flags := models.RecordFlags{IsNew: existing.IsNew, NoSync: mode.NoSync}
	rec, err := l.records.Update(ctx, collection, id, withFileNames(body, files), flags)
	if err != nil {
		return models.Record{}, fmt.Errorf("update local record %s: %w", id, err)
	}
	if err = l.storeFiles(ctx, rec.ID, files); err != nil {
		return rec, err
	}
	return rec, nil
}

// upsert updates the row whose id body carries, or creates one.
func (l *localRecords) upsert(ctx context.Context, collection string, body map[string]any, files []models.FileAttachment, mode policy.CacheMode) (models.Record, error) {
	if id, _ := body[models.FieldID].(string); id != "" {
		_, err := l.records.Get(ctx, collection, id)
		switch {
		case err == nil:
			return l.update(ctx, collection, id, body, files, mode)
		case !errors.Is(err, store.ErrRecordNotFound):
			return models.Record{}, fmt.Errorf("upsert local record %s: %w", id, err)
		}
	}
	return l.create(ctx, collection, body, files, mode)
}

// delete turns the row into a tombstone. When the row is unknown locally a
// bare tombstone is stored so the remote delete is still replayed; local-only
// deletes of unknown rows have nothing to record.
func (l *localRecords) delete(ctx context.Context, collection, id string, mode policy.CacheMode) (models.Record, error) {
	rec, err := l.records.SoftDelete(ctx, collection, id, models.RecordFlags{NoSync: mode.NoSync})
	if err == nil {
		return rec, nil
	}
	if !errors.Is(err, store.ErrRecordNotFound) {
		return models.Record{}, fmt.Errorf("delete local record %s: %w", id, err)
	}
	if mode.NoSync {
		return models.Record{ID: id, Collection: collection, Deleted: true, NoSync: true}, nil
	}

	rec, err = l.records.Put(ctx, models.Record{ID: id, Collection: collection, Data: map[string]any{}, Deleted: true})
	if err != nil {
		return models.Record{}, fmt.Errorf("store tombstone %s: %w", id, err)
	}
	return rec, nil
}

// mirror stores a record confirmed by the remote service as synced.
func (l *localRecords) mirror(ctx context.Context, collection string, body map[string]any) (models.Record, error) {
	rec := models.RecordFromMap(collection, body)
	if rec.ID == "" {
		return models.Record{}, ErrInvalidRemoteRecord
	}
	rec = rec.WithFlags(models.RecordFlags{Synced: true})

	stored, err := l.records.Put(ctx, rec)
	if err != nil {
		return models.Record{}, fmt.Errorf("mirror record %s: %w", rec.ID, err)
	}
	return stored, nil
}

// mirrorRead stores a record fetched from the remote service unless the
// local row carries unsynced changes; those win and are returned instead.
func (l *localRecords) mirrorRead(ctx context.Context, collection string, body map[string]any) (models.Record, error) {
	remote := models.RecordFromMap(collection, body)
	if remote.ID == "" {
		return models.Record{}, ErrInvalidRemoteRecord
	}

	local, err := l.records.Get(ctx, collection, remote.ID)
	if err == nil && local.IsPending() {
		l.logger.Debug().
			Str("func", "localRecords.mirrorRead").
			Str("collection", collection).
			Str("id", remote.ID).
			Msg("local row has pending changes, keeping it over the remote copy")
		return local, nil
	}

	return l.mirror(ctx, collection, body)
}

// mirrorDelete removes a row whose remote delete was confirmed.
func (l *localRecords) mirrorDelete(ctx context.Context, collection, id string) error {
	if err := l.records.Delete(ctx, collection, id); err != nil {
		return fmt.Errorf("remove local record %s: %w", id, err)
	}
	if err := l.blobs.DeleteBlobs(ctx, id); err != nil {
		l.logger.Warn().Err(err).
			Str("func", "localRecords.mirrorDelete").
			Str("id", id).
			Msg("failed to drop cached attachments")
	}
	return nil
}

func (l *localRecords) storeFiles(ctx context.Context, recordID string, files []models.FileAttachment) error {
	for _, f := range files {
		if err := l.blobs.PutBlob(ctx, recordID, f.Filename, f.Data); err != nil {
			return fmt.Errorf("cache attachment %s of %s: %w", f.Filename, recordID, err)
		}
	}
	return nil
}

// withFileNames returns a copy of body where every field that receives
// files holds their filenames: a string for one file, a list for several.
func withFileNames(body map[string]any, files []models.FileAttachment) map[string]any {
	out := maps.Clone(body)
	if out == nil {
		out = make(map[string]any)
	}
	if len(files) == 0 {
		return out
	}

	byField := make(map[string][]any)
	var order []string
	for _, f := range files {
		if _, ok := byField[f.Field]; !ok {
			order = append(order, f.Field)
		}
		byField[f.Field] = append(byField[f.Field], f.Filename)
	}
	for _, field := range order {
		names := byField[field]
		if len(names) == 1 {
			out[field] = names[0]
		} else {
			out[field] = names
		}
	}
	return out
}

// filenamesOf lists the string values held by a data field.
func filenamesOf(v any) []string {
	switch val := v.(type) {
	case string:
		if val == "" {
			return nil
		}
		return []string{val}
	case []string:
		return val
	case []any:
		out := make([]string, 0, len(val))
		for _, item := range val {
			if s, ok := item.(string); ok && s != "" {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}
