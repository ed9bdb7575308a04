package service

import (
	"context"
	"errors"
	"slices"
	"sync"

	"github.com/MKhiriev/go-offline-sync/internal/adapter"
	"github.com/MKhiriev/go-offline-sync/internal/logger"
	"github.com/MKhiriev/go-offline-sync/internal/store"
	"github.com/MKhiriev/go-offline-sync/models"
)

// fileFieldResolver asks the remote collection schema which fields hold
// files and caches the answer per collection. When the schema cannot be
// fetched it falls back to inference: a field whose string (or list of
// strings) value names a blob cached for the record is a file field.
type fileFieldResolver struct {
	remote adapter.RemoteService
	blobs  store.BlobStore
	logger *logger.Logger

	mu      sync.RWMutex
	schemas map[string][]string
}

func NewFileFieldResolver(remote adapter.RemoteService, blobs store.BlobStore, logger *logger.Logger) FileFieldResolver {
	return &fileFieldResolver{
		remote:  remote,
		blobs:   blobs,
		logger:  logger,
		schemas: make(map[string][]string),
	}
}

func (r *fileFieldResolver) FileFields(ctx context.Context, rec models.Record) []string {
	fields, err := r.schemaFields(ctx, rec.Collection)
	if err == nil {
		return fields
	}

	r.logger.Warn().Err(err).
		Str("func", "fileFieldResolver.FileFields").
		Str("collection", rec.Collection).
		Str("id", rec.ID).
		Msg("collection schema unavailable, inferring file fields from cached attachments")

	return r.inferFields(ctx, rec)
}

// Attachments loads the cached bytes of every filename held by a file
// field. Filenames without a cached blob are already stored remotely and
// are skipped. The file fields are returned alongside.
func (r *fileFieldResolver) Attachments(ctx context.Context, rec models.Record) ([]models.FileAttachment, []string) {
	fields := r.FileFields(ctx, rec)

	var files []models.FileAttachment
	for _, field := range fields {
		for _, name := range filenamesOf(rec.Get(field)) {
			data, err := r.blobs.GetBlob(ctx, rec.ID, name)
			if errors.Is(err, store.ErrBlobNotFound) {
				continue
			}
			if err != nil {
				r.logger.Err(err).
					Str("func", "fileFieldResolver.Attachments").
					Str("id", rec.ID).
					Str("filename", name).
					Msg("failed to read cached attachment")
				continue
			}
			files = append(files, models.FileAttachment{Field: field, Filename: name, Data: data})
		}
	}

	return files, fields
}

func (r *fileFieldResolver) schemaFields(ctx context.Context, collection string) ([]string, error) {
	r.mu.RLock()
	fields, ok := r.schemas[collection]
	r.mu.RUnlock()
	if ok {
		return fields, nil
	}

	schema, err := r.remote.GetCollectionSchema(ctx, collection)
	if err != nil {
		return nil, err
	}

	fields = schema.FileFields()
	slices.Sort(fields)

	r.mu.Lock()
	r.schemas[collection] = fields
	r.mu.Unlock()

	return fields, nil
}

func (r *fileFieldResolver) inferFields(ctx context.Context, rec models.Record) []string {
	names, err := r.blobs.ListBlobs(ctx, rec.ID)
	if err != nil || len(names) == 0 {
		return nil
	}

	var fields []string
	for field, value := range rec.Data {
		for _, v := range filenamesOf(value) {
			if slices.Contains(names, v) {
				fields = append(fields, field)
				break
			}
		}
	}
	slices.Sort(fields)
	return fields
}
