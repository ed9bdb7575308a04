// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"slices"
	"sync"

	"github.com/MKhiriev/go-offline-sync/internal/logger"
	"github.com/MKhiriev/go-offline-sync/internal/store"
	"github.com/MKhiriev/go-offline-sync/internal/validators"
	"github.com/MKhiriev/go-offline-sync/models"
)

const (
	defaultPerPage = 30
	maxPerPage     = 500
)

// Field types reported by Schema.
const (
	FieldTypeText   = "text"
	FieldTypeNumber = "number"
	FieldTypeBool   = "bool"
	FieldTypeJSON   = "json"
	FieldTypeFile   = models.FieldTypeFile
)

// recordBackendService keeps the records of the reference remote service.
// Every write is published to realtime subscribers.
type recordBackendService struct {
	records store.LocalStore
	blobs   store.BlobStore
	ids     store.IDGenerator
	events  *eventBroker

	// writeMu serialises read-modify-write sequences (upsert, delete).
	writeMu sync.Mutex

	schemaMu sync.Mutex
	schemas  map[string]map[string]string

	logger *logger.Logger
}

func NewRecordBackendService(storages *store.ServerStorages, ids store.IDGenerator, logger *logger.Logger) RecordBackendService {
	return &recordBackendService{
		records: storages.Records,
		blobs:   storages.Blobs,
		ids:     ids,
		events:  newEventBroker(logger),
		schemas: make(map[string]map[string]string),
		logger:  logger,
	}
}

func (s *recordBackendService) List(ctx context.Context, collection string, query ListQuery) (models.ListResponse, error) {
	filter := store.RecordFilter{Collection: collection}
	if len(query.Filter) > 0 {
		filter.Equals = make(map[string]any, len(query.Filter))
		for field, raw := range query.Filter {
			filter.Equals[field] = filterValue(raw)
		}
	}

	recs, err := s.records.Query(ctx, filter)
	if err != nil {
		return models.ListResponse{}, fmt.Errorf("list %s: %w", collection, err)
	}

	page, perPage := query.Page, query.PerPage
	if page < 1 {
		page = 1
	}
	if perPage < 1 {
		perPage = defaultPerPage
	}
	perPage = min(perPage, maxPerPage)

	resp := models.ListResponse{
		Page:       page,
		PerPage:    perPage,
		TotalItems: len(recs),
		TotalPages: (len(recs) + perPage - 1) / perPage,
		Items:      []map[string]any{},
	}

	start := (page - 1) * perPage
	if start < len(recs) {
		for _, rec := range recs[start:min(start+perPage, len(recs))] {
			resp.Items = append(resp.Items, rec.ToMap())
		}
	}
	return resp, nil
}

// filterValue decodes a query-string filter value as JSON when it is valid
// JSON, so that numbers and booleans match typed fields.
func filterValue(raw string) any {
	var v any
	if err := json.Unmarshal([]byte(raw), &v); err != nil {
		return raw
	}
	return v
}

func (s *recordBackendService) Get(ctx context.Context, collection, id string) (map[string]any, error) {
	rec, err := s.records.Get(ctx, collection, id)
	if err != nil {
		return nil, fmt.Errorf("get %s/%s: %w", collection, id, err)
	}
	return rec.ToMap(), nil
}

func (s *recordBackendService) Create(ctx context.Context, collection string, body map[string]any, files []models.FileAttachment) (map[string]any, error) {
	data := withFileNames(models.StripMeta(body), files)
	if id, _ := data[models.FieldID].(string); id == "" {
		data[models.FieldID] = s.ids.Generate()
	}

	rec, err := s.records.Create(ctx, collection, data, models.RecordFlags{Synced: true})
	if err != nil {
		return nil, fmt.Errorf("create in %s: %w", collection, err)
	}
	if err = s.storeFiles(ctx, rec.ID, files); err != nil {
		return nil, err
	}

	s.learnSchema(collection, rec.Data, files)
	s.events.publish(models.RecordEvent{Action: models.EventCreate, Record: rec})

	logger.FromContext(ctx).Debug().
		Str("func", "recordBackendService.Create").
		Str("collection", collection).
		Str("id", rec.ID).
		Msg("record created")

	return rec.ToMap(), nil
}

func (s *recordBackendService) Update(ctx context.Context, collection, id string, body map[string]any, files []models.FileAttachment) (map[string]any, error) {
	data := withFileNames(models.StripMeta(body), files)
	delete(data, models.FieldID)

	rec, err := s.records.Update(ctx, collection, id, data, models.RecordFlags{Synced: true})
	if err != nil {
		return nil, fmt.Errorf("update %s/%s: %w", collection, id, err)
	}
	if err = s.storeFiles(ctx, rec.ID, files); err != nil {
		return nil, err
	}

	s.learnSchema(collection, data, files)
	s.events.publish(models.RecordEvent{Action: models.EventUpdate, Record: rec})

	return rec.ToMap(), nil
}

func (s *recordBackendService) Upsert(ctx context.Context, collection string, body map[string]any, files []models.FileAttachment) (map[string]any, error) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	if id, _ := body[models.FieldID].(string); id != "" {
		_, err := s.records.Get(ctx, collection, id)
		switch {
		case err == nil:
			return s.Update(ctx, collection, id, body, files)
		case !errors.Is(err, store.ErrRecordNotFound):
			return nil, fmt.Errorf("upsert %s/%s: %w", collection, id, err)
		}
	}
	return s.Create(ctx, collection, body, files)
}

func (s *recordBackendService) Delete(ctx context.Context, collection, id string) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	rec, err := s.records.Get(ctx, collection, id)
	if err != nil {
		return fmt.Errorf("delete %s/%s: %w", collection, id, err)
	}
	if err = s.records.Delete(ctx, collection, id); err != nil {
		return fmt.Errorf("delete %s/%s: %w", collection, id, err)
	}
	if err = s.blobs.DeleteBlobs(ctx, id); err != nil {
		s.logger.Warn().Err(err).
			Str("func", "recordBackendService.Delete").
			Str("id", id).
			Msg("failed to drop uploaded files")
	}

	s.events.publish(models.RecordEvent{Action: models.EventDelete, Record: rec})
	return nil
}

// Batch runs every request and maps its outcome to a status.
func (s *recordBackendService) Batch(ctx context.Context, requests []models.BatchRequest) ([]models.BatchResponseItem, error) {
	items := make([]models.BatchResponseItem, len(requests))
	for i, req := range requests {
		items[i] = s.batchItem(ctx, req)
	}
	return items, nil
}

func (s *recordBackendService) batchItem(ctx context.Context, req models.BatchRequest) models.BatchResponseItem {
	var (
		body map[string]any
		err  error
	)

	switch req.Method {
	case models.BatchCreate:
		body, err = s.Create(ctx, req.Collection, req.Body, req.Files)
	case models.BatchUpdate:
		body, err = s.Update(ctx, req.Collection, req.RecordID, req.Body, req.Files)
	case models.BatchUpsert:
		body, err = s.Upsert(ctx, req.Collection, req.Body, req.Files)
	case models.BatchDelete:
		if err = s.Delete(ctx, req.Collection, req.RecordID); err == nil {
			return models.BatchResponseItem{Status: http.StatusNoContent, ID: req.RecordID}
		}
	default:
		err = fmt.Errorf("%w: %q", ErrUnknownBatchMethod, req.Method)
	}

	if err != nil {
		status := BatchStatus(err)
		if status >= http.StatusInternalServerError {
			s.logger.Err(err).
				Str("func", "recordBackendService.batchItem").
				Str("collection", req.Collection).
				Msg("batch item failed")
		}
		return models.BatchResponseItem{
			Status: status,
			Body:   models.ErrorResponse{Status: status, Message: err.Error(), Data: map[string]any{}},
		}
	}

	id, _ := body[models.FieldID].(string)
	return models.BatchResponseItem{Status: http.StatusOK, Body: body, ID: id}
}

// BatchStatus maps a record operation error to the status reported for a
// batch item.
func BatchStatus(err error) int {
	var validationErr *ValidationError
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, store.ErrRecordNotFound), errors.Is(err, ErrCollectionNotFound):
		return http.StatusNotFound
	case errors.Is(err, store.ErrRecordExists):
		return http.StatusConflict
	case errors.As(err, &validationErr), errors.Is(err, ErrUnknownBatchMethod),
		errors.Is(err, ErrInvalidRecordData), errors.Is(err, store.ErrInvalidBlobName):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func (s *recordBackendService) storeFiles(ctx context.Context, recordID string, files []models.FileAttachment) error {
	for _, f := range files {
		if err := s.blobs.PutBlob(ctx, recordID, f.Filename, f.Data); err != nil {
			return fmt.Errorf("store file %s of %s: %w", f.Filename, recordID, err)
		}
	}
	return nil
}

func (s *recordBackendService) Schema(ctx context.Context, collection string) (models.CollectionSchema, error) {
	s.schemaMu.Lock()
	fields, known := s.schemas[collection]
	s.schemaMu.Unlock()

	if !known {
		var err error
		if fields, err = s.scanSchema(ctx, collection); err != nil {
			return models.CollectionSchema{}, err
		}
	}

	schema := models.CollectionSchema{Name: collection, Fields: make([]models.SchemaField, 0, len(fields))}
	s.schemaMu.Lock()
	for name, typ := range fields {
		schema.Fields = append(schema.Fields, models.SchemaField{Name: name, Type: typ})
	}
	s.schemaMu.Unlock()
	slices.SortFunc(schema.Fields, func(a, b models.SchemaField) int {
		switch {
		case a.Name < b.Name:
			return -1
		case a.Name > b.Name:
			return 1
		}
		return 0
	})
	return schema, nil
}

// scanSchema rebuilds the field types of collection from stored records.
// A field counts as a file field when its values name uploaded files.
func (s *recordBackendService) scanSchema(ctx context.Context, collection string) (map[string]string, error) {
	recs, err := s.records.Query(ctx, store.RecordFilter{Collection: collection})
	if err != nil {
		return nil, fmt.Errorf("scan schema of %s: %w", collection, err)
	}
	if len(recs) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrCollectionNotFound, collection)
	}

	fields := make(map[string]string)
	for _, rec := range recs {
		blobs, err := s.blobs.ListBlobs(ctx, rec.ID)
		if err != nil {
			return nil, fmt.Errorf("scan schema of %s: %w", collection, err)
		}
		for name, v := range rec.Data {
			if fields[name] == FieldTypeFile {
				continue
			}
			names := filenamesOf(v)
			if len(names) > 0 && len(blobs) > 0 && containsAll(blobs, names) {
				fields[name] = FieldTypeFile
				continue
			}
			fields[name] = fieldType(v)
		}
	}

	s.schemaMu.Lock()
	defer s.schemaMu.Unlock()
	if known, ok := s.schemas[collection]; ok {
		return known, nil
	}
	s.schemas[collection] = fields
	return fields, nil
}

func (s *recordBackendService) learnSchema(collection string, data map[string]any, files []models.FileAttachment) {
	s.schemaMu.Lock()
	defer s.schemaMu.Unlock()

	fields, ok := s.schemas[collection]
	if !ok {
		fields = make(map[string]string, len(data))
		s.schemas[collection] = fields
	}
	for name, v := range data {
		if fields[name] != FieldTypeFile {
			fields[name] = fieldType(v)
		}
	}
	for _, f := range files {
		fields[f.Field] = FieldTypeFile
	}
}

func fieldType(v any) string {
	switch v.(type) {
	case string:
		return FieldTypeText
	case float64, float32, int, int64, json.Number:
		return FieldTypeNumber
	case bool:
		return FieldTypeBool
	default:
		return FieldTypeJSON
	}
}

func containsAll(sorted, names []string) bool {
	for _, n := range names {
		if _, found := slices.BinarySearch(sorted, n); !found {
			return false
		}
	}
	return true
}

func (s *recordBackendService) File(ctx context.Context, collection, id, filename string) ([]byte, error) {
	if !validators.IsValidFilename(filename) {
		return nil, fmt.Errorf("%w: %q", store.ErrInvalidBlobName, filename)
	}
	if _, err := s.records.Get(ctx, collection, id); err != nil {
		return nil, fmt.Errorf("file of %s/%s: %w", collection, id, err)
	}
	data, err := s.blobs.GetBlob(ctx, id, filename)
	if err != nil {
		return nil, fmt.Errorf("file %s of %s/%s: %w", filename, collection, id, err)
	}
	return data, nil
}

func (s *recordBackendService) Subscribe(ctx context.Context, collection string) (<-chan models.RecordEvent, func()) {
	return s.events.subscribe(ctx, collection)
}
