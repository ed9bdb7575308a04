package service

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/MKhiriev/go-offline-sync/internal/validators"
	"github.com/MKhiriev/go-offline-sync/models"
)

// ValidationError marks input rejected before reaching the record store.
type ValidationError struct {
	Err error
}

func (e *ValidationError) Error() string {
	return "validation failed: " + e.Err.Error()
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

func invalid(err error) error {
	return &ValidationError{Err: err}
}

type RecordValidationService struct {
	inner     RecordBackendService
	validator validators.Validator
}

func NewRecordValidationService() RecordBackendServiceWrapper {
	return &RecordValidationService{
		validator: validators.NewRecordValidator(),
	}
}

func (v *RecordValidationService) Wrap(inner RecordBackendService) RecordBackendService {
	v.inner = inner
	return v
}

func (v *RecordValidationService) check(ctx context.Context, req models.BatchRequest, fields ...string) error {
	if err := v.validator.Validate(ctx, req, fields...); err != nil {
		return invalid(err)
	}
	return nil
}

func (v *RecordValidationService) List(ctx context.Context, collection string, query ListQuery) (models.ListResponse, error) {
	if err := v.check(ctx, models.BatchRequest{Collection: collection}, validators.FieldCollection); err != nil {
		return models.ListResponse{}, err
	}
	for field := range query.Filter {
		if !validators.IsValidName(field) && field != models.FieldID {
			return models.ListResponse{}, invalid(fmt.Errorf("%w: %q", validators.ErrInvalidFieldName, field))
		}
	}
	return v.inner.List(ctx, collection, query)
}

func (v *RecordValidationService) Get(ctx context.Context, collection, id string) (map[string]any, error) {
	req := models.BatchRequest{Method: models.BatchDelete, Collection: collection, RecordID: id}
	if err := v.check(ctx, req, validators.FieldCollection, validators.FieldRecordID); err != nil {
		return nil, err
	}
	return v.inner.Get(ctx, collection, id)
}

func (v *RecordValidationService) Create(ctx context.Context, collection string, body map[string]any, files []models.FileAttachment) (map[string]any, error) {
	if err := v.check(ctx, models.NewBatchRequest(models.BatchCreate, collection, "", body, nil, nil, files)); err != nil {
		return nil, err
	}
	return v.inner.Create(ctx, collection, body, files)
}

func (v *RecordValidationService) Update(ctx context.Context, collection, id string, body map[string]any, files []models.FileAttachment) (map[string]any, error) {
	if err := v.check(ctx, models.NewBatchRequest(models.BatchUpdate, collection, id, body, nil, nil, files)); err != nil {
		return nil, err
	}
	return v.inner.Update(ctx, collection, id, body, files)
}

func (v *RecordValidationService) Upsert(ctx context.Context, collection string, body map[string]any, files []models.FileAttachment) (map[string]any, error) {
	if err := v.check(ctx, models.NewBatchRequest(models.BatchUpsert, collection, "", body, nil, nil, files)); err != nil {
		return nil, err
	}
	return v.inner.Upsert(ctx, collection, body, files)
}

func (v *RecordValidationService) Delete(ctx context.Context, collection, id string) error {
	req := models.BatchRequest{Method: models.BatchDelete, Collection: collection, RecordID: id}
	if err := v.check(ctx, req, validators.FieldCollection, validators.FieldRecordID); err != nil {
		return err
	}
	return v.inner.Delete(ctx, collection, id)
}

// Batch rejects an empty or oversized batch as a whole. Invalid items get a
// 400 result in place; the valid ones still run, in order.
func (v *RecordValidationService) Batch(ctx context.Context, requests []models.BatchRequest) ([]models.BatchResponseItem, error) {
	if len(requests) == 0 {
		return nil, invalid(validators.ErrEmptyBatch)
	}
	if len(requests) > validators.MaxBatchRequests {
		return nil, invalid(fmt.Errorf("%w: %d > %d", validators.ErrBatchTooLarge, len(requests), validators.MaxBatchRequests))
	}

	items := make([]models.BatchResponseItem, len(requests))
	valid := make([]models.BatchRequest, 0, len(requests))
	positions := make([]int, 0, len(requests))
	for i, req := range requests {
		if err := v.check(ctx, req); err != nil {
			items[i] = models.BatchResponseItem{
				Status: http.StatusBadRequest,
				Body:   models.ErrorResponse{Status: http.StatusBadRequest, Message: err.Error(), Data: map[string]any{}},
			}
			continue
		}
		valid = append(valid, req)
		positions = append(positions, i)
	}

	if len(valid) == 0 {
		return items, nil
	}

	results, err := v.inner.Batch(ctx, valid)
	if err != nil {
		return nil, err
	}
	if len(results) != len(valid) {
		return nil, errors.New("record backend returned a mismatched batch result")
	}
	for j, pos := range positions {
		items[pos] = results[j]
	}
	return items, nil
}

func (v *RecordValidationService) Schema(ctx context.Context, collection string) (models.CollectionSchema, error) {
	if err := v.check(ctx, models.BatchRequest{Collection: collection}, validators.FieldCollection); err != nil {
		return models.CollectionSchema{}, err
	}
	return v.inner.Schema(ctx, collection)
}

func (v *RecordValidationService) File(ctx context.Context, collection, id, filename string) ([]byte, error) {
	req := models.BatchRequest{Method: models.BatchDelete, Collection: collection, RecordID: id}
	if err := v.check(ctx, req, validators.FieldCollection, validators.FieldRecordID); err != nil {
		return nil, err
	}
	if !validators.IsValidFilename(filename) {
		return nil, invalid(fmt.Errorf("%w: %q", validators.ErrInvalidFilename, filename))
	}
	return v.inner.File(ctx, collection, id, filename)
}

func (v *RecordValidationService) Subscribe(ctx context.Context, collection string) (<-chan models.RecordEvent, func()) {
	return v.inner.Subscribe(ctx, collection)
}
