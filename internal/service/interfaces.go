package service

import (
	"context"
	"time"

	"github.com/MKhiriev/go-offline-sync/models"
)

// ListQuery pages and filters a server-side listing.
type ListQuery struct {
	Page    int
	PerPage int
	// Filter holds field == value constraints.
	Filter map[string]string
}

// RecordBackendService is the record store of the reference remote service.
// Records travel in their flat wire form.
type RecordBackendService interface {
	List(ctx context.Context, collection string, query ListQuery) (models.ListResponse, error)
	Get(ctx context.Context, collection, id string) (map[string]any, error)

	// Create stores a new record; an existing id fails with store.ErrRecordExists.
	Create(ctx context.Context, collection string, body map[string]any, files []models.FileAttachment) (map[string]any, error)
	Update(ctx context.Context, collection, id string, body map[string]any, files []models.FileAttachment) (map[string]any, error)
	// Upsert updates the record whose id the body carries, or creates it.
	Upsert(ctx context.Context, collection string, body map[string]any, files []models.FileAttachment) (map[string]any, error)
	Delete(ctx context.Context, collection, id string) error

	// Batch executes requests in order. Per-item failures are reported in
	// the matching item and never abort the rest.
	Batch(ctx context.Context, requests []models.BatchRequest) ([]models.BatchResponseItem, error)

	// Schema describes the fields seen in collection so far.
	Schema(ctx context.Context, collection string) (models.CollectionSchema, error)

	// File returns the bytes of an uploaded file.
	File(ctx context.Context, collection, id, filename string) ([]byte, error)

	// Subscribe streams changes of collection; an empty collection streams
	// all of them. cancel releases the subscription.
	Subscribe(ctx context.Context, collection string) (events <-chan models.RecordEvent, cancel func())
}

// RecordBackendServiceWrapper defines middleware composition for
// RecordBackendService. Implementations wrap an existing service to add
// behavior such as validation.
type RecordBackendServiceWrapper interface {
	Wrap(RecordBackendService) RecordBackendService
}

type AuthService interface {
	CreateToken(ctx context.Context, clientID string) (models.Token, error)
	ParseToken(ctx context.Context, tokenString string) (models.Token, error)
}

type AppInfoService interface {
	GetAppVersion(ctx context.Context) string
	Uptime(ctx context.Context) time.Duration
}
