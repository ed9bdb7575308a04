// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package service

import (
	"context"
	"fmt"
	"maps"
	"net/http"
	"sync"

	"github.com/MKhiriev/go-offline-sync/internal/adapter"
	"github.com/MKhiriev/go-offline-sync/internal/logger"
	"github.com/MKhiriev/go-offline-sync/internal/policy"
	"github.com/MKhiriev/go-offline-sync/internal/store"
	"github.com/MKhiriev/go-offline-sync/models"
)

type clientBatchService struct {
	local         *localRecords
	remote        adapter.RemoteService
	resolver      *policy.Resolver
	ids           store.IDGenerator
	defaultPolicy models.RequestPolicy
	logger        *logger.Logger
}

func NewClientBatchService(
	storages *store.ClientStorages,
	remote adapter.RemoteService,
	resolver *policy.Resolver,
	ids store.IDGenerator,
	defaultPolicy models.RequestPolicy,
	logger *logger.Logger,
) ClientBatchService {
	return &clientBatchService{
		local:         &localRecords{records: storages.Records, blobs: storages.Blobs, logger: logger},
		remote:        remote,
		resolver:      resolver,
		ids:           ids,
		defaultPolicy: defaultPolicy.OrDefault(),
		logger:        logger,
	}
}

func (s *clientBatchService) NewBatch() *Batch {
	return &Batch{svc: s}
}

// Batch queues operations across collections and submits them as one unit.
// Queuing touches neither the store nor the network.
type Batch struct {
	svc *clientBatchService

	mu       sync.Mutex
	requests []models.BatchRequest
}

// BatchCollection queues operations for one collection of a Batch.
type BatchCollection struct {
	batch *Batch
	name  string
}

// BatchOption customises a queued operation.
type BatchOption func(*batchOptions)

type batchOptions struct {
	query   map[string]string
	headers map[string]string
	files   []models.FileAttachment
}

// WithQuery adds query parameters to the operation.
func WithQuery(query map[string]string) BatchOption {
	return func(o *batchOptions) {
		if o.query == nil {
			o.query = make(map[string]string, len(query))
		}
		maps.Copy(o.query, query)
	}
}

// WithHeaders adds headers to the operation.
func WithHeaders(headers map[string]string) BatchOption {
	return func(o *batchOptions) {
		if o.headers == nil {
			o.headers = make(map[string]string, len(headers))
		}
		maps.Copy(o.headers, headers)
	}
}

// WithFiles attaches files to a create, update or upsert.
func WithFiles(files ...models.FileAttachment) BatchOption {
	return func(o *batchOptions) {
		o.files = append(o.files, files...)
	}
}

// Collection returns the queuing handle for collection name.
func (b *Batch) Collection(name string) *BatchCollection {
	return &BatchCollection{batch: b, name: name}
}

// Len returns the number of queued operations.
func (b *Batch) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.requests)
}

// Create queues a create. A body without an id gets one now so the local
// row and the remote record share it.
func (c *BatchCollection) Create(body map[string]any, opts ...BatchOption) *BatchCollection {
	c.batch.enqueue(models.BatchCreate, c.name, "", c.batch.withID(body), opts)
	return c
}

// Update queues a patch of record id.
func (c *BatchCollection) Update(id string, body map[string]any, opts ...BatchOption) *BatchCollection {
	clean := models.StripMeta(body)
	delete(clean, models.FieldID)
	c.batch.enqueue(models.BatchUpdate, c.name, id, clean, opts)
	return c
}

// Upsert queues an update-or-create keyed by the body id.
func (c *BatchCollection) Upsert(body map[string]any, opts ...BatchOption) *BatchCollection {
	c.batch.enqueue(models.BatchUpsert, c.name, "", c.batch.withID(body), opts)
	return c
}

// Delete queues a delete of record id.
func (c *BatchCollection) Delete(id string, opts ...BatchOption) *BatchCollection {
	c.batch.enqueue(models.BatchDelete, c.name, id, nil, opts)
	return c
}

func (b *Batch) withID(body map[string]any) map[string]any {
	clean := models.StripMeta(body)
	if id, _ := clean[models.FieldID].(string); id == "" {
		clean[models.FieldID] = b.svc.ids.Generate()
	}
	return clean
}

func (b *Batch) enqueue(method models.BatchMethod, collection, id string, body map[string]any, opts []BatchOption) {
	var o batchOptions
	for _, opt := range opts {
		opt(&o)
	}
	if id == "" {
		id, _ = body[models.FieldID].(string)
	}

	req := models.NewBatchRequest(method, collection, id, body, o.query, o.headers, o.files)

	b.mu.Lock()
	b.requests = append(b.requests, req)
	b.mu.Unlock()
}

func (b *Batch) snapshot() []models.BatchRequest {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]models.BatchRequest(nil), b.requests...)
}

// Send submits the queued operations under p. Results match the queue
// positionally. An empty queue returns an empty slice and does nothing.
func (b *Batch) Send(ctx context.Context, p models.RequestPolicy) ([]models.BatchResult, error) {
	requests := b.snapshot()
	if len(requests) == 0 {
		return []models.BatchResult{}, nil
	}
	if p == "" {
		p = b.svc.defaultPolicy
	}

	s := b.svc
	return policy.Resolve(ctx, s.resolver, p, policy.Operation[[]models.BatchResult]{
		Name: "batch.send",
		Network: func(ctx context.Context) ([]models.BatchResult, error) {
			items, err := s.remote.SubmitBatch(ctx, requests)
			if err != nil {
				return nil, fmt.Errorf("submit batch: %w", err)
			}
			return toBatchResults(requests, items), nil
		},
		Mirror: func(ctx context.Context, results []models.BatchResult) ([]models.BatchResult, error) {
			s.mirrorResults(ctx, requests, results)
			return results, nil
		},
		Cache: func(ctx context.Context, mode policy.CacheMode) ([]models.BatchResult, error) {
			return s.applyLocally(ctx, requests, mode), nil
		},
	})
}

// toBatchResults pairs remote items with requests. The record id is the
// explicit item id, else the body id, else unset.
func toBatchResults(requests []models.BatchRequest, items []models.BatchResponseItem) []models.BatchResult {
	results := make([]models.BatchResult, len(items))
	for i, item := range items {
		results[i] = models.BatchResult{
			Status:     item.Status,
			Body:       item.Body,
			Collection: requests[i].Collection,
			RecordID:   resultID(item),
		}
	}
	return results
}

func resultID(item models.BatchResponseItem) string {
	if item.ID != "" {
		return item.ID
	}
	if body, ok := item.Body.(map[string]any); ok {
		if id, ok := body[models.FieldID].(string); ok {
			return id
		}
	}
	return ""
}

// mirrorResults writes every successful remote result into the store as
// synced. Failures are logged per item.
func (s *clientBatchService) mirrorResults(ctx context.Context, requests []models.BatchRequest, results []models.BatchResult) {
	for i, res := range results {
		if !res.Succeeded() {
			continue
		}
		req := requests[i]

		var err error
		if req.Method == models.BatchDelete {
			err = s.local.mirrorDelete(ctx, req.Collection, req.RecordID)
		} else if body, ok := res.Body.(map[string]any); ok {
			_, err = s.local.mirror(ctx, req.Collection, body)
		}
		if err != nil {
			s.logger.Err(err).
				Str("func", "clientBatchService.mirrorResults").
				Str("collection", req.Collection).
				Int("index", i).
				Msg("failed to mirror batch result")
		}
	}
}

// applyLocally applies every request to the local store. A failing item
// yields a synthetic 500 result and the rest still run.
func (s *clientBatchService) applyLocally(ctx context.Context, requests []models.BatchRequest, mode policy.CacheMode) []models.BatchResult {
	results := make([]models.BatchResult, 0, len(requests))
	failed := 0

	for i, req := range requests {
		rec, err := s.applyOne(ctx, req, mode)
		if err != nil {
			failed++
			s.logger.Err(err).
				Str("func", "clientBatchService.applyLocally").
				Str("collection", req.Collection).
				Str("method", string(req.Method)).
				Int("index", i).
				Msg("failed to apply batch item locally")
			results = append(results, models.BatchResult{
				Status:     http.StatusInternalServerError,
				Body:       map[string]any{"message": err.Error()},
				Collection: req.Collection,
			})
			continue
		}

		res := models.BatchResult{Status: http.StatusOK, Collection: req.Collection, RecordID: rec.ID}
		if req.Method == models.BatchDelete {
			res.Status = http.StatusNoContent
		} else {
			res.Body = rec.ToMap()
		}
		results = append(results, res)
	}

	if !mode.NoSync {
		s.logger.Info().
			Str("func", "clientBatchService.applyLocally").
			Int("saved", len(requests)-failed).
			Int("failed", failed).
			Msg("batch requests saved for later sync")
	}

	return results
}

func (s *clientBatchService) applyOne(ctx context.Context, req models.BatchRequest, mode policy.CacheMode) (models.Record, error) {
	switch req.Method {
	case models.BatchCreate:
		return s.local.create(ctx, req.Collection, req.Body, req.Files, mode)
	case models.BatchUpdate:
		return s.local.update(ctx, req.Collection, req.RecordID, req.Body, req.Files, mode)
	case models.BatchUpsert:
		return s.local.upsert(ctx, req.Collection, req.Body, req.Files, mode)
	case models.BatchDelete:
		return s.local.delete(ctx, req.Collection, req.RecordID, mode)
	default:
		return models.Record{}, fmt.Errorf("%w: %q", ErrUnknownBatchMethod, req.Method)
	}
}
