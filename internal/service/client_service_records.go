// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package service

import (
	"context"
	"fmt"

	"github.com/MKhiriev/go-offline-sync/internal/adapter"
	"github.com/MKhiriev/go-offline-sync/internal/logger"
	"github.com/MKhiriev/go-offline-sync/internal/policy"
	"github.com/MKhiriev/go-offline-sync/internal/store"
	"github.com/MKhiriev/go-offline-sync/models"
)

const listPageSize = 200

type clientRecordService struct {
	local         *localRecords
	remote        adapter.RemoteService
	resolver      *policy.Resolver
	ids           store.IDGenerator
	defaultPolicy models.RequestPolicy
}

func NewClientRecordService(
	storages *store.ClientStorages,
	remote adapter.RemoteService,
	resolver *policy.Resolver,
	ids store.IDGenerator,
	defaultPolicy models.RequestPolicy,
	logger *logger.Logger,
) ClientRecordService {
	return &clientRecordService{
		local:         &localRecords{records: storages.Records, blobs: storages.Blobs, logger: logger},
		remote:        remote,
		resolver:      resolver,
		ids:           ids,
		defaultPolicy: defaultPolicy.OrDefault(),
	}
}

func (s *clientRecordService) policyOf(p models.RequestPolicy) models.RequestPolicy {
	if p == "" {
		return s.defaultPolicy
	}
	return p
}

func (s *clientRecordService) Create(ctx context.Context, p models.RequestPolicy, collection string, data map[string]any, opts adapter.RequestOptions) (models.Record, error) {
	if collection == "" {
		return models.Record{}, ErrEmptyCollection
	}

	body := models.StripMeta(data)
	if id, _ := body[models.FieldID].(string); id == "" {
		body[models.FieldID] = s.ids.Generate()
	}

	return policy.Resolve(ctx, s.resolver, s.policyOf(p), policy.Operation[models.Record]{
		Name: "records.create",
		Network: func(ctx context.Context) (models.Record, error) {
			resp, err := s.remote.CreateRecord(ctx, collection, body, opts)
			if err != nil {
				return models.Record{}, fmt.Errorf("create remote record: %w", err)
			}
			return models.RecordFromMap(collection, resp), nil
		},
		Mirror: s.mirror,
		Cache: func(ctx context.Context, mode policy.CacheMode) (models.Record, error) {
			return s.local.create(ctx, collection, body, opts.Files, mode)
		},
	})
}

func (s *clientRecordService) Update(ctx context.Context, p models.RequestPolicy, collection, id string, data map[string]any, opts adapter.RequestOptions) (models.Record, error) {
	if collection == "" {
		return models.Record{}, ErrEmptyCollection
	}
	if id == "" {
		return models.Record{}, ErrEmptyRecordID
	}

	body := models.StripMeta(data)
	delete(body, models.FieldID)

	return policy.Resolve(ctx, s.resolver, s.policyOf(p), policy.Operation[models.Record]{
		Name: "records.update",
		Network: func(ctx context.Context) (models.Record, error) {
			resp, err := s.remote.UpdateRecord(ctx, collection, id, body, opts)
			if err != nil {
				return models.Record{}, fmt.Errorf("update remote record %s: %w", id, err)
			}
			return models.RecordFromMap(collection, resp), nil
		},
		Mirror: s.mirror,
		Cache: func(ctx context.Context, mode policy.CacheMode) (models.Record, error) {
			return s.local.update(ctx, collection, id, body, opts.Files, mode)
		},
	})
}

func (s *clientRecordService) Upsert(ctx context.Context, p models.RequestPolicy, collection string, data map[string]any, opts adapter.RequestOptions) (models.Record, error) {
	if collection == "" {
		return models.Record{}, ErrEmptyCollection
	}

	body := models.StripMeta(data)
	if id, _ := body[models.FieldID].(string); id == "" {
		body[models.FieldID] = s.ids.Generate()
	}

	return policy.Resolve(ctx, s.resolver, s.policyOf(p), policy.Operation[models.Record]{
		Name: "records.upsert",
		Network: func(ctx context.Context) (models.Record, error) {
			resp, err := s.remote.UpsertRecord(ctx, collection, body, opts)
			if err != nil {
				return models.Record{}, fmt.Errorf("upsert remote record: %w", err)
			}
			return models.RecordFromMap(collection, resp), nil
		},
		Mirror: s.mirror,
		Cache: func(ctx context.Context, mode policy.CacheMode) (models.Record, error) {
			return s.local.upsert(ctx, collection, body, opts.Files, mode)
		},
	})
}

func (s *clientRecordService) Delete(ctx context.Context, p models.RequestPolicy, collection, id string) error {
	if collection == "" {
		return ErrEmptyCollection
	}
	if id == "" {
		return ErrEmptyRecordID
	}

	_, err := policy.Resolve(ctx, s.resolver, s.policyOf(p), policy.Operation[struct{}]{
		Name: "records.delete",
		Network: func(ctx context.Context) (struct{}, error) {
			if err := s.remote.DeleteRecord(ctx, collection, id, adapter.RequestOptions{}); err != nil {
				return struct{}{}, fmt.Errorf("delete remote record %s: %w", id, err)
			}
			return struct{}{}, nil
		},
		Mirror: func(ctx context.Context, _ struct{}) (struct{}, error) {
			return struct{}{}, s.local.mirrorDelete(ctx, collection, id)
		},
		Cache: func(ctx context.Context, mode policy.CacheMode) (struct{}, error) {
			_, err := s.local.delete(ctx, collection, id, mode)
			return struct{}{}, err
		},
	})
	return err
}

func (s *clientRecordService) Get(ctx context.Context, p models.RequestPolicy, collection, id string) (models.Record, error) {
	if collection == "" {
		return models.Record{}, ErrEmptyCollection
	}
	if id == "" {
		return models.Record{}, ErrEmptyRecordID
	}

	return policy.Resolve(ctx, s.resolver, s.policyOf(p), policy.Operation[models.Record]{
		Name: "records.get",
		Network: func(ctx context.Context) (models.Record, error) {
			resp, err := s.remote.GetRecord(ctx, collection, id, adapter.RequestOptions{})
			if err != nil {
				return models.Record{}, fmt.Errorf("get remote record %s: %w", id, err)
			}
			return models.RecordFromMap(collection, resp), nil
		},
		Mirror: func(ctx context.Context, rec models.Record) (models.Record, error) {
			return s.local.mirrorRead(ctx, collection, rec.ToMap())
		},
		Cache: func(ctx context.Context, _ policy.CacheMode) (models.Record, error) {
			rec, err := s.local.records.Get(ctx, collection, id)
			if err != nil {
				return models.Record{}, err
			}
			if rec.Deleted {
				return models.Record{}, store.ErrRecordNotFound
			}
			return rec, nil
		},
	})
}

func (s *clientRecordService) List(ctx context.Context, p models.RequestPolicy, collection string) ([]models.Record, error) {
	if collection == "" {
		return nil, ErrEmptyCollection
	}

	return policy.Resolve(ctx, s.resolver, s.policyOf(p), policy.Operation[[]models.Record]{
		Name: "records.list",
		Network: func(ctx context.Context) ([]models.Record, error) {
			return s.listRemote(ctx, collection)
		},
		Mirror: func(ctx context.Context, remote []models.Record) ([]models.Record, error) {
			for _, rec := range remote {
				if _, err := s.local.mirrorRead(ctx, collection, rec.ToMap()); err != nil {
					return nil, err
				}
			}
			return s.local.records.Query(ctx, store.RecordFilter{Collection: collection})
		},
		Cache: func(ctx context.Context, _ policy.CacheMode) ([]models.Record, error) {
			return s.local.records.Query(ctx, store.RecordFilter{Collection: collection})
		},
	})
}

// listRemote walks every page of the collection.
func (s *clientRecordService) listRemote(ctx context.Context, collection string) ([]models.Record, error) {
	var out []models.Record
	for page := 1; ; page++ {
		resp, err := s.remote.ListRecords(ctx, collection, adapter.ListOptions{Page: page, PerPage: listPageSize})
		if err != nil {
			return nil, fmt.Errorf("list remote records: %w", err)
		}
		for _, item := range resp.Items {
			out = append(out, models.RecordFromMap(collection, item))
		}
		if len(resp.Items) == 0 || page >= resp.TotalPages {
			return out, nil
		}
	}
}

func (s *clientRecordService) Query(ctx context.Context, filter store.RecordFilter) ([]models.Record, error) {
	return s.local.records.Query(ctx, filter)
}

func (s *clientRecordService) Watch(ctx context.Context, filter store.RecordFilter) (<-chan []models.Record, error) {
	return s.local.records.Watch(ctx, filter)
}

func (s *clientRecordService) mirror(ctx context.Context, rec models.Record) (models.Record, error) {
	return s.local.mirror(ctx, rec.Collection, rec.ToMap())
}
