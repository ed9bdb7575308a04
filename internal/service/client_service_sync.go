package service

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/sync/singleflight"

	"github.com/MKhiriev/go-offline-sync/internal/adapter"
	"github.com/MKhiriev/go-offline-sync/internal/logger"
	"github.com/MKhiriev/go-offline-sync/internal/policy"
	"github.com/MKhiriev/go-offline-sync/internal/store"
	"github.com/MKhiriev/go-offline-sync/models"
)

const retryAllKey = "retry-all"

type clientSyncService struct {
	local    *localRecords
	remote   adapter.RemoteService
	resolver *policy.Resolver
	files    FileFieldResolver
	logger   *logger.Logger

	group singleflight.Group
}

func NewClientSyncService(
	storages *store.ClientStorages,
	remote adapter.RemoteService,
	resolver *policy.Resolver,
	files FileFieldResolver,
	logger *logger.Logger,
) ClientSyncService {
	return &clientSyncService{
		local:    &localRecords{records: storages.Records, blobs: storages.Blobs, logger: logger},
		remote:   remote,
		resolver: resolver,
		files:    files,
		logger:   logger,
	}
}

func (s *clientSyncService) Pending(ctx context.Context, collection string) ([]models.Record, error) {
	records, err := s.local.records.Query(ctx, store.RecordFilter{
		Collection:     collection,
		Pending:        true,
		IncludeDeleted: true,
	})
	if err != nil {
		return nil, fmt.Errorf("select pending records: %w", err)
	}
	return records, nil
}

func (s *clientSyncService) RetryLocal(ctx context.Context, collection string) (<-chan models.RetryProgress, error) {
	pending, err := s.Pending(ctx, collection)
	if err != nil {
		return nil, err
	}

	total := len(pending)
	progress := make(chan models.RetryProgress, total+1)
	progress <- models.RetryProgress{Current: 0, Total: total}

	// a dispatched replay runs to completion even if the caller goes away
	replayCtx := context.WithoutCancel(ctx)
	go func() {
		defer close(progress)
		s.replayAll(replayCtx, pending, func(p models.RetryProgress) {
			progress <- p
		})
	}()

	return progress, nil
}

func (s *clientSyncService) RetryAll(ctx context.Context) (models.RetryProgress, error) {
	v, err, shared := s.group.Do(retryAllKey, func() (any, error) {
		replayCtx := context.WithoutCancel(ctx)

		pending, err := s.Pending(replayCtx, "")
		if err != nil {
			return models.RetryProgress{}, err
		}

		last := models.RetryProgress{Total: len(pending)}
		s.replayAll(replayCtx, pending, func(p models.RetryProgress) {
			last = p
		})
		return last, nil
	})
	if shared {
		s.logger.Debug().Str("func", "clientSyncService.RetryAll").Msg("joined a replay pass already in flight")
	}
	if err != nil {
		return models.RetryProgress{}, err
	}
	return v.(models.RetryProgress), nil
}

// replayAll replays records in order. A failing record is logged and left
// pending; it never stops the pass.
func (s *clientSyncService) replayAll(ctx context.Context, pending []models.Record, report func(models.RetryProgress)) {
	total := len(pending)
	synced := 0

	for i, rec := range pending {
		if err := s.replay(ctx, rec); err != nil {
			s.logger.Warn().Err(err).
				Str("func", "clientSyncService.replayAll").
				Str("collection", rec.Collection).
				Str("id", rec.ID).
				Msg("failed to replay pending record, it stays pending")
		} else {
			synced++
		}
		report(models.RetryProgress{Current: i + 1, Total: total})
	}

	if total > 0 {
		s.logger.Info().
			Str("func", "clientSyncService.replayAll").
			Int("total", total).
			Int("synced", synced).
			Msg("replay pass finished")
	}
}

// replay issues the remote operation matching the record's intent. The
// tombstone flag wins over the new/updated distinction.
func (s *clientSyncService) replay(ctx context.Context, rec models.Record) error {
	switch {
	case rec.Deleted:
		return s.replayDelete(ctx, rec)
	case rec.IsNew:
		return s.replayCreate(ctx, rec)
	default:
		return s.replayUpdate(ctx, rec)
	}
}

func (s *clientSyncService) replayDelete(ctx context.Context, rec models.Record) error {
	return s.resolveReplay(ctx, rec, "replay.delete",
		func(ctx context.Context) (models.Record, error) {
			err := s.remote.DeleteRecord(ctx, rec.Collection, rec.ID, adapter.RequestOptions{})
			if err != nil && !errors.Is(err, adapter.ErrNotFound) {
				return models.Record{}, fmt.Errorf("delete remote record %s: %w", rec.ID, err)
			}
			return rec, nil
		},
		func(ctx context.Context, confirmed models.Record) (models.Record, error) {
			return confirmed, s.local.mirrorDelete(ctx, confirmed.Collection, confirmed.ID)
		},
	)
}

func (s *clientSyncService) replayCreate(ctx context.Context, rec models.Record) error {
	files, _ := s.files.Attachments(ctx, rec)

	body := models.StripMeta(rec.Data)
	body[models.FieldID] = rec.ID

	return s.resolveReplay(ctx, rec, "replay.create",
		func(ctx context.Context) (models.Record, error) {
			resp, err := s.remote.CreateRecord(ctx, rec.Collection, body, adapter.RequestOptions{Files: files})
			if err != nil {
				return models.Record{}, fmt.Errorf("create remote record %s: %w", rec.ID, err)
			}
			return models.RecordFromMap(rec.Collection, resp), nil
		},
		s.mirrorConfirmed,
	)
}

func (s *clientSyncService) replayUpdate(ctx context.Context, rec models.Record) error {
	files, fileFields := s.files.Attachments(ctx, rec)

	body := models.StripMeta(rec.Data)
	delete(body, models.FieldID)
	for _, field := range fileFields {
		delete(body, field)
	}

	return s.resolveReplay(ctx, rec, "replay.update",
		func(ctx context.Context) (models.Record, error) {
			resp, err := s.remote.UpdateRecord(ctx, rec.Collection, rec.ID, body, adapter.RequestOptions{Files: files})
			if err != nil {
				return models.Record{}, fmt.Errorf("update remote record %s: %w", rec.ID, err)
			}
			return models.RecordFromMap(rec.Collection, resp), nil
		},
		s.mirrorConfirmed,
	)
}

// resolveReplay runs one replay step under cacheAndNetwork. The cache leg
// leaves the row untouched, so a step that could not reach the service
// reports errNotReplayed and the record stays pending.
func (s *clientSyncService) resolveReplay(
	ctx context.Context,
	rec models.Record,
	name string,
	network func(context.Context) (models.Record, error),
	mirror func(context.Context, models.Record) (models.Record, error),
) error {
	confirmed := false
	_, err := policy.Resolve(ctx, s.resolver, models.CacheAndNetwork, policy.Operation[models.Record]{
		Name:    name,
		Network: network,
		Mirror: func(ctx context.Context, result models.Record) (models.Record, error) {
			confirmed = true
			return mirror(ctx, result)
		},
		Cache: func(ctx context.Context, _ policy.CacheMode) (models.Record, error) {
			return rec, nil
		},
	})
	if err != nil {
		return err
	}
	if !confirmed {
		return errNotReplayed
	}
	return nil
}

func (s *clientSyncService) mirrorConfirmed(ctx context.Context, rec models.Record) (models.Record, error) {
	return s.local.mirror(ctx, rec.Collection, rec.ToMap())
}

var errNotReplayed = errors.New("record was not replayed")
