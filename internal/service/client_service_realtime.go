package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/MKhiriev/go-offline-sync/internal/adapter"
	"github.com/MKhiriev/go-offline-sync/internal/logger"
	"github.com/MKhiriev/go-offline-sync/internal/store"
	"github.com/MKhiriev/go-offline-sync/models"
)

type clientRealtimeService struct {
	local  *localRecords
	remote adapter.RemoteService
	logger *logger.Logger
}

func NewClientRealtimeService(storages *store.ClientStorages, remote adapter.RemoteService, logger *logger.Logger) ClientRealtimeService {
	return &clientRealtimeService{
		local:  &localRecords{records: storages.Records, blobs: storages.Blobs, logger: logger},
		remote: remote,
		logger: logger,
	}
}

// Listen applies remote events of collection as synced rows. Rows with
// pending local changes are left alone; the replay engine owns them.
func (s *clientRealtimeService) Listen(ctx context.Context, collection string) error {
	if collection == "" {
		return ErrEmptyCollection
	}

	events, err := s.remote.Subscribe(ctx, collection)
	if err != nil {
		return fmt.Errorf("subscribe to %s: %w", collection, err)
	}

	s.logger.Info().
		Str("func", "clientRealtimeService.Listen").
		Str("collection", collection).
		Msg("listening for remote changes")

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-events:
			if !ok {
				return nil
			}
			if err := s.apply(ctx, collection, ev); err != nil {
				s.logger.Err(err).
					Str("func", "clientRealtimeService.Listen").
					Str("collection", collection).
					Str("action", string(ev.Action)).
					Str("id", ev.Record.ID).
					Msg("failed to apply remote change")
			}
		}
	}
}

func (s *clientRealtimeService) apply(ctx context.Context, collection string, ev models.RecordEvent) error {
	if ev.Record.ID == "" {
		return ErrInvalidRemoteRecord
	}

	switch ev.Action {
	case models.EventCreate, models.EventUpdate:
		_, err := s.local.mirrorRead(ctx, collection, ev.Record.ToMap())
		return err
	case models.EventDelete:
		local, err := s.local.records.Get(ctx, collection, ev.Record.ID)
		if errors.Is(err, store.ErrRecordNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		if local.IsPending() {
			return nil
		}
		return s.local.mirrorDelete(ctx, collection, ev.Record.ID)
	default:
		return nil
	}
}
