package service

import (
	"github.com/MKhiriev/go-offline-sync/internal/adapter"
	"github.com/MKhiriev/go-offline-sync/internal/connectivity"
	"github.com/MKhiriev/go-offline-sync/internal/logger"
	"github.com/MKhiriev/go-offline-sync/internal/policy"
	"github.com/MKhiriev/go-offline-sync/internal/store"
	"github.com/MKhiriev/go-offline-sync/models"
)

// ClientServices wires the sync engine around one process-wide connectivity
// monitor. Every service resolves policies through the same Resolver.
type ClientServices struct {
	Monitor  *connectivity.Monitor
	Resolver *policy.Resolver

	RecordService   ClientRecordService
	SyncService     ClientSyncService
	BatchService    ClientBatchService
	SendService     ClientSendService
	RealtimeService ClientRealtimeService
	SyncJob         ClientSyncJob
}

func NewClientServices(
	storages *store.ClientStorages,
	remote adapter.RemoteService,
	monitor *connectivity.Monitor,
	ids store.IDGenerator,
	defaultPolicy models.RequestPolicy,
	logger *logger.Logger,
) *ClientServices {
	resolver := policy.NewResolver(monitor, logger)
	files := NewFileFieldResolver(remote, storages.Blobs, logger)
	syncSvc := NewClientSyncService(storages, remote, resolver, files, logger)

	return &ClientServices{
		Monitor:         monitor,
		Resolver:        resolver,
		RecordService:   NewClientRecordService(storages, remote, resolver, ids, defaultPolicy, logger),
		SyncService:     syncSvc,
		BatchService:    NewClientBatchService(storages, remote, resolver, ids, defaultPolicy, logger),
		SendService:     NewClientSendService(storages, remote, resolver, defaultPolicy, logger),
		RealtimeService: NewClientRealtimeService(storages, remote, logger),
		SyncJob:         NewClientSyncJob(syncSvc, monitor.ShouldAttemptNetwork, logger),
	}
}
