package service

import (
	"context"
	"time"

	"github.com/MKhiriev/go-offline-sync/internal/adapter"
	"github.com/MKhiriev/go-offline-sync/internal/store"
	"github.com/MKhiriev/go-offline-sync/models"
)

// ClientRecordService defines per-record operations. Every write and read
// takes a [models.RequestPolicy]; an empty policy means the configured
// default.
type ClientRecordService interface {
	// Create writes a new record. The id is taken from data["id"] or minted
	// locally, so the record keeps the same id on the remote service.
	Create(ctx context.Context, p models.RequestPolicy, collection string, data map[string]any, opts adapter.RequestOptions) (models.Record, error)

	// Update patches an existing record.
	Update(ctx context.Context, p models.RequestPolicy, collection, id string, data map[string]any, opts adapter.RequestOptions) (models.Record, error)

	// Upsert updates the record whose id data carries, or creates it.
	Upsert(ctx context.Context, p models.RequestPolicy, collection string, data map[string]any, opts adapter.RequestOptions) (models.Record, error)

	// Delete removes a record. Offline deletes leave a tombstone that is
	// replayed later.
	Delete(ctx context.Context, p models.RequestPolicy, collection, id string) error

	// Get reads one record. Tombstones read as not found.
	Get(ctx context.Context, p models.RequestPolicy, collection, id string) (models.Record, error)

	// List reads every record of a collection.
	List(ctx context.Context, p models.RequestPolicy, collection string) ([]models.Record, error)

	// Query filters the local store without touching the network.
	Query(ctx context.Context, filter store.RecordFilter) ([]models.Record, error)

	// Watch is the reactive form of Query.
	Watch(ctx context.Context, filter store.RecordFilter) (<-chan []models.Record, error)
}

// ClientSyncService is the pending-change queue and its replay engine.
type ClientSyncService interface {
	// Pending returns the records waiting for replay, in store order. An
	// empty collection selects every collection.
	Pending(ctx context.Context, collection string) ([]models.Record, error)

	// RetryLocal replays the pending records of collection in the
	// background. The channel yields (0, total), then one event per record,
	// and is closed when the pass is over.
	RetryLocal(ctx context.Context, collection string) (<-chan models.RetryProgress, error)

	// RetryAll replays every pending record and returns the final progress.
	// Concurrent calls share one pass.
	RetryAll(ctx context.Context) (models.RetryProgress, error)
}

// ClientBatchService creates batch handles.
type ClientBatchService interface {
	NewBatch() *Batch
}

// ClientSendService performs passthrough requests against the remote
// service under a request policy.
type ClientSendService interface {
	Send(ctx context.Context, p models.RequestPolicy, req models.SendRequest) (models.SendResponse, error)
}

// ClientRealtimeService applies remote push events to the local store.
type ClientRealtimeService interface {
	// Listen blocks, applying events of collection until ctx is done or the
	// stream ends.
	Listen(ctx context.Context, collection string) error
}

// FileFieldResolver finds which record fields hold file attachments and
// loads their buffered bytes.
type FileFieldResolver interface {
	FileFields(ctx context.Context, rec models.Record) []string
	Attachments(ctx context.Context, rec models.Record) ([]models.FileAttachment, []string)
}

// ClientSyncJob replays pending changes on a fixed interval.
type ClientSyncJob interface {
	Start(ctx context.Context, interval time.Duration)
	Stop()
}
