package config

import (
	"fmt"
	"time"

	"github.com/MKhiriev/go-offline-sync/models"
)

const (
	// DefaultConnectivityInterval is used when no polling interval is configured.
	DefaultConnectivityInterval = 5 * time.Second
	// DefaultSyncInterval is used when no periodic replay interval is configured.
	DefaultSyncInterval = 5 * time.Minute
	// MemoryDSN selects the non-persistent in-process record store.
	MemoryDSN = "memory"
)

// ClientAdapter holds network settings used by the client transport layer.
type ClientAdapter struct {
	// HTTPAddress is the base address of the remote service.
	HTTPAddress string
	// RequestTimeout is the default timeout for outbound client requests.
	RequestTimeout time.Duration
	// Token is the bearer token attached to outbound requests.
	Token string
}

// ClientDB contains local database connection settings for the client.
type ClientDB struct {
	// DSN is the SQLite file path or [MemoryDSN].
	DSN string
}

// ClientFiles contains the attachment cache settings.
type ClientFiles struct {
	// BinaryDataDir is the attachment cache root.
	BinaryDataDir string
}

// ClientStorage groups client storage backend settings.
type ClientStorage struct {
	// DB holds local database settings.
	DB ClientDB
	// Files holds attachment cache settings.
	Files ClientFiles
}

// ClientWorkers contains client background worker settings.
type ClientWorkers struct {
	// ConnectivityInterval defines how often OS network interfaces are polled.
	ConnectivityInterval time.Duration
	// SyncInterval defines how often pending changes are replayed.
	SyncInterval time.Duration
}

// ClientSync contains request-policy defaults.
type ClientSync struct {
	// DefaultPolicy is used for operations invoked without an explicit policy.
	DefaultPolicy models.RequestPolicy
	// Collections lists collections with realtime listeners.
	Collections []string
}

// ClientConfig is the top-level client configuration assembled from
// [StructuredConfig].
type ClientConfig struct {
	// Adapter contains the remote service address and timeouts.
	Adapter ClientAdapter
	// Storage contains client storage settings.
	Storage ClientStorage
	// Workers contains background job settings.
	Workers ClientWorkers
	// Sync contains request-policy defaults.
	Sync ClientSync
	// LogFile is the rotating client log file path.
	LogFile string
}

// GetClientConfig builds and validates a client-specific config view from the
// merged structured configuration.
//
// It loads the base config via [GetStructuredConfig], maps only the fields
// relevant to the client runtime, fills worker and policy defaults, and
// validates the resulting [ClientConfig].
func GetClientConfig() (*ClientConfig, error) {
	cfg, err := GetStructuredConfig()
	if err != nil {
		return nil, fmt.Errorf("error get structured config: %w", err)
	}

	return NewClientConfig(cfg)
}

// NewClientConfig maps a merged [StructuredConfig] to a validated [ClientConfig].
func NewClientConfig(cfg *StructuredConfig) (*ClientConfig, error) {
	clientCfg := &ClientConfig{
		Adapter: ClientAdapter{
			HTTPAddress:    cfg.Adapter.HTTPAddress,
			RequestTimeout: cfg.Adapter.RequestTimeout,
			Token:          cfg.Adapter.Token,
		},
		Storage: ClientStorage{
			DB:    ClientDB{DSN: cfg.Storage.DB.DSN},
			Files: ClientFiles{BinaryDataDir: cfg.Storage.Files.BinaryDataDir},
		},
		Workers: ClientWorkers{
			ConnectivityInterval: cfg.Workers.ConnectivityInterval,
			SyncInterval:         cfg.Workers.SyncInterval,
		},
		Sync: ClientSync{
			DefaultPolicy: models.RequestPolicy(cfg.Sync.DefaultPolicy).OrDefault(),
			Collections:   cfg.Sync.Collections,
		},
		LogFile: cfg.Log.File,
	}

	if clientCfg.Workers.ConnectivityInterval == 0 {
		clientCfg.Workers.ConnectivityInterval = DefaultConnectivityInterval
	}
	if clientCfg.Workers.SyncInterval == 0 {
		clientCfg.Workers.SyncInterval = DefaultSyncInterval
	}

	return clientCfg, clientCfg.validate()
}

// IsMemory reports whether the client runs without a persistent database.
func (c ClientDB) IsMemory() bool {
	return c.DSN == MemoryDSN
}
