// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package store

import (
	"fmt"
	"os"

	"github.com/MKhiriev/go-offline-sync/internal/config"
	"github.com/MKhiriev/go-offline-sync/internal/logger"
	"github.com/MKhiriev/go-offline-sync/internal/utils"
)

// ServerStorages is the persistence of the reference remote service.
// Records are kept by a [MemoryStore] (optionally backed by a JSON file);
// uploaded files go to a [BlobStore].
type ServerStorages struct {
	Records LocalStore
	Blobs   BlobStore
}

// NewServerStorages builds the reference service storages from cfg. Without
// a configured file directory uploads go to a fresh temporary directory.
func NewServerStorages(cfg *config.ServerConfig, logger *logger.Logger) (*ServerStorages, error) {
	logger.Info().Msg("creating new server storages...")

	records, err := NewMemoryStore(cfg.DataFile, utils.NewUUIDGenerator())
	if err != nil {
		return nil, fmt.Errorf("record storage error: %w", err)
	}

	dir := cfg.BinaryDataDir
	if dir == "" {
		if dir, err = os.MkdirTemp("", "offline-sync-server-files-"); err != nil {
			return nil, fmt.Errorf("create temporary file directory: %w", err)
		}
	}

	blobs, err := NewFileBlobStorage(dir, logger)
	if err != nil {
		return nil, fmt.Errorf("blob storage error: %w", err)
	}

	return &ServerStorages{Records: records, Blobs: blobs}, nil
}
