// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package config

import (
	"fmt"

	"github.com/MKhiriev/go-offline-sync/models"
)

// validate checks that the final merged [StructuredConfig] satisfies the
// invariants shared by every binary. Role-specific rules live on the
// [ClientConfig] and [ServerConfig] views.
func (cfg *StructuredConfig) validate() error {
	if cfg.Sync.DefaultPolicy != "" {
		if _, err := models.ParseRequestPolicy(cfg.Sync.DefaultPolicy); err != nil {
			return fmt.Errorf("%w: %w", ErrInvalidSyncConfigs, err)
		}
	}

	if cfg.Workers.ConnectivityInterval < 0 || cfg.Workers.SyncInterval < 0 {
		return ErrInvalidWorkerConfigs
	}

	return nil
}

func (cfg *ClientConfig) validate() error {
	if cfg.Storage.DB.DSN == "" || cfg.Storage.Files.BinaryDataDir == "" {
		return ErrInvalidStorageConfigs
	}

	if cfg.Adapter.HTTPAddress == "" || cfg.Adapter.RequestTimeout == 0 {
		return ErrInvalidAdapterConfigs
	}

	if cfg.Workers.ConnectivityInterval <= 0 || cfg.Workers.SyncInterval <= 0 {
		return ErrInvalidWorkerConfigs
	}

	if !cfg.Sync.DefaultPolicy.Valid() {
		return ErrInvalidSyncConfigs
	}

	return nil
}

func (cfg *ServerConfig) validate() error {
	if cfg.HTTPAddress == "" {
		return ErrInvalidServerConfigs
	}

	if cfg.TokenSignKey != "" && (cfg.TokenIssuer == "" || cfg.TokenDuration <= 0) {
		return ErrInvalidAppConfigs
	}

	return nil
}
