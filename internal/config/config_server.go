package config

import (
	"fmt"
	"time"
)

// ServerConfig is the configuration view of the reference remote service.
type ServerConfig struct {
	// HTTPAddress is the listen address.
	HTTPAddress string
	// RequestTimeout bounds each inbound request.
	RequestTimeout time.Duration
	// TokenSignKey enables bearer-token auth when non-empty.
	TokenSignKey string
	// TokenIssuer is the expected "iss" claim.
	TokenIssuer string
	// TokenDuration is the lifetime of issued tokens.
	TokenDuration time.Duration
	// Version is reported by the health endpoint.
	Version string
	// DataFile persists server records as JSON; empty keeps them in memory.
	DataFile string
	// BinaryDataDir stores uploaded files; empty uses a temporary directory.
	BinaryDataDir string
}

// GetServerConfig builds and validates the reference server config view.
func GetServerConfig() (*ServerConfig, error) {
	cfg, err := GetStructuredConfig()
	if err != nil {
		return nil, fmt.Errorf("error get structured config: %w", err)
	}

	return NewServerConfig(cfg)
}

// NewServerConfig maps a merged [StructuredConfig] to a validated [ServerConfig].
func NewServerConfig(cfg *StructuredConfig) (*ServerConfig, error) {
	serverCfg := &ServerConfig{
		HTTPAddress:    cfg.Server.HTTPAddress,
		RequestTimeout: cfg.Server.RequestTimeout,
		TokenSignKey:   cfg.App.TokenSignKey,
		TokenIssuer:    cfg.App.TokenIssuer,
		TokenDuration:  cfg.App.TokenDuration,
		Version:        cfg.App.Version,
		DataFile:       cfg.Storage.DB.DSN,
		BinaryDataDir:  cfg.Storage.Files.BinaryDataDir,
	}

	return serverCfg, serverCfg.validate()
}
