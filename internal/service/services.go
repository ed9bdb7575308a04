package service

import (
	"github.com/MKhiriev/go-offline-sync/internal/config"
	"github.com/MKhiriev/go-offline-sync/internal/logger"
	"github.com/MKhiriev/go-offline-sync/internal/store"
)

// Services are the services of the reference remote service.
type Services struct {
	RecordService  RecordBackendService
	AuthService    AuthService
	AppInfoService AppInfoService
}

func NewServices(storages *store.ServerStorages, ids store.IDGenerator, cfg *config.ServerConfig, logger *logger.Logger) (*Services, error) {
	appInfo, err := NewAppInfoService(cfg.Version, logger)
	if err != nil {
		return nil, err
	}

	records := NewRecordValidationService().Wrap(NewRecordBackendService(storages, ids, logger))

	return &Services{
		RecordService:  records,
		AuthService:    NewAuthService(cfg, logger),
		AppInfoService: appInfo,
	}, nil
}
