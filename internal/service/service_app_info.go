package service

import (
	"context"
	"strings"
	"time"

	"github.com/MKhiriev/go-offline-sync/internal/logger"
)

// appInfoService answers the version and health endpoints. Uptime is
// measured from construction with the service's own clock.
type appInfoService struct {
	version   string
	now       func() time.Time
	startedAt time.Time
}

func NewAppInfoService(version string, log *logger.Logger) (AppInfoService, error) {
	s, err := newAppInfoService(version, time.Now, log)
	if err != nil {
		return nil, err
	}
	return s, nil
}

func newAppInfoService(version string, now func() time.Time, log *logger.Logger) (*appInfoService, error) {
	version = strings.TrimSpace(version)
	if version == "" {
		return nil, ErrVersionIsNotSpecified
	}

	s := &appInfoService{version: version, now: now, startedAt: now()}
	log.Info().
		Str("func", "NewAppInfoService").
		Str("version", version).
		Time("started_at", s.startedAt).
		Msg("serving build info")

	return s, nil
}

func (s *appInfoService) GetAppVersion(_ context.Context) string {
	return s.version
}

func (s *appInfoService) Uptime(_ context.Context) time.Duration {
	return s.now().Sub(s.startedAt)
}
