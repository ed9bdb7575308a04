package http

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/MKhiriev/go-offline-sync/internal/config"
	"github.com/MKhiriev/go-offline-sync/internal/logger"
	"github.com/MKhiriev/go-offline-sync/internal/service"
	"github.com/MKhiriev/go-offline-sync/internal/store"
	"github.com/MKhiriev/go-offline-sync/internal/utils"
	"github.com/MKhiriev/go-offline-sync/models"
	"github.com/stretchr/testify/require"
)

const testSignKey = "test-sign-key"

type fakeAuthService struct {
	createFn func(ctx context.Context, clientID string) (models.Token, error)
	parseFn  func(ctx context.Context, token string) (models.Token, error)
}

func (f *fakeAuthService) CreateToken(ctx context.Context, clientID string) (models.Token, error) {
	return f.createFn(ctx, clientID)
}

func (f *fakeAuthService) ParseToken(ctx context.Context, token string) (models.Token, error) {
	return f.parseFn(ctx, token)
}

type fakeAppInfoService struct {
	version string
	uptime  time.Duration
}

func (f *fakeAppInfoService) GetAppVersion(context.Context) string  { return f.version }
func (f *fakeAppInfoService) Uptime(context.Context) time.Duration { return f.uptime }

// newTestServices builds the real server services over an in-memory record
// store and a temporary file directory.
func newTestServices(t *testing.T, cfg *config.ServerConfig) *service.Services {
	t.Helper()

	if cfg.BinaryDataDir == "" {
		cfg.BinaryDataDir = t.TempDir()
	}
	if cfg.Version == "" {
		cfg.Version = "v-test"
	}

	storages, err := store.NewServerStorages(cfg, logger.Nop())
	require.NoError(t, err)

	services, err := service.NewServices(storages, utils.NewUUIDGenerator(), cfg, logger.Nop())
	require.NoError(t, err)
	return services
}

// newTestServer starts the full router. A non-empty sign key turns auth on.
func newTestServer(t *testing.T, signKey string) *httptest.Server {
	t.Helper()

	cfg := &config.ServerConfig{
		TokenSignKey:  signKey,
		TokenIssuer:   "offline-sync-test",
		TokenDuration: time.Hour,
	}
	h := NewHandler(newTestServices(t, cfg), Options{AuthEnabled: signKey != "", RequestTimeout: 5 * time.Second}, logger.Nop())

	srv := httptest.NewServer(h.Init())
	t.Cleanup(srv.Close)
	return srv
}

func doRequest(t *testing.T, method, url, contentType, body string) (*http.Response, string) {
	t.Helper()

	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req, err := http.NewRequest(method, url, reader)
	require.NoError(t, err)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, string(raw)
}

// withNopLogger puts a nop logger into the request context the way
// withTraceID does.
func withNopLogger(r *http.Request) *http.Request {
	return r.WithContext(logger.Nop().WithContext(r.Context()))
}
