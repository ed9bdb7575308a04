package http

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/MKhiriev/go-offline-sync/internal/logger"
	"github.com/MKhiriev/go-offline-sync/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newVersionHandler(version string, uptime time.Duration) *Handler {
	return NewHandler(&service.Services{
		AppInfoService: &fakeAppInfoService{version: version, uptime: uptime},
	}, Options{}, logger.Nop())
}

func TestGetServerVersion(t *testing.T) {
	for _, version := range []string{"v1.2.3", "", "v2.0.0-rc.1+build.42"} {
		t.Run(version, func(t *testing.T) {
			rec := httptest.NewRecorder()
			newVersionHandler(version, 0).getServerVersion(rec, httptest.NewRequest(http.MethodGet, "/api/version", nil))

			assert.Equal(t, http.StatusOK, rec.Code)
			assert.Equal(t, "text/plain", rec.Header().Get("Content-Type"))
			assert.Equal(t, version, rec.Body.String())
		})
	}
}

func TestHealth(t *testing.T) {
	rec := httptest.NewRecorder()
	newVersionHandler("v1.0.0", 90*time.Second+400*time.Millisecond).health(rec, httptest.NewRequest(http.MethodGet, "/api/health", nil))

	require.Equal(t, http.StatusOK, rec.Code)

	var resp healthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, healthResponse{Status: "ok", Version: "v1.0.0", Uptime: "1m30s"}, resp)
}
