package http

import (
	"net/http"
	"time"

	"github.com/MKhiriev/go-offline-sync/internal/utils"
)

type healthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
	Uptime  string `json:"uptime"`
}

func (h *Handler) getServerVersion(w http.ResponseWriter, r *http.Request) {
	serverVersion := h.services.AppInfoService.GetAppVersion(r.Context())

	w.Header().Set("Content-Type", "text/plain")
	w.Write([]byte(serverVersion))
}

// health is the probe the connectivity checker and Send passthrough use.
func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	utils.WriteJSON(w, healthResponse{
		Status:  "ok",
		Version: h.services.AppInfoService.GetAppVersion(ctx),
		Uptime:  h.services.AppInfoService.Uptime(ctx).Round(time.Second).String(),
	}, http.StatusOK)
}
