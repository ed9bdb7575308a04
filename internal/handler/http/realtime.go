package http

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/MKhiriev/go-offline-sync/internal/app"
	"github.com/MKhiriev/go-offline-sync/internal/logger"
	"github.com/MKhiriev/go-offline-sync/internal/utils"
	"github.com/MKhiriev/go-offline-sync/internal/validators"
	"github.com/MKhiriev/go-offline-sync/models"
)

const keepAliveInterval = 25 * time.Second

type realtimeMessage struct {
	Action models.EventAction `json:"action"`
	Record map[string]any     `json:"record"`
}

// realtime streams record changes of one collection as server-sent events.
// Each event is a single data line holding {"action", "record"}.
func (h *Handler) realtime(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.FromRequest(r)

	collection := r.URL.Query().Get("collection")
	if !validators.IsValidName(collection) {
		utils.WriteError(w, http.StatusBadRequest, app.MsgInvalidDataProvided)
		return
	}

	rc := http.NewResponseController(w)

	events, cancel := h.services.RecordService.Subscribe(ctx, collection)
	defer cancel()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	if err := rc.Flush(); err != nil {
		log.Err(err).Str("func", "*Handler.realtime").Msg(app.MsgStreamingUnsupported)
		return
	}

	log.Info().Str("collection", collection).Msg("realtime client connected")
	defer log.Info().Str("collection", collection).Msg("realtime client disconnected")

	ticker := time.NewTicker(keepAliveInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := fmt.Fprint(w, ": ping\n\n"); err != nil {
				return
			}
		case ev, ok := <-events:
			if !ok {
				return
			}
			payload, err := json.Marshal(realtimeMessage{Action: ev.Action, Record: ev.Record.ToMap()})
			if err != nil {
				log.Err(err).Str("func", "*Handler.realtime").Msg("failed to encode event")
				continue
			}
			if _, err = fmt.Fprintf(w, "data: %s\n\n", payload); err != nil {
				return
			}
		}
		if err := rc.Flush(); err != nil {
			return
		}
	}
}
