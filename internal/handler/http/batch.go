package http

import (
	"net/http"

	"github.com/MKhiriev/go-offline-sync/internal/app"
	"github.com/MKhiriev/go-offline-sync/internal/logger"
	"github.com/MKhiriev/go-offline-sync/internal/utils"
)

// batch runs a list of record sub-requests and answers with one result per
// sub-request, in order.
func (h *Handler) batch(w http.ResponseWriter, r *http.Request) {
	log := logger.FromRequest(r)

	requests, err := decodeBatchPayload(r)
	if err != nil {
		log.Err(err).Str("func", "*Handler.batch").Msg("invalid batch payload")
		utils.WriteError(w, http.StatusBadRequest, app.MsgInvalidDataProvided)
		return
	}

	items, err := h.services.RecordService.Batch(r.Context(), requests)
	if err != nil {
		log.Err(err).Str("func", "*Handler.batch").Int("requests", len(requests)).Msg("error running batch")
		writeServiceError(w, err)
		return
	}

	log.Debug().Str("func", "*Handler.batch").Int("requests", len(requests)).Msg("batch processed")
	utils.WriteJSON(w, items, http.StatusOK)
}
