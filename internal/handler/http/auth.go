package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/MKhiriev/go-offline-sync/internal/app"
	"github.com/MKhiriev/go-offline-sync/internal/logger"
	"github.com/MKhiriev/go-offline-sync/internal/service"
	"github.com/MKhiriev/go-offline-sync/internal/utils"
)

type tokenRequest struct {
	ClientID string `json:"clientId"`
}

type tokenResponse struct {
	Token     string `json:"token"`
	ExpiresAt int64  `json:"expiresAt,omitempty"`
}

// issueToken signs a token for the device named in the body. The token is
// returned both in the JSON body and in the Authorization header.
func (h *Handler) issueToken(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.FromRequest(r)

	var req tokenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Err(err).Str("func", "*Handler.issueToken").Msg(app.MsgInvalidJSON)
		utils.WriteError(w, http.StatusBadRequest, app.MsgInvalidJSON)
		return
	}

	token, err := h.services.AuthService.CreateToken(ctx, req.ClientID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidDataProvided):
			log.Err(err).Msg("invalid data provided")
			utils.WriteError(w, http.StatusBadRequest, app.MsgInvalidDataProvided)
		case errors.Is(err, service.ErrAuthDisabled):
			log.Err(err).Msg("token requested while auth is disabled")
			utils.WriteError(w, http.StatusNotImplemented, app.MsgAuthDisabled)
		default:
			log.Err(err).Msg("creation of token failed")
			utils.WriteError(w, http.StatusInternalServerError, app.MsgInternalServerError)
		}
		return
	}

	resp := tokenResponse{Token: token.SignedString}
	if token.ExpiresAt != nil {
		resp.ExpiresAt = token.ExpiresAt.Unix()
	}

	w.Header().Set("Authorization", fmt.Sprintf("Bearer %s", token.SignedString))
	utils.WriteJSON(w, resp, http.StatusOK)
}
