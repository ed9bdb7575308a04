package http

import (
	"errors"
	"net/http"

	"github.com/MKhiriev/go-offline-sync/internal/app"
	"github.com/MKhiriev/go-offline-sync/internal/service"
	"github.com/MKhiriev/go-offline-sync/internal/store"
	"github.com/MKhiriev/go-offline-sync/internal/utils"
)

var errorStatusMap = map[error]int{
	service.ErrInvalidDataProvided:     http.StatusBadRequest,
	service.ErrTokenIsExpiredOrInvalid: http.StatusUnauthorized,
	service.ErrAuthDisabled:            http.StatusNotImplemented,
	store.ErrBlobNotFound:              http.StatusNotFound,
}

// statusFromError maps a service error to its HTTP status. Record errors
// share the mapping used for batch items.
func statusFromError(err error) int {
	for target, status := range errorStatusMap {
		if errors.Is(err, target) {
			return status
		}
	}
	return service.BatchStatus(err)
}

// writeServiceError writes err as an error envelope. Server-side failures
// get a generic message so internals do not leak.
func writeServiceError(w http.ResponseWriter, err error) {
	status := statusFromError(err)

	message := err.Error()
	switch status {
	case http.StatusInternalServerError:
		message = app.MsgInternalServerError
	case http.StatusNotFound:
		if errors.Is(err, store.ErrRecordNotFound) {
			message = app.MsgRecordNotFound
		}
	case http.StatusConflict:
		message = app.MsgRecordExists
	}

	utils.WriteError(w, status, message)
}
