package http

import (
	"bytes"
	"io"
	"net/http"
	"strings"

	"github.com/MKhiriev/go-offline-sync/internal/app"
	"github.com/MKhiriev/go-offline-sync/internal/utils"
)

const contentHashHeader = "X-Content-SHA256"

// withBodyHash verifies the request body against the hex SHA-256 digest in
// the X-Content-SHA256 header. Requests without the header pass through.
func (h *Handler) withBodyHash(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		want := strings.ToLower(strings.TrimSpace(r.Header.Get(contentHashHeader)))
		if want == "" {
			next.ServeHTTP(w, r)
			return
		}

		h.logger.Debug().Str("func", "*Handler.withBodyHash").Msg("checking hash begins")

		body, err := io.ReadAll(r.Body)
		if err != nil {
			h.logger.Err(err).Str("func", "*Handler.withBodyHash").Msg("failed to read request body")
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		// restore request body
		r.Body = io.NopCloser(bytes.NewReader(body))

		got := utils.Fingerprint(body)
		if got != want {
			h.logger.Error().Str("func", "*Handler.withBodyHash").
				Str("hash from request", want).
				Str("hashed body", got).
				Msg("hashes are not equal")
			utils.WriteError(w, http.StatusBadRequest, app.MsgIntegrityCheckFailed)
			return
		}

		next.ServeHTTP(w, r)
	})
}
