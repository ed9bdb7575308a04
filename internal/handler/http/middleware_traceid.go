package http

import (
	"net/http"

	"github.com/MKhiriev/go-offline-sync/internal/utils"
)

var traceIDs = utils.NewUUIDGenerator()

const (
	traceIDHeader   = "X-Trace-ID"
	requestIDHeader = "X-Request-ID"
	maxTraceIDLen   = 128
)

// withTraceID tags the request logger with a trace id. The id comes from
// X-Trace-ID, then X-Request-ID, and is minted as a UUIDv7 when neither
// carries a usable value. It is echoed back in X-Trace-ID.
func (h *Handler) withTraceID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		traceID := incomingTraceID(r)
		if traceID == "" {
			traceID = traceIDs.Generate()
		}

		l := h.logger.WithStr("trace_id", traceID)

		w.Header().Set(traceIDHeader, traceID)
		next.ServeHTTP(w, r.WithContext(l.WithContext(r.Context())))
	})
}

func incomingTraceID(r *http.Request) string {
	for _, header := range []string{traceIDHeader, requestIDHeader} {
		if v := r.Header.Get(header); validTraceID(v) {
			return v
		}
	}
	return ""
}

// validTraceID accepts short printable ASCII ids so a client cannot inject
// control characters into log lines or response headers.
func validTraceID(v string) bool {
	if v == "" || len(v) > maxTraceIDLen {
		return false
	}
	for i := 0; i < len(v); i++ {
		if v[i] < 0x21 || v[i] > 0x7e {
			return false
		}
	}
	return true
}
