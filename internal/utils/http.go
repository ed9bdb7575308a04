package utils

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/MKhiriev/go-offline-sync/models"
)

const contentTypeJSON = "application/json"

// WriteJSON encodes data and writes it with statusCode. The body is encoded
// before any header goes out, so an encoding failure still produces a clean
// 500 response. HTML characters in record fields are not escaped.
func WriteJSON(w http.ResponseWriter, data any, statusCode int) (int, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(data); err != nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return 0, fmt.Errorf("encode response body: %w", err)
	}

	w.Header().Set("Content-Type", contentTypeJSON)
	w.WriteHeader(statusCode)
	return w.Write(bytes.TrimSuffix(buf.Bytes(), []byte("\n")))
}

// WriteError writes the error envelope used by every endpoint:
//
//	{"status": 404, "message": "record not found", "data": {}}
func WriteError(w http.ResponseWriter, statusCode int, message string) {
	_, _ = WriteJSON(w, models.ErrorResponse{
		Status:  statusCode,
		Message: message,
		Data:    map[string]any{},
	}, statusCode)
}
