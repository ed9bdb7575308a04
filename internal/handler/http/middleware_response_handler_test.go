package http

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResponseWriter_WriteHeaderOnce(t *testing.T) {
	rec := httptest.NewRecorder()
	rw := &responseWriter{ResponseWriter: rec}

	rw.WriteHeader(http.StatusCreated)
	rw.WriteHeader(http.StatusInternalServerError)

	assert.Equal(t, http.StatusCreated, rw.status)
	assert.Equal(t, http.StatusCreated, rec.Code)
}

func TestResponseWriter_Write(t *testing.T) {
	tests := []struct {
		name       string
		header     int
		writes     []string
		wantStatus int
		wantSize   int
		wantBody   string
	}{
		{name: "implicit 200", writes: []string{"hello"}, wantStatus: http.StatusOK, wantSize: 5, wantBody: "hello"},
		{name: "explicit status kept", header: http.StatusAccepted, writes: []string{"ok"}, wantStatus: http.StatusAccepted, wantSize: 2, wantBody: "ok"},
		{name: "size accumulates, body is last write", writes: []string{"ab", "cde"}, wantStatus: http.StatusOK, wantSize: 5, wantBody: "cde"},
		{name: "empty write", writes: []string{""}, wantStatus: http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			rw := &responseWriter{ResponseWriter: rec}

			if tt.header != 0 {
				rw.WriteHeader(tt.header)
			}
			for _, w := range tt.writes {
				_, err := rw.Write([]byte(w))
				require.NoError(t, err)
			}

			assert.Equal(t, tt.wantStatus, rw.status)
			assert.Equal(t, tt.wantSize, rw.size)
			assert.Equal(t, tt.wantBody, string(rw.body))
		})
	}
}

func TestResponseWriter_FlushAndUnwrap(t *testing.T) {
	rec := httptest.NewRecorder()
	rw := &responseWriter{ResponseWriter: rec}

	rw.Flush()

	assert.True(t, rec.Flushed)
	assert.Equal(t, http.StatusOK, rw.status)
	assert.Same(t, http.ResponseWriter(rec), rw.Unwrap())
}
