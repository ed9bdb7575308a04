package http

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

func TestWithLogging(t *testing.T) {
	tests := []struct {
		name         string
		method       string
		path         string
		status       int
		body         string
		wantContains []string
	}{
		{
			name:   "GET 200",
			method: http.MethodGet,
			path:   "/api/collections/posts/records",
			status: http.StatusOK,
			body:   "OK",
			wantContains: []string{
				`"method":"GET"`,
				`"uri":"/api/collections/posts/records"`,
				`"status":200`,
				`"size":2`,
				`"duration":`,
			},
		},
		{
			name:         "DELETE 204",
			method:       http.MethodDelete,
			path:         "/api/collections/posts/records/p1",
			status:       http.StatusNoContent,
			wantContains: []string{`"method":"DELETE"`, `"status":204`, `"size":0`},
		},
		{
			name:         "POST 400",
			method:       http.MethodPost,
			path:         "/api/batch",
			status:       http.StatusBadRequest,
			body:         "bad",
			wantContains: []string{`"status":400`, `"size":3`},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			l := zerolog.New(&buf)

			next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				if tt.body != "" {
					_, _ = w.Write([]byte(tt.body))
				}
			})

			req := httptest.NewRequest(tt.method, tt.path, nil)
			req = req.WithContext(l.WithContext(req.Context()))
			rec := httptest.NewRecorder()

			(&Handler{}).withLogging(next).ServeHTTP(rec, req)

			assert.Equal(t, tt.status, rec.Code)
			for _, want := range tt.wantContains {
				assert.Contains(t, buf.String(), want)
			}
		})
	}
}

func TestWithLogging_KeepsFlusher(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, ok := w.(http.Flusher)
		assert.True(t, ok)
		assert.NoError(t, http.NewResponseController(w).Flush())
	})

	rec := httptest.NewRecorder()
	(&Handler{}).withLogging(next).ServeHTTP(rec, withNopLogger(httptest.NewRequest(http.MethodGet, "/api/realtime", nil)))

	assert.True(t, rec.Flushed)
}

func TestWithLogging_LevelAndRoute(t *testing.T) {
	var buf bytes.Buffer
	l := zerolog.New(&buf)

	router := chi.NewRouter()
	router.Use((&Handler{}).withLogging)
	router.Get("/api/collections/{collection}/records/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	req := httptest.NewRequest(http.MethodGet, "/api/collections/notes/records/a1", nil)
	req = req.WithContext(l.WithContext(req.Context()))
	router.ServeHTTP(httptest.NewRecorder(), req)

	assert.Contains(t, buf.String(), `"level":"error"`)
	assert.Contains(t, buf.String(), `"route":"/api/collections/{collection}/records/{id}"`)
}
