package http

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

func (h *Handler) Init() *chi.Mux {
	router := chi.NewRouter()
	router.Use(middleware.Recoverer)
	router.Use(h.withTraceID, h.withLogging)

	// routes without authorization
	router.Group(func(r chi.Router) {
		r.Get("/api/health", h.health)
		r.Get("/api/version", h.getServerVersion)
		r.Post("/api/auth/token", h.issueToken)
	})

	router.Group(func(r chi.Router) {
		if h.authEnabled {
			r.Use(h.auth)
		}

		// the event stream must not be buffered or cut by a deadline
		r.Get("/api/realtime", h.realtime)

		r.Group(func(r chi.Router) {
			r.Use(withGZip)
			if h.requestTimeout > 0 {
				r.Use(middleware.Timeout(h.requestTimeout))
			}

			r.Get("/api/collections/{collection}", h.getSchema)
			r.Route("/api/collections/{collection}/records", func(r chi.Router) {
				r.Get("/", h.listRecords)
				r.With(h.withBodyHash).Post("/", h.createRecord)
				r.With(h.withBodyHash).Put("/", h.upsertRecord)
				r.Get("/{id}", h.getRecord)
				r.With(h.withBodyHash).Patch("/{id}", h.updateRecord)
				r.Delete("/{id}", h.deleteRecord)
			})
			r.Get("/api/files/{collection}/{id}/{filename}", h.getFile)
			r.With(h.withBodyHash).Post("/api/batch", h.batch)
		})
	})

	router.MethodNotAllowed(CheckHTTPMethod(router))

	return router
}
