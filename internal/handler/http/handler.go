package http

import (
	"time"

	"github.com/MKhiriev/go-offline-sync/internal/logger"
	"github.com/MKhiriev/go-offline-sync/internal/service"
)

type Handler struct {
	services *service.Services

	// authEnabled guards the record routes with bearer-token auth.
	authEnabled    bool
	requestTimeout time.Duration

	logger *logger.Logger
}

// Options tune the router built by [Handler.Init].
type Options struct {
	AuthEnabled    bool
	RequestTimeout time.Duration
}

func NewHandler(services *service.Services, opts Options, logger *logger.Logger) *Handler {
	logger.Info().Bool("auth", opts.AuthEnabled).Msg("http handler created")
	return &Handler{
		services:       services,
		authEnabled:    opts.AuthEnabled,
		requestTimeout: opts.RequestTimeout,
		logger:         logger,
	}
}
