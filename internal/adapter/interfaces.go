// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

// Package adapter provides transport-layer abstractions for communicating with
// the remote record service.
//
// The primary abstraction is [RemoteService], which decouples the sync engine
// from the underlying protocol. The package ships an HTTP/REST implementation
// ([NewHTTPRemoteService]) that speaks a PocketBase-style API: per-collection
// record endpoints, a batch endpoint, collection schemas and a server-sent
// events stream for realtime changes.
//
// Error values defined in errors.go are mapped from HTTP status codes by
// mapHTTPError so that callers can use [errors.Is] for transport-agnostic error
// handling (e.g. [ErrNotFound] for 404). [IsUnreachable] separates "the
// service did not answer" from "the service said no".
package adapter

import (
	"context"

	"github.com/MKhiriev/go-offline-sync/models"
)

//go:generate mockgen -source=interfaces.go -destination=../mock/remote_service_mock.go -package=mock

// RequestOptions carries per-call extras for record operations.
type RequestOptions struct {
	// Query is appended to the request URL.
	Query map[string]string
	// Headers are sent with the request.
	Headers map[string]string
	// Files switches the request to multipart/form-data.
	Files []models.FileAttachment
}

// ListOptions controls paging and filtering of ListRecords.
type ListOptions struct {
	Page    int
	PerPage int
	// Filter is passed to the service verbatim.
	Filter string
	Sort   string
}

// RemoteService defines transport-agnostic communication with the remote
// record service. Implementations are responsible for serialisation,
// authentication header management, and mapping transport-level errors to the
// sentinel values defined in this package.
type RemoteService interface {
	// SetToken stores the bearer token that will be attached to all
	// subsequent requests.
	SetToken(token string)

	// Token returns the bearer token currently stored in the adapter, or an
	// empty string if no token has been set yet.
	Token() string

	// GetRecord fetches one record. Returns [ErrNotFound] (wrapped) when the
	// record does not exist remotely.
	GetRecord(ctx context.Context, collection, id string, opts RequestOptions) (map[string]any, error)

	// ListRecords fetches one page of records of a collection.
	ListRecords(ctx context.Context, collection string, opts ListOptions) (models.ListResponse, error)

	// CreateRecord creates a record. A body "id" is honoured by the service,
	// which lets locally minted ids survive the round trip.
	CreateRecord(ctx context.Context, collection string, body map[string]any, opts RequestOptions) (map[string]any, error)

	// UpdateRecord patches the record identified by id.
	UpdateRecord(ctx context.Context, collection, id string, body map[string]any, opts RequestOptions) (map[string]any, error)

	// UpsertRecord updates the record whose id is carried by body, or creates
	// it when the id is absent or unknown.
	UpsertRecord(ctx context.Context, collection string, body map[string]any, opts RequestOptions) (map[string]any, error)

	// DeleteRecord removes the record identified by id.
	DeleteRecord(ctx context.Context, collection, id string, opts RequestOptions) error

	// SubmitBatch sends every request in one call. Results are returned in
	// request order.
	SubmitBatch(ctx context.Context, requests []models.BatchRequest) ([]models.BatchResponseItem, error)

	// Subscribe opens a realtime stream of record events for collection. The
	// channel is closed when ctx is done or the stream ends.
	Subscribe(ctx context.Context, collection string) (<-chan models.RecordEvent, error)

	// Send performs an arbitrary request against the service.
	Send(ctx context.Context, req models.SendRequest) (models.SendResponse, error)

	// GetCollectionSchema returns the field definitions of collection.
	GetCollectionSchema(ctx context.Context, collection string) (models.CollectionSchema, error)
}
