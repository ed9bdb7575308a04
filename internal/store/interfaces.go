// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

// Package store holds the local persistence of the sync client: the record
// store (SQLite via mattn/go-sqlite3, or an in-process map), the attachment
// blob store on the filesystem, and the response cache used by passthrough
// sends. The reference remote service reuses the same types for its own
// storage.
package store

import (
	"context"

	"github.com/MKhiriev/go-offline-sync/models"
)

//go:generate mockgen -source=interfaces.go -destination=../mock/store_mock.go -package=mock

// RecordFilter selects records. Zero values mean "no constraint".
type RecordFilter struct {
	// Collection restricts the result to one collection.
	Collection string
	// ID restricts the result to one record id.
	ID string
	// Equals matches user data fields by value.
	Equals map[string]any
	// Pending selects rows with synced=false and noSync absent or false.
	Pending bool
	// IncludeDeleted returns tombstones as well.
	IncludeDeleted bool
	// Limit caps the number of rows; 0 means unlimited.
	Limit int
}

// LocalStore is the local record store. Rows are returned in store order,
// which is insertion order for every implementation in this package.
type LocalStore interface {
	// Create inserts a record. data["id"] is used as the id when present,
	// otherwise a new id is minted. Returns ErrRecordExists on id collision.
	Create(ctx context.Context, collection string, data map[string]any, flags models.RecordFlags) (models.Record, error)

	// Update merges data into an existing row (tombstones included) and
	// replaces its flags. Returns ErrRecordNotFound when absent.
	Update(ctx context.Context, collection, id string, data map[string]any, flags models.RecordFlags) (models.Record, error)

	// Put writes rec as-is, inserting or replacing the whole row while
	// keeping its position in store order.
	Put(ctx context.Context, rec models.Record) (models.Record, error)

	// Delete physically removes a row. Deleting a missing row is not an error.
	Delete(ctx context.Context, collection, id string) error

	// SoftDelete turns a row into a tombstone carrying flags (Deleted is
	// forced to true). Returns ErrRecordNotFound when absent.
	SoftDelete(ctx context.Context, collection, id string, flags models.RecordFlags) (models.Record, error)

	// Get returns a row, tombstones included.
	Get(ctx context.Context, collection, id string) (models.Record, error)

	// Query returns all rows matching filter.
	Query(ctx context.Context, filter RecordFilter) ([]models.Record, error)

	// QueryOne returns the first row matching filter or ErrRecordNotFound.
	QueryOne(ctx context.Context, filter RecordFilter) (models.Record, error)

	// Watch emits the current result of filter and re-emits it after every
	// change to a matching collection. The channel closes when ctx is done.
	Watch(ctx context.Context, filter RecordFilter) (<-chan []models.Record, error)

	// Collections lists every collection that has at least one row.
	Collections(ctx context.Context) ([]string, error)
}

// BlobStore keeps attachment bytes keyed by (record id, filename).
type BlobStore interface {
	PutBlob(ctx context.Context, recordID, filename string, data []byte) error
	// GetBlob returns ErrBlobNotFound when absent.
	GetBlob(ctx context.Context, recordID, filename string) ([]byte, error)
	// ListBlobs returns the filenames cached for recordID, sorted.
	ListBlobs(ctx context.Context, recordID string) ([]string, error)
	DeleteBlobs(ctx context.Context, recordID string) error
}

// ResponseCache stores the last successful answer of passthrough requests.
type ResponseCache interface {
	PutResponse(ctx context.Context, key string, resp models.SendResponse) error
	// GetResponse returns ErrResponseNotCached when absent.
	GetResponse(ctx context.Context, key string) (models.SendResponse, error)
}

// IDGenerator mints record ids.
type IDGenerator interface {
	Generate() string
}
