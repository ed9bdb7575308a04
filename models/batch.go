// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package models

import "maps"

// BatchMethod is the kind of a queued batch operation.
type BatchMethod string

const (
	BatchCreate BatchMethod = "create"
	BatchUpdate BatchMethod = "update"
	BatchUpsert BatchMethod = "upsert"
	BatchDelete BatchMethod = "delete"
)

// FileAttachment is a buffered file sent along with a record write.
type FileAttachment struct {
	// Field is the record field the file belongs to.
	Field string
	// Filename is the name the file is stored under.
	Filename string
	// Data is the file content.
	Data []byte
}

// BatchRequest is one queued batch operation. It is never mutated after
// construction; use NewBatchRequest to get defensive copies of the maps.
type BatchRequest struct {
	Method     BatchMethod
	Collection string
	RecordID   string
	Body       map[string]any
	Query      map[string]string
	Headers    map[string]string
	Files      []FileAttachment
}

// NewBatchRequest copies body, query, headers and files into a new request.
func NewBatchRequest(method BatchMethod, collection, recordID string, body map[string]any, query, headers map[string]string, files []FileAttachment) BatchRequest {
	return BatchRequest{
		Method:     method,
		Collection: collection,
		RecordID:   recordID,
		Body:       maps.Clone(body),
		Query:      maps.Clone(query),
		Headers:    maps.Clone(headers),
		Files:      append([]FileAttachment(nil), files...),
	}
}

// BatchResult is the outcome of one batch operation.
type BatchResult struct {
	// Status is an HTTP-like status code; 500 marks a local failure.
	Status int `json:"status"`
	// Body is the response body or the locally written record.
	Body any `json:"body"`
	// Collection is the collection the request targeted.
	Collection string `json:"collection"`
	// RecordID is the resolved record id; empty when it could not be resolved.
	RecordID string `json:"recordId,omitempty"`
}

// Succeeded reports whether the status is 2xx.
func (r BatchResult) Succeeded() bool {
	return r.Status >= 200 && r.Status < 300
}
