// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

// Package app contains message constants shared by the reference server's
// handlers and middleware.
//
// The Msg* strings end up in the "message" field of error envelopes and in
// log entries, so clients always see the same wording for the same failure.
package app

const (
	// MsgInvalidJSON is returned when a request body is not valid JSON.
	MsgInvalidJSON = "invalid JSON was passed"

	// MsgInvalidGzip is returned when a gzip-encoded request body cannot be
	// decompressed.
	MsgInvalidGzip = "invalid gzip data"

	// MsgInvalidMultipart is returned when a multipart body cannot be parsed
	// or its @jsonPayload field is malformed.
	MsgInvalidMultipart = "invalid multipart payload"

	// MsgInvalidDataProvided is returned when the request fails validation.
	MsgInvalidDataProvided = "invalid data provided"

	// MsgInvalidFilter is returned for a filter expression that cannot be parsed.
	MsgInvalidFilter = "invalid filter expression"

	// MsgInternalServerError is returned for unexpected server-side failures.
	MsgInternalServerError = "internal server error"

	// MsgRouteNotFound is returned for unknown routes and for known routes
	// called with a method they do not serve.
	MsgRouteNotFound = "the requested resource wasn't found"

	// MsgRecordNotFound is returned when the addressed record does not exist.
	MsgRecordNotFound = "record not found"

	// MsgRecordExists is returned when a create targets an id already in use.
	MsgRecordExists = "record already exists"

	// MsgTokenIsExpiredOrInvalid is returned when a bearer token is expired
	// or cannot be verified.
	MsgTokenIsExpiredOrInvalid = "token is expired or invalid"

	// MsgAuthDisabled is returned by the token endpoint when no signing key
	// is configured.
	MsgAuthDisabled = "token auth is disabled"

	// MsgIntegrityCheckFailed is returned when a body does not match its
	// X-Content-SHA256 header.
	MsgIntegrityCheckFailed = "integrity check failed"

	// MsgStreamingUnsupported is returned when the connection cannot flush
	// server-sent events.
	MsgStreamingUnsupported = "streaming unsupported"
)
