// Package http implements the reference record server's REST surface.
//
// It serves record CRUD, batches, collection schemas, uploaded files and a
// server-sent event stream of record changes. Authentication, logging,
// tracing, compression and body integrity checks are handled here before
// requests reach the service layer.
package http
