// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

// Package validators checks record requests, batches and passthrough calls
// before the remote service touches storage.
//
// Names of collections and fields, record ids and attachment filenames
// each have a narrow accepted alphabet; see [IsValidName], [IsValidID] and
// [IsValidFilename]. A failed check wraps one of the sentinel errors in
// errors.go so callers can map it to a 400 response.
package validators

import "context"

// Validator checks a request value. When field names are passed only those
// parts are checked, in that order; otherwise every part is.
type Validator interface {
	Validate(ctx context.Context, obj any, fields ...string) error
}
