// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package handler

import "errors"

// errNoTransport means the server config enables no transport at all, so
// there is nothing to mount the sync API on.
var errNoTransport = errors.New("sync API has no transport configured")
