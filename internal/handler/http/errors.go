// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package http

import "errors"

// Bearer header failures of the auth middleware. All of them answer 401.
var (
	ErrEmptyAuthorizationHeader   = errors.New("request has no Authorization header")
	ErrInvalidAuthorizationHeader = errors.New("authorization header is not a bearer credential")
	ErrEmptyToken                 = errors.New("bearer token is empty")
)
