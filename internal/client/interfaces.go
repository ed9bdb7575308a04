// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package client

import "context"

// Client is what cmd/client runs. Run returns once the dashboard exits and
// the background workers have drained.
type Client interface {
	Run() error
}

// UI is the foreground of the client. Run blocks until the user leaves
// or ctx is done.
type UI interface {
	Run(ctx context.Context) error
}
