// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package server

// Server runs the reference remote service.
//
// RunServer blocks until SIGINT or SIGTERM and then shuts the listener down
// gracefully; Shutdown can also be called directly.
type Server interface {
	// RunServer serves requests until the process is told to stop.
	RunServer()

	// Shutdown stops accepting requests and waits for in-flight ones.
	Shutdown()
}
