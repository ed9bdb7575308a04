// Package server runs the reference record server.
//
// It owns the HTTP server lifecycle: startup, signal handling and graceful
// shutdown.
package server
