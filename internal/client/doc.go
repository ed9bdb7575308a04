// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

// Package client implements the offline sync client runtime.
//
// It runs the terminal dashboard in the foreground while the background
// workers poll connectivity, replay pending changes and apply realtime
// events to the local store.
package client
