// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package server

import "context"

// Server defines the lifecycle of the sync server process.
type Server interface {
	// RunServer serves until SIGINT, SIGTERM or SIGQUIT and then shuts down.
	RunServer()

	// Run serves until ctx is done or the listener fails.
	Run(ctx context.Context) error

	// Shutdown stops the sync engine, the hub and the HTTP listener. It is
	// safe to call more than once.
	Shutdown()
}

// Hub is the WebSocket side of the server that shares the HTTP listener.
type Hub interface {
	Start(ctx context.Context, address string) (string, error)
	Stop() error
}

// Syncer is the sync engine. Shutdown cancels every running cycle.
type Syncer interface {
	Shutdown()
}
