// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package client

import (
	"context"

	"github.com/MKhiriev/go-lab-updater/internal/transport"
)

// Client defines the minimal lifecycle contract for runnable client
// applications.
type Client interface {
	// Run connects and blocks until ctx is done or the connection drops.
	Run(ctx context.Context) error
}

// Connection is the client side of the transport. Done is closed once the
// server connection is gone.
type Connection interface {
	transport.Communicator
	Done() <-chan struct{}
}
