// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

// Package adapter talks to the sync server's HTTP API.
//
// The client binary uses [StatusClient] to log the coordinator gate before it
// dials the WebSocket endpoint, and the -status one-shot mode prints the same
// snapshot and exits. Non-2xx responses are mapped by mapHTTPError to the
// sentinel errors in errors.go so that callers can use [errors.Is].
package adapter

import (
	"context"

	"github.com/MKhiriev/go-lab-updater/models"
)

//go:generate mockgen -source=interfaces.go -destination=../mock/status_client_mock.go -package=mock

// StatusClient reads diagnostics from the sync server.
type StatusClient interface {
	// Status fetches GET /api/status: the gate state, the connected clients
	// and the live sync sessions.
	Status(ctx context.Context) (models.ServerStatus, error)

	// Version fetches GET /api/version as plain text.
	Version(ctx context.Context) (string, error)
}
