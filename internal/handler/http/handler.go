// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package http

import (
	"fmt"
	"net/http"

	"github.com/MKhiriev/go-lab-updater/internal/logger"
	"github.com/MKhiriev/go-lab-updater/models"
)

// StatusProvider reports the server's diagnostic snapshot.
type StatusProvider interface {
	Status() models.ServerStatus
}

// Handler serves the server's HTTP routes.
type Handler struct {
	status  StatusProvider
	ws      http.Handler
	metrics http.Handler
	version string

	logger *logger.Logger
}

// NewHandler builds the handler. ws serves the WebSocket upgrade; metrics may
// be nil to leave /metrics unrouted.
func NewHandler(status StatusProvider, ws, metrics http.Handler, version string, logger *logger.Logger) (*Handler, error) {
	if status == nil {
		return nil, fmt.Errorf("%w: status provider", ErrMissingDependency)
	}
	if ws == nil {
		return nil, fmt.Errorf("%w: websocket handler", ErrMissingDependency)
	}

	logger.Info().Msg("http handler created")
	return &Handler{
		status:  status,
		ws:      ws,
		metrics: metrics,
		version: version,
		logger:  logger,
	}, nil
}
