// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package http

import (
	"net/http"

	"github.com/MKhiriev/go-lab-updater/internal/logger"
	"github.com/MKhiriev/go-lab-updater/internal/utils"
)

// getStatus serves the gate state, live sessions and connected clients.
func (h *Handler) getStatus(w http.ResponseWriter, r *http.Request) {
	log := logger.FromRequest(r)

	status := h.status.Status()
	status.Version = h.version

	if _, err := utils.WriteJSON(w, status, http.StatusOK); err != nil {
		log.Err(err).Msg("failed to write status")
	}
}
