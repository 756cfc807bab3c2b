// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package http

import (
	"github.com/MKhiriev/go-lab-updater/internal/transport"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

func (h *Handler) Init() *chi.Mux {
	router := chi.NewRouter()
	router.Use(middleware.Recoverer)
	router.Use(h.withTraceID)

	// long-lived connections; the logging writer cannot be hijacked
	router.Handle(transport.DefaultPath, h.ws)
	if h.metrics != nil {
		router.Handle("/metrics", h.metrics)
	}

	router.Group(func(r chi.Router) {
		r.Use(h.withLogging)
		r.Get("/api/status", h.getStatus)
		r.Get("/api/version", h.getServerVersion)
	})

	router.MethodNotAllowed(methodNotAllowed(router))

	return router
}
