// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

// Package http implements the HTTP surface of the sync server.
//
// It exposes the WebSocket endpoint the protocol runs over, the diagnostic
// status and version endpoints, and the Prometheus scrape endpoint. Request
// tracing and access logging are handled by middleware in this package.
package http
