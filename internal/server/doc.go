// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

// Package server runs the sync server process: the HTTP listener that serves
// the status API and the WebSocket endpoint, the hub behind that endpoint and
// the sync engine. It handles startup, signal handling and graceful shutdown.
package server
