// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

// Package client runs the lab workstation side of the updater.
//
// It checks the server's status API, dials the WebSocket endpoint, answers
// the server's sync requests through the protocol client and keeps
// re-announcing in the background until the process is stopped or the
// connection drops.
package client
