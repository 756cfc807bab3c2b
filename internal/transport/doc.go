// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

// Package transport delivers serialized packets between the server and its
// clients over WebSocket connections.
//
// The sync engine only depends on the [Communicator] interface. [Hub] is the
// server side: it is mounted as an http.Handler and fans frames out to every
// connected client. [Dialer] is the client side and keeps a single
// connection to the server.
//
// Every frame carries an [Envelope] naming the module the data belongs to, so
// several handlers can share one connection.
package transport
