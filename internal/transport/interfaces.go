// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package transport

import "context"

//go:generate mockgen -source=interfaces.go -destination=../mock/communicator_mock.go -package=mock

// ServerID is the peer ID under which a [Dialer] reports data and lifecycle
// events coming from the server.
const ServerID = "server"

// Conn is an accepted connection that has not been bound to a client ID yet.
type Conn interface {
	RemoteAddr() string
	Close() error
}

// Handler receives the traffic of one subscribed module.
type Handler interface {
	// OnClientJoined is called for every new connection. A server-side
	// handler binds it to an ID with [Communicator.AddClient].
	OnClientJoined(conn Conn)
	// OnClientLeft is called once the connection of clientID is gone.
	OnClientLeft(clientID string)
	// OnDataReceived delivers one frame sent by clientID. Frames from the same
	// peer are delivered in order and never concurrently.
	OnDataReceived(clientID string, data []byte)
}

// Communicator moves opaque payloads between peers.
type Communicator interface {
	// Start begins serving or connecting and returns a human-readable
	// description of the endpoint.
	Start(ctx context.Context, address string) (string, error)
	// Stop closes every connection.
	Stop() error
	// Send queues data for module on clientID. An empty clientID sends to
	// every connected peer.
	Send(data []byte, module, clientID string) error
	// Subscribe routes frames tagged with module to h.
	Subscribe(module string, h Handler)
	// AddClient binds conn to clientID.
	AddClient(clientID string, conn Conn)
}
