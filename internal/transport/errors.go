// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package transport

import "errors"

var (
	// ErrNotStarted is returned by operations that need a running communicator.
	ErrNotStarted = errors.New("communicator is not started")
	// ErrUnknownClient is returned when sending to a client ID with no live connection.
	ErrUnknownClient = errors.New("unknown client")
	// ErrSendBufferFull is returned when a peer does not drain its queue fast enough.
	ErrSendBufferFull = errors.New("send buffer full")
	// ErrConnectionClosed is returned when sending on a closed connection.
	ErrConnectionClosed = errors.New("connection closed")
	// ErrFrameTooLarge is returned when a frame exceeds the peer's read limit.
	ErrFrameTooLarge = errors.New("frame exceeds max message size")
)
