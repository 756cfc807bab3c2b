// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package protocol

import "errors"

var (
	// ErrEmptyPacket is returned when a packet that must carry entries has none.
	ErrEmptyPacket = errors.New("packet has no entries")
	// ErrUnexpectedPacket is returned for a packet the receiver's role or the
	// session's current phase does not accept.
	ErrUnexpectedPacket = errors.New("unexpected packet")
	// ErrNoSession is returned when a client sends cycle data without a live session.
	ErrNoSession = errors.New("no live sync session")
	// ErrClientLeft aborts the cycle of a client that disconnected.
	ErrClientLeft = errors.New("client disconnected")
	// ErrCycleTimeout aborts a cycle that held the gate for too long.
	ErrCycleTimeout = errors.New("sync cycle timed out")
)
