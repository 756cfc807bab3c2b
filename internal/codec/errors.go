// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package codec

import "errors"

var (
	// ErrMalformedContent is returned when entry content is neither a valid
	// textual document nor a base64-wrapped one.
	ErrMalformedContent = errors.New("malformed content")

	// ErrSerialization is returned when a packet or document cannot be
	// marshaled or unmarshaled.
	ErrSerialization = errors.New("serialization error")

	// ErrUnknownPacketKind is returned for packets whose kind is not part of
	// the protocol.
	ErrUnknownPacketKind = errors.New("unknown packet kind")
)
