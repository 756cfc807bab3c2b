// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package codec

import (
	"encoding/json"
	"fmt"

	"github.com/MKhiriev/go-lab-updater/models"
)

// MarshalPacket serializes p for the communicator.
func MarshalPacket(p models.SyncPacket) ([]byte, error) {
	if !p.Kind.Known() {
		return nil, fmt.Errorf("marshal packet: %w: %q", ErrUnknownPacketKind, p.Kind)
	}
	if p.Payload == nil {
		p.Payload = []models.FileEntry{}
	}

	data, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("marshal packet: %w: %v", ErrSerialization, err)
	}

	return data, nil
}

// UnmarshalPacket parses a packet received from the communicator. A packet
// with a kind outside the protocol yields [ErrUnknownPacketKind].
func UnmarshalPacket(data []byte) (models.SyncPacket, error) {
	if len(data) == 0 {
		return models.SyncPacket{}, fmt.Errorf("unmarshal packet: %w: empty data", ErrSerialization)
	}

	var p models.SyncPacket
	if err := json.Unmarshal(data, &p); err != nil {
		return models.SyncPacket{}, fmt.Errorf("unmarshal packet: %w: %v", ErrSerialization, err)
	}
	if !p.Kind.Known() {
		return models.SyncPacket{}, fmt.Errorf("unmarshal packet: %w: %q", ErrUnknownPacketKind, p.Kind)
	}

	return p, nil
}
