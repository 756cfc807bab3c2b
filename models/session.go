// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package models

import "time"

// SyncPhase is the server-side state of a single client's sync cycle.
type SyncPhase string

const (
	PhaseIdle                   SyncPhase = "idle"
	PhaseAwaitingGate           SyncPhase = "awaiting_gate"
	PhaseSyncRequested          SyncPhase = "sync_requested"
	PhaseAwaitingClientMetadata SyncPhase = "awaiting_client_metadata"
	PhaseReconciling            SyncPhase = "reconciling"
	PhaseAwaitingClientUpload   SyncPhase = "awaiting_client_upload"
	PhaseBroadcasting           SyncPhase = "broadcasting"
)

// Gate status strings reported by the coordinator.
const (
	GateHeld      = "held"
	GateAvailable = "available"
)

// SessionInfo is a read-only snapshot of a live sync session.
type SessionInfo struct {
	ClientID  string    `json:"client_id"`
	CycleID   string    `json:"cycle_id"`
	Phase     SyncPhase `json:"phase"`
	StartedAt time.Time `json:"started_at"`
}

// ServerStatus is served by the status API for diagnostics.
type ServerStatus struct {
	Gate      string        `json:"gate"`
	Directory string        `json:"directory"`
	Clients   []string      `json:"clients"`
	Sessions  []SessionInfo `json:"sessions"`
	Version   string        `json:"version"`
}
