// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package protocol

import "time"

// Module is the communicator module both sides subscribe to.
const Module = "updater"

// Cycle outcomes reported to [Metrics].
const (
	OutcomeCompleted  = "completed"
	OutcomeAborted    = "aborted"
	OutcomeClientLeft = "client_left"
	OutcomeTimeout    = "timeout"
	OutcomeCancelled  = "cancelled"
)

// Transfer directions reported to [Metrics].
const (
	DirectionToClient   = "to_client"
	DirectionFromClient = "from_client"
	DirectionBroadcast  = "broadcast"
)

// Metrics observes the server side of the protocol.
type Metrics interface {
	ObserveGateWait(wait time.Duration)
	ObserveCycle(outcome string, duration time.Duration)
	SetConnectedClients(n int)
	AddFilesTransferred(direction string, n int)
}

type nopMetrics struct{}

func (nopMetrics) ObserveGateWait(time.Duration) {}
func (nopMetrics) ObserveCycle(string, time.Duration) {}
func (nopMetrics) SetConnectedClients(int) {}
func (nopMetrics) AddFilesTransferred(string, int) {}
