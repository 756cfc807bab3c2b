// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package coordinator

import (
	"context"
	"sync/atomic"

	"github.com/MKhiriev/go-lab-updater/models"
	"golang.org/x/sync/semaphore"
)

// Gate is a process-wide single-holder lock. Waiters are woken in FIFO order.
type Gate struct {
	sem  *semaphore.Weighted
	held atomic.Bool
}

// NewGate returns an available gate.
func NewGate() *Gate {
	return &Gate{sem: semaphore.NewWeighted(1)}
}

// Acquire blocks until the gate is free and takes it. It only fails when
// ctx is done first, in which case the gate is not held.
func (g *Gate) Acquire(ctx context.Context) error {
	if err := g.sem.Acquire(ctx, 1); err != nil {
		return err
	}
	g.held.Store(true)
	return nil
}

// TryAcquire takes the gate if it is free without blocking.
func (g *Gate) TryAcquire() bool {
	if !g.sem.TryAcquire(1) {
		return false
	}
	g.held.Store(true)
	return true
}

// Release frees the gate and wakes one waiter. Calling Release on a gate
// that is not held panics.
func (g *Gate) Release() {
	g.held.Store(false)
	g.sem.Release(1)
}

// Status reports whether the gate is currently held. The answer may be stale
// by the time the caller reads it and must not be used for synchronization.
func (g *Gate) Status() string {
	if g.held.Load() {
		return models.GateHeld
	}
	return models.GateAvailable
}
