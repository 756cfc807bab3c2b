// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package coordinator

import (
	"fmt"
	"slices"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/MKhiriev/go-lab-updater/internal/utils"
	"github.com/MKhiriev/go-lab-updater/models"
	"github.com/jonboulle/clockwork"
)

// ClientIDPrefix is prepended to the counter value of every assigned client ID.
const ClientIDPrefix = "Client"

// IDGenerator produces cycle correlation IDs.
type IDGenerator interface {
	Generate() string
}

// Coordinator owns the gate, the client counter and the session registry.
type Coordinator struct {
	gate  *Gate
	seq   atomic.Uint64
	clock clockwork.Clock
	ids   IDGenerator

	mu       sync.RWMutex
	sessions map[string]models.SessionInfo
}

// Option configures a [Coordinator].
type Option func(*Coordinator)

// WithClock overrides the clock used to stamp sessions.
func WithClock(clock clockwork.Clock) Option {
	return func(c *Coordinator) {
		c.clock = clock
	}
}

// WithIDGenerator overrides the cycle ID source.
func WithIDGenerator(ids IDGenerator) Option {
	return func(c *Coordinator) {
		c.ids = ids
	}
}

// New returns a Coordinator with an available gate and no sessions.
func New(opts ...Option) *Coordinator {
	c := &Coordinator{
		gate:     NewGate(),
		clock:    clockwork.NewRealClock(),
		ids:      utils.NewUUIDGenerator(),
		sessions: make(map[string]models.SessionInfo),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Gate returns the coordination gate.
func (c *Coordinator) Gate() *Gate {
	return c.gate
}

// Status is a shortcut for Gate().Status().
func (c *Coordinator) Status() string {
	return c.gate.Status()
}

// NextClientID returns a fresh, process-unique client identifier.
func (c *Coordinator) NextClientID() string {
	return fmt.Sprintf("%s%d", ClientIDPrefix, c.seq.Add(1))
}

// Begin registers a new session for clientID in the awaiting-gate phase.
// It returns false and leaves the registry untouched when the client already
// has a live session.
func (c *Coordinator) Begin(clientID string) (models.SessionInfo, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if existing, ok := c.sessions[clientID]; ok {
		return existing, false
	}

	session := models.SessionInfo{
		ClientID:  clientID,
		CycleID:   c.ids.Generate(),
		Phase:     models.PhaseAwaitingGate,
		StartedAt: c.clock.Now(),
	}
	c.sessions[clientID] = session
	return session, true
}

// Session returns the live session of clientID, if any.
func (c *Coordinator) Session(clientID string) (models.SessionInfo, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	s, ok := c.sessions[clientID]
	return s, ok
}

// Advance moves the session of clientID to phase, provided it still belongs
// to cycleID and is currently in one of from. An empty from accepts any phase.
func (c *Coordinator) Advance(clientID, cycleID string, phase models.SyncPhase, from ...models.SyncPhase) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	s, ok := c.sessions[clientID]
	if !ok || s.CycleID != cycleID {
		return false
	}
	if len(from) > 0 && !slices.Contains(from, s.Phase) {
		return false
	}

	s.Phase = phase
	c.sessions[clientID] = s
	return true
}

// End removes the session of clientID if it still belongs to cycleID.
func (c *Coordinator) End(clientID, cycleID string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	s, ok := c.sessions[clientID]
	if !ok || s.CycleID != cycleID {
		return false
	}
	delete(c.sessions, clientID)
	return true
}

// Sessions returns a snapshot of live sessions ordered by client ID.
func (c *Coordinator) Sessions() []models.SessionInfo {
	c.mu.RLock()
	out := make([]models.SessionInfo, 0, len(c.sessions))
	for _, s := range c.sessions {
		out = append(out, s)
	}
	c.mu.RUnlock()

	slices.SortFunc(out, func(a, b models.SessionInfo) int {
		return strings.Compare(a.ClientID, b.ClientID)
	})
	return out
}
