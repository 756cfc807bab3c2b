// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package protocol

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/MKhiriev/go-lab-updater/internal/codec"
	"github.com/MKhiriev/go-lab-updater/internal/coordinator"
	"github.com/MKhiriev/go-lab-updater/internal/logger"
	"github.com/MKhiriev/go-lab-updater/internal/metadata"
	"github.com/MKhiriev/go-lab-updater/internal/store"
	"github.com/MKhiriev/go-lab-updater/internal/transport"
	"github.com/MKhiriev/go-lab-updater/models"
	"github.com/jonboulle/clockwork"
)

// DefaultDebounce is the pause between a broadcast and the gate release.
const DefaultDebounce = time.Second

// ServerOption configures a [Server].
type ServerOption func(*Server)

// WithReportName overrides the file name of the persisted difference report.
func WithReportName(name string) ServerOption {
	return func(s *Server) {
		if name != "" {
			s.reportName = name
		}
	}
}

// WithDebounce overrides the delay between a broadcast and the gate release.
func WithDebounce(d time.Duration) ServerOption {
	return func(s *Server) {
		if d >= 0 {
			s.debounce = d
		}
	}
}

// WithCycleTimeout bounds how long one cycle may hold the gate. Zero disables
// the bound.
func WithCycleTimeout(d time.Duration) ServerOption {
	return func(s *Server) {
		s.cycleTimeout = d
	}
}

// WithServerClock overrides the clock used for the debounce and the timeout.
func WithServerClock(clock clockwork.Clock) ServerOption {
	return func(s *Server) {
		s.clock = clock
	}
}

// WithServerNotifier sets the status sink.
func WithServerNotifier(n Notifier) ServerOption {
	return func(s *Server) {
		s.notifier = n
	}
}

// WithMetrics sets the metrics sink.
func WithMetrics(m Metrics) ServerOption {
	return func(s *Server) {
		s.metrics = m
	}
}

// cycle is the server-side state of one client's sync attempt that is not
// already tracked by the coordinator session.
type cycle struct {
	clientID  string
	cycleID   string
	startedAt time.Time
	log       *logger.Logger

	ctx    context.Context
	cancel context.CancelFunc

	mu      sync.Mutex
	ended   bool
	release func()
	timer   clockwork.Timer

	// busy counts handlers touching the server directory. A cycle that ends
	// while busy > 0 hands its release to the last of them.
	busy           int
	pendingRelease func()
}

func (c *cycle) holdsGate() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.release != nil && !c.ended
}

// enter marks a handler as working in the server directory. It fails once the
// cycle has ended.
func (c *cycle) enter() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.ended {
		return false
	}
	c.busy++
	return true
}

// leave undoes enter and releases the gate if the cycle ended meanwhile.
func (c *cycle) leave() {
	c.mu.Lock()
	c.busy--
	var release func()
	if c.busy == 0 && c.pendingRelease != nil {
		release, c.pendingRelease = c.pendingRelease, nil
	}
	c.mu.Unlock()

	if release != nil {
		release()
	}
}

// Server is the server side of the protocol. It is a [transport.Handler]
// subscribed to [Module].
type Server struct {
	comm    transport.Communicator
	coord   *coordinator.Coordinator
	store   store.DirectoryStore
	scanner *metadata.Scanner
	logger  *logger.Logger

	clock        clockwork.Clock
	notifier     Notifier
	metrics      Metrics
	reportName   string
	debounce     time.Duration
	cycleTimeout time.Duration

	mu      sync.Mutex
	clients map[string]transport.Conn
	cycles  map[string]*cycle

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewServer builds the server handler and subscribes it on comm.
func NewServer(
	comm transport.Communicator,
	coord *coordinator.Coordinator,
	st store.DirectoryStore,
	log *logger.Logger,
	opts ...ServerOption,
) *Server {
	ctx, cancel := context.WithCancel(context.Background())
	s := &Server{
		comm:       comm,
		coord:      coord,
		store:      st,
		logger:     log,
		clock:      clockwork.NewRealClock(),
		notifier:   nopNotifier{},
		metrics:    nopMetrics{},
		reportName: DefaultReportName,
		debounce:   DefaultDebounce,
		clients:    make(map[string]transport.Conn),
		cycles:     make(map[string]*cycle),
		ctx:        ctx,
		cancel:     cancel,
	}
	for _, opt := range opts {
		opt(s)
	}

	s.scanner = metadata.NewScanner(st.Fs(), metadata.WithIgnoreFunc(scannerIgnores(s.reportName)))
	comm.Subscribe(Module, s)
	return s
}

// Shutdown aborts every live cycle and waits for cycle goroutines to exit.
func (s *Server) Shutdown() {
	s.cancel()

	s.mu.Lock()
	live := make([]*cycle, 0, len(s.cycles))
	for _, c := range s.cycles {
		live = append(live, c)
	}
	s.mu.Unlock()

	for _, c := range live {
		s.end(c, OutcomeCancelled, context.Canceled)
	}
	s.wg.Wait()
}

// Status returns a diagnostic snapshot of the server.
func (s *Server) Status() models.ServerStatus {
	return models.ServerStatus{
		Gate:      s.coord.Status(),
		Directory: s.store.Path(),
		Clients:   s.Clients(),
		Sessions:  s.coord.Sessions(),
	}
}

// Clients returns the IDs of connected clients in lexicographic order.
func (s *Server) Clients() []string {
	s.mu.Lock()
	ids := make([]string, 0, len(s.clients))
	for id := range s.clients {
		ids = append(ids, id)
	}
	s.mu.Unlock()

	slices.Sort(ids)
	return ids
}

// OnClientJoined assigns an ID to the new connection and starts its first
// cycle. Connecting is an implicit announce.
func (s *Server) OnClientJoined(conn transport.Conn) {
	defer s.recoverPanic("client joined")

	clientID := s.coord.NextClientID()
	s.comm.AddClient(clientID, conn)

	s.mu.Lock()
	s.clients[clientID] = conn
	n := len(s.clients)
	s.mu.Unlock()
	s.metrics.SetConnectedClients(n)

	s.logger.Info().Str("client_id", clientID).Str("remote", conn.RemoteAddr()).Msg("client connected")
	s.notifier.Notify(fmt.Sprintf("Detected new client connection: %s, assigned ID: %s", conn.RemoteAddr(), clientID))

	s.announce(clientID)
}

// OnClientLeft forgets the client and aborts its cycle, if any.
func (s *Server) OnClientLeft(clientID string) {
	defer s.recoverPanic("client left")

	s.mu.Lock()
	_, known := s.clients[clientID]
	delete(s.clients, clientID)
	n := len(s.clients)
	c := s.cycles[clientID]
	s.mu.Unlock()

	if !known {
		s.logger.Debug().Str("client_id", clientID).Msg("unknown client left")
		return
	}
	s.metrics.SetConnectedClients(n)
	s.notifier.Notify(fmt.Sprintf("Detected client %s disconnected", clientID))

	if c != nil {
		s.end(c, OutcomeClientLeft, ErrClientLeft)
	}
}

// OnDataReceived dispatches one packet from clientID.
func (s *Server) OnDataReceived(clientID string, data []byte) {
	defer s.recoverPanic("data received from " + clientID)

	if err := s.dispatch(clientID, data); err != nil {
		s.logger.Warn().Err(err).Str("client_id", clientID).Msg("packet rejected")
		s.notifier.Notify(fmt.Sprintf("Rejected packet from %s: %v", clientID, err))
	}
}

func (s *Server) dispatch(clientID string, data []byte) error {
	packet, err := codec.UnmarshalPacket(data)
	if err != nil {
		if c := s.cycleOf(clientID); c != nil && c.holdsGate() {
			s.abort(c, err)
		}
		return err
	}

	switch packet.Kind {
	case models.KindAnnounce:
		s.announce(clientID)
		return nil
	case models.KindMetadata:
		return s.handleMetadata(clientID, packet)
	case models.KindClientUpload:
		return s.handleClientUpload(clientID, packet)
	case models.KindSyncUp, models.KindDifferenceReport, models.KindBroadcast:
		return fmt.Errorf("%w: %s is never sent to the server", ErrUnexpectedPacket, packet.Kind)
	default:
		return fmt.Errorf("%w: %q", codec.ErrUnknownPacketKind, packet.Kind)
	}
}

// announce starts a cycle for clientID unless one is already live.
func (s *Server) announce(clientID string) {
	session, ok := s.coord.Begin(clientID)
	if !ok {
		s.logger.Info().Str("client_id", clientID).Str("cycle_id", session.CycleID).
			Msg("announce ignored, cycle already in progress")
		return
	}

	ctx, cancel := context.WithCancel(s.ctx)
	c := &cycle{
		clientID:  clientID,
		cycleID:   session.CycleID,
		startedAt: s.clock.Now(),
		log:       s.logger.WithCycle(clientID, session.CycleID),
		ctx:       ctx,
		cancel:    cancel,
	}

	s.mu.Lock()
	s.cycles[clientID] = c
	s.mu.Unlock()

	s.wg.Add(1)
	go s.runCycle(c)
}

// runCycle waits for the gate and then asks the client for its metadata.
// The remaining steps are driven by the client's packets.
func (s *Server) runCycle(c *cycle) {
	defer s.wg.Done()
	defer func() {
		if r := recover(); r != nil {
			s.abort(c, fmt.Errorf("panic in sync cycle: %v", r))
		}
	}()

	gate := s.coord.Gate()
	s.notifier.Notify(fmt.Sprintf("Gate %s for client %s at request for sync up", gate.Status(), c.clientID))

	waitStart := s.clock.Now()
	if err := gate.Acquire(c.ctx); err != nil {
		c.log.Debug().Err(err).Msg("stopped waiting for the gate")
		s.end(c, OutcomeCancelled, err)
		return
	}
	s.metrics.ObserveGateWait(s.clock.Since(waitStart))

	c.mu.Lock()
	if c.ended {
		c.mu.Unlock()
		gate.Release()
		return
	}
	c.release = sync.OnceFunc(gate.Release)
	if s.cycleTimeout > 0 {
		c.timer = s.clock.AfterFunc(s.cycleTimeout, func() {
			s.abort(c, ErrCycleTimeout)
		})
	}
	c.mu.Unlock()

	s.notifier.Notify(fmt.Sprintf("Gate %s for client %s after waiting", gate.Status(), c.clientID))

	if !s.coord.Advance(c.clientID, c.cycleID, models.PhaseSyncRequested, models.PhaseAwaitingGate) {
		s.end(c, OutcomeCancelled, ErrNoSession)
		return
	}

	// The reply may be dispatched before send returns.
	if !s.coord.Advance(c.clientID, c.cycleID, models.PhaseAwaitingClientMetadata, models.PhaseSyncRequested) {
		s.end(c, OutcomeCancelled, ErrNoSession)
		return
	}

	c.log.Info().Msg("sending sync up")
	s.notifier.Notify(fmt.Sprintf("Sending SyncUp request to client %s", c.clientID))
	if err := send(s.comm, models.NewSyncPacket(models.KindSyncUp), c.clientID); err != nil {
		s.abort(c, err)
	}
}

// handleMetadata reconciles the client listing with the server directory and
// replies with the difference report and the files the client is missing.
func (s *Server) handleMetadata(clientID string, packet models.SyncPacket) error {
	c := s.cycleOf(clientID)
	if c == nil {
		return fmt.Errorf("%w: metadata from %s", ErrNoSession, clientID)
	}
	if !c.enter() {
		return fmt.Errorf("%w: metadata from %s", ErrNoSession, clientID)
	}
	defer c.leave()
	if !s.coord.Advance(clientID, c.cycleID, models.PhaseReconciling, models.PhaseAwaitingClientMetadata) {
		return fmt.Errorf("%w: metadata from %s outside its turn", ErrUnexpectedPacket, clientID)
	}

	if err := s.reconcile(c, packet); err != nil {
		s.abort(c, err)
		return err
	}
	return nil
}

func (s *Server) reconcile(c *cycle, packet models.SyncPacket) error {
	if len(packet.Payload) == 0 {
		return fmt.Errorf("%w: metadata", ErrEmptyPacket)
	}

	clientListing, err := codec.DecodeListing(packet.Payload[0])
	if err != nil {
		return err
	}
	c.log.Info().Int("files", len(clientListing)).Msg("metadata received from client")

	serverListing, err := s.scanner.Scan(s.store.Path())
	if err != nil {
		return err
	}

	result := metadata.Diff(serverListing, clientListing)
	c.log.Info().
		Strs("server_only", result.ServerOnly).
		Strs("client_only", result.ClientOnly).
		Strs("modified", result.Modified).
		Msg("directories compared")

	doc, err := codec.MarshalReport(result.Report)
	if err != nil {
		return err
	}
	if err = s.store.WriteFile(s.reportName, doc); err != nil {
		c.log.Err(err).Msg("failed to persist difference report")
		s.notifier.Notify(fmt.Sprintf("Error saving differences file: %v", err))
	} else {
		s.notifier.Notify(fmt.Sprintf("Differences file saved to %s", s.reportName))
	}

	entries := make([]models.FileEntry, 0, len(result.ServerOnly)+1)
	entries = append(entries, codec.EncodeReport(s.reportName, doc))
	for _, name := range result.ServerOnly {
		raw, err := s.store.ReadFile(name)
		if errors.Is(err, store.ErrFileNotFound) {
			c.log.Warn().Str("file", name).Msg("server file vanished after scan, skipping")
			continue
		}
		if err != nil {
			return err
		}

		entry, err := codec.Encode(name, raw)
		if err != nil {
			return err
		}
		entries = append(entries, entry)
	}

	if !s.coord.Advance(c.clientID, c.cycleID, models.PhaseAwaitingClientUpload, models.PhaseReconciling) {
		return ErrNoSession
	}

	s.notifier.Notify(fmt.Sprintf("Sending %d files to client and waiting to receive files from client %s", len(entries), c.clientID))
	if err = send(s.comm, models.NewSyncPacket(models.KindDifferenceReport, entries...), c.clientID); err != nil {
		if errors.Is(err, transport.ErrFrameTooLarge) {
			c.log.Error().Err(err).Int("files", len(entries)-1).Msg("difference report does not fit in one frame, raise the max message size")
		}
		return err
	}
	s.metrics.AddFilesTransferred(DirectionToClient, len(entries)-1)

	return nil
}

// handleClientUpload stores the client's files and broadcasts them to every
// connected client. The gate is released after the debounce delay.
func (s *Server) handleClientUpload(clientID string, packet models.SyncPacket) error {
	c := s.cycleOf(clientID)
	if c == nil {
		return fmt.Errorf("%w: upload from %s", ErrNoSession, clientID)
	}
	if !c.enter() {
		return fmt.Errorf("%w: upload from %s", ErrNoSession, clientID)
	}
	if !s.coord.Advance(clientID, c.cycleID, models.PhaseBroadcasting, models.PhaseAwaitingClientUpload) {
		c.leave()
		return fmt.Errorf("%w: upload from %s outside its turn", ErrUnexpectedPacket, clientID)
	}

	written, err := applyEntries(s.store, packet.Payload, "")
	c.leave()
	if err != nil {
		s.abort(c, err)
		return err
	}
	if c.ctx.Err() != nil {
		c.log.Warn().Int("files", written).Msg("cycle ended while storing client files, broadcast skipped")
		return fmt.Errorf("%w: upload from %s", ErrNoSession, clientID)
	}
	s.metrics.AddFilesTransferred(DirectionFromClient, written)
	c.log.Info().Int("files", written).Msg("client files stored")
	s.notifier.Notify(fmt.Sprintf("Successfully received %d files from client %s", written, clientID))

	broadcast := models.NewSyncPacket(models.KindBroadcast, packet.Payload...)

	s.wg.Add(1)
	go s.broadcast(c, broadcast, written)
	return nil
}

func (s *Server) broadcast(c *cycle, packet models.SyncPacket, files int) {
	defer s.wg.Done()
	defer func() {
		if r := recover(); r != nil {
			s.abort(c, fmt.Errorf("panic in broadcast: %v", r))
		}
	}()

	s.notifier.Notify("Broadcasting the new files")
	if err := send(s.comm, packet, ""); err != nil {
		c.log.Warn().Err(err).Msg("broadcast not delivered to every client")
	} else {
		s.metrics.AddFilesTransferred(DirectionBroadcast, files)
	}

	select {
	case <-s.clock.After(s.debounce):
	case <-c.ctx.Done():
	}

	s.end(c, OutcomeCompleted, nil)
}

// abort ends c because of err.
func (s *Server) abort(c *cycle, err error) {
	outcome := OutcomeAborted
	if errors.Is(err, ErrCycleTimeout) {
		outcome = OutcomeTimeout
	}
	s.end(c, outcome, err)
}

// end is the single terminal path of a cycle. It releases the gate if the
// cycle holds it and returns the client to idle. While a handler is still
// working in the server directory the release waits for it. Later calls are
// no-ops.
func (s *Server) end(c *cycle, outcome string, cause error) {
	c.mu.Lock()
	if c.ended {
		c.mu.Unlock()
		return
	}
	c.ended = true
	release, timer := c.release, c.timer
	if c.busy > 0 && release != nil {
		c.pendingRelease, release = release, nil
	}
	c.mu.Unlock()

	c.cancel()
	if timer != nil {
		timer.Stop()
	}

	s.coord.End(c.clientID, c.cycleID)

	s.mu.Lock()
	if s.cycles[c.clientID] == c {
		delete(s.cycles, c.clientID)
	}
	s.mu.Unlock()

	if release != nil {
		release()
	}

	s.metrics.ObserveCycle(outcome, s.clock.Since(c.startedAt))

	if cause == nil {
		c.log.Info().Str("outcome", outcome).Msg("sync cycle finished")
		s.notifier.Notify(fmt.Sprintf("Sync with client %s completed, gate %s", c.clientID, s.coord.Status()))
		return
	}
	c.log.Warn().Err(cause).Str("outcome", outcome).Msg("sync cycle aborted")
	s.notifier.Notify(fmt.Sprintf("Sync with client %s aborted: %v", c.clientID, cause))
}

func (s *Server) cycleOf(clientID string) *cycle {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cycles[clientID]
}

func (s *Server) recoverPanic(where string) {
	if r := recover(); r != nil {
		s.logger.Error().Interface("panic", r).Str("where", where).Msg("recovered from panic in handler")
		s.notifier.Notify(fmt.Sprintf("Internal error in %s: %v", where, r))
	}
}
