// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package transport

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"slices"
	"sync"

	"github.com/MKhiriev/go-lab-updater/internal/logger"
	"github.com/gorilla/websocket"
)

// DefaultPath is the HTTP route the hub is mounted on.
const DefaultPath = "/ws"

type eventKind int

const (
	eventData eventKind = iota
	eventLeft
)

type event struct {
	kind     eventKind
	clientID string
	envelope Envelope
}

// Hub is the server-side [Communicator]. It upgrades HTTP requests to
// WebSocket connections and routes their frames to subscribed handlers from a
// single dispatch goroutine.
type Hub struct {
	opts     Options
	logger   *logger.Logger
	upgrader websocket.Upgrader

	mu       sync.RWMutex
	handlers map[string]Handler
	clients  map[string]*peer
	running  bool

	events chan event
	stop   chan struct{}
	wg     sync.WaitGroup
}

// NewHub returns a stopped hub.
func NewHub(opts Options, log *logger.Logger) *Hub {
	return &Hub{
		opts:   opts.withDefaults(),
		logger: log,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
		handlers: make(map[string]Handler),
		clients:  make(map[string]*peer),
	}
}

// Start launches the dispatch loop. The hub stops on its own when ctx is done.
func (h *Hub) Start(ctx context.Context, address string) (string, error) {
	h.mu.Lock()
	if h.running {
		h.mu.Unlock()
		return "", errors.New("hub already started")
	}
	h.running = true
	h.events = make(chan event, h.opts.SendBuffer)
	h.stop = make(chan struct{})
	events, stop := h.events, h.stop
	h.mu.Unlock()

	h.wg.Add(1)
	go func() {
		defer h.wg.Done()
		h.dispatch(events, stop)
	}()
	go func() {
		select {
		case <-ctx.Done():
			_ = h.Stop()
		case <-stop:
		}
	}()

	endpoint := fmt.Sprintf("ws://%s%s", address, DefaultPath)
	h.logger.Info().Str("endpoint", endpoint).Msg("websocket hub started")
	return endpoint, nil
}

// Stop closes every client connection and waits for the dispatch loop.
func (h *Hub) Stop() error {
	h.mu.Lock()
	if !h.running {
		h.mu.Unlock()
		return nil
	}
	h.running = false
	close(h.stop)
	peers := make([]*peer, 0, len(h.clients))
	for _, p := range h.clients {
		peers = append(peers, p)
	}
	h.mu.Unlock()

	for _, p := range peers {
		p.shutdown()
	}

	h.wg.Wait()
	h.logger.Info().Msg("websocket hub stopped")
	return nil
}

func (h *Hub) Subscribe(module string, handler Handler) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.handlers[module] = handler
}

// AddClient binds a connection handed out by OnClientJoined to clientID.
func (h *Hub) AddClient(clientID string, conn Conn) {
	p, ok := conn.(*peer)
	if !ok {
		h.logger.Error().Str("client_id", clientID).Msgf("unsupported connection type %T", conn)
		return
	}

	p.bind(clientID)

	h.mu.Lock()
	h.clients[clientID] = p
	h.mu.Unlock()

	h.logger.Info().Str("client_id", clientID).Str("remote", p.RemoteAddr()).Msg("client registered")
}

// Send queues data on one client or, with an empty clientID, on all of them.
func (h *Hub) Send(data []byte, module, clientID string) error {
	frame, err := marshalEnvelope(module, data, h.opts.MaxMessageSize)
	if err != nil {
		return err
	}

	h.mu.RLock()
	if !h.running {
		h.mu.RUnlock()
		return ErrNotStarted
	}
	var targets []*peer
	if clientID == "" {
		targets = make([]*peer, 0, len(h.clients))
		for _, p := range h.clients {
			targets = append(targets, p)
		}
	} else if p, ok := h.clients[clientID]; ok {
		targets = []*peer{p}
	}
	h.mu.RUnlock()

	if clientID != "" && len(targets) == 0 {
		return fmt.Errorf("%w: %s", ErrUnknownClient, clientID)
	}

	var errs []error
	for _, p := range targets {
		if err = p.enqueue(frame); err != nil {
			if errors.Is(err, ErrSendBufferFull) {
				h.logger.Warn().Str("client_id", p.ID()).Msg("client send buffer full, closing connection")
				p.shutdown()
			}
			errs = append(errs, fmt.Errorf("client %s: %w", p.ID(), err))
		}
	}
	return errors.Join(errs...)
}

// Clients returns the IDs of connected clients in lexicographic order.
func (h *Hub) Clients() []string {
	h.mu.RLock()
	ids := make([]string, 0, len(h.clients))
	for id := range h.clients {
		ids = append(ids, id)
	}
	h.mu.RUnlock()

	slices.Sort(ids)
	return ids
}

// ServeHTTP upgrades the request and runs the connection until it closes.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mu.RLock()
	running, events, stop := h.running, h.events, h.stop
	h.mu.RUnlock()
	if !running {
		http.Error(w, ErrNotStarted.Error(), http.StatusServiceUnavailable)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Err(err).Msg("failed to upgrade connection")
		return
	}

	p := newPeer(conn, h.opts)
	for _, handler := range h.subscribers() {
		handler.OnClientJoined(p)
	}

	clientID := p.ID()
	if clientID == "" {
		h.logger.Warn().Str("remote", p.RemoteAddr()).Msg("no handler accepted the connection, closing")
		p.shutdown()
		return
	}

	go p.writePump()

	err = p.readPump(func(frame []byte) {
		env, err := unmarshalEnvelope(frame)
		if err != nil {
			h.logger.Warn().Err(err).Str("client_id", clientID).Msg("dropping malformed frame")
			return
		}
		select {
		case events <- event{kind: eventData, clientID: clientID, envelope: env}:
		case <-stop:
		}
	})
	if err != nil {
		h.logger.Warn().Err(err).Str("client_id", clientID).Msg("connection closed unexpectedly")
	}

	h.mu.Lock()
	if h.clients[clientID] == p {
		delete(h.clients, clientID)
	}
	h.mu.Unlock()

	select {
	case events <- event{kind: eventLeft, clientID: clientID}:
	case <-stop:
	}
}

func (h *Hub) subscribers() []Handler {
	h.mu.RLock()
	defer h.mu.RUnlock()

	out := make([]Handler, 0, len(h.handlers))
	for _, handler := range h.handlers {
		out = append(out, handler)
	}
	return out
}

func (h *Hub) handler(module string) (Handler, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	handler, ok := h.handlers[module]
	return handler, ok
}

func (h *Hub) dispatch(events <-chan event, stop <-chan struct{}) {
	for {
		select {
		case <-stop:
			return

		case ev := <-events:
			switch ev.kind {
			case eventData:
				handler, ok := h.handler(ev.envelope.Module)
				if !ok {
					h.logger.Warn().Str("module", ev.envelope.Module).Str("client_id", ev.clientID).
						Msg("no handler subscribed for module")
					continue
				}
				handler.OnDataReceived(ev.clientID, ev.envelope.Data)

			case eventLeft:
				h.logger.Info().Str("client_id", ev.clientID).Msg("client left")
				for _, handler := range h.subscribers() {
					handler.OnClientLeft(ev.clientID)
				}
			}
		}
	}
}
