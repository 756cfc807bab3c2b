// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package transport

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"sync"

	"github.com/MKhiriev/go-lab-updater/internal/logger"
	"github.com/gorilla/websocket"
)

// Dialer is the client-side [Communicator]. It keeps one connection to the
// server and reports the server as peer [ServerID].
type Dialer struct {
	opts   Options
	logger *logger.Logger
	dialer *websocket.Dialer

	mu       sync.RWMutex
	handlers map[string]Handler
	peer     *peer

	wg sync.WaitGroup
}

// NewDialer returns a disconnected Dialer.
func NewDialer(opts Options, log *logger.Logger) *Dialer {
	return &Dialer{
		opts:     opts.withDefaults(),
		logger:   log,
		dialer:   websocket.DefaultDialer,
		handlers: make(map[string]Handler),
	}
}

// Start dials address, which may be a bare host:port or a ws/http URL, and
// returns the URL actually used.
func (d *Dialer) Start(ctx context.Context, address string) (string, error) {
	endpoint, err := EndpointURL(address)
	if err != nil {
		return "", err
	}

	d.mu.Lock()
	if d.peer != nil {
		d.mu.Unlock()
		return "", errors.New("dialer already started")
	}
	d.mu.Unlock()

	conn, _, err := d.dialer.DialContext(ctx, endpoint, nil)
	if err != nil {
		return "", fmt.Errorf("dial %s: %w", endpoint, err)
	}

	p := newPeer(conn, d.opts)
	p.bind(ServerID)

	d.mu.Lock()
	d.peer = p
	d.mu.Unlock()

	for _, h := range d.subscribers() {
		h.OnClientJoined(p)
	}

	d.wg.Add(2)
	go func() {
		defer d.wg.Done()
		p.writePump()
	}()
	go func() {
		defer d.wg.Done()
		d.readLoop(p)
	}()

	d.logger.Info().Str("endpoint", endpoint).Msg("connected to server")
	return endpoint, nil
}

// Stop closes the connection and waits for its pumps to exit.
func (d *Dialer) Stop() error {
	d.mu.RLock()
	p := d.peer
	d.mu.RUnlock()

	if p != nil {
		p.shutdown()
	}
	d.wg.Wait()
	return nil
}

// Done is closed once the connection to the server is gone.
func (d *Dialer) Done() <-chan struct{} {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.peer == nil {
		closed := make(chan struct{})
		close(closed)
		return closed
	}
	return d.peer.done
}

// Send queues data for the server. clientID is ignored.
func (d *Dialer) Send(data []byte, module, _ string) error {
	d.mu.RLock()
	p := d.peer
	d.mu.RUnlock()
	if p == nil {
		return ErrNotStarted
	}

	frame, err := marshalEnvelope(module, data, d.opts.MaxMessageSize)
	if err != nil {
		return err
	}
	return p.enqueue(frame)
}

func (d *Dialer) Subscribe(module string, h Handler) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.handlers[module] = h
}

// AddClient is a no-op: a client only ever talks to the server.
func (d *Dialer) AddClient(string, Conn) {}

func (d *Dialer) readLoop(p *peer) {
	err := p.readPump(func(frame []byte) {
		env, err := unmarshalEnvelope(frame)
		if err != nil {
			d.logger.Warn().Err(err).Msg("dropping malformed frame")
			return
		}

		d.mu.RLock()
		h, ok := d.handlers[env.Module]
		d.mu.RUnlock()
		if !ok {
			d.logger.Warn().Str("module", env.Module).Msg("no handler subscribed for module")
			return
		}
		h.OnDataReceived(ServerID, env.Data)
	})
	if err != nil {
		d.logger.Warn().Err(err).Msg("server connection closed unexpectedly")
	}

	for _, h := range d.subscribers() {
		h.OnClientLeft(ServerID)
	}
}

func (d *Dialer) subscribers() []Handler {
	d.mu.RLock()
	defer d.mu.RUnlock()

	out := make([]Handler, 0, len(d.handlers))
	for _, h := range d.handlers {
		out = append(out, h)
	}
	return out
}

// EndpointURL turns a configured server address into a WebSocket URL.
func EndpointURL(address string) (string, error) {
	address = strings.TrimSpace(address)
	if address == "" {
		return "", errors.New("empty server address")
	}
	if !strings.Contains(address, "://") {
		address = "ws://" + address
	}

	u, err := url.Parse(address)
	if err != nil {
		return "", fmt.Errorf("parse server address: %w", err)
	}

	switch u.Scheme {
	case "ws", "wss":
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	default:
		return "", fmt.Errorf("unsupported scheme %q", u.Scheme)
	}
	if u.Host == "" {
		return "", fmt.Errorf("server address %q has no host", address)
	}
	if u.Path == "" || u.Path == "/" {
		u.Path = DefaultPath
	}

	return u.String(), nil
}
