// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package protocol

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/MKhiriev/go-lab-updater/internal/codec"
	"github.com/MKhiriev/go-lab-updater/internal/transport"
	"github.com/MKhiriev/go-lab-updater/models"
)

// inbox runs posted deliveries one at a time, in order.
type inbox struct {
	ch   chan func()
	once sync.Once
}

func newInbox() *inbox {
	ib := &inbox{ch: make(chan func(), 1024)}
	go func() {
		for f := range ib.ch {
			f()
		}
	}()
	return ib
}

func (ib *inbox) post(f func()) {
	defer func() { _ = recover() }()
	ib.ch <- f
}

func (ib *inbox) close() {
	ib.once.Do(func() { close(ib.ch) })
}

type sentPacket struct {
	kind   models.PacketKind
	target string
	names  []string
}

// memServer is an in-memory server-side communicator.
type memServer struct {
	mu      sync.Mutex
	handler transport.Handler
	clients map[string]*memClient
	inbox   *inbox
	sent    []sentPacket
}

func newMemServer() *memServer {
	return &memServer{clients: make(map[string]*memClient), inbox: newInbox()}
}

func (s *memServer) Start(context.Context, string) (string, error) { return "mem://server", nil }

func (s *memServer) Stop() error {
	s.inbox.close()
	return nil
}

func (s *memServer) Subscribe(_ string, h transport.Handler) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.handler = h
}

func (s *memServer) AddClient(clientID string, conn transport.Conn) {
	c := conn.(*memClient)
	c.id.Store(clientID)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.clients[clientID] = c
}

func (s *memServer) Send(data []byte, _ string, clientID string) error {
	payload := append([]byte(nil), data...)
	s.record(payload, clientID)

	s.mu.Lock()
	var targets []*memClient
	if clientID == "" {
		for _, c := range s.clients {
			targets = append(targets, c)
		}
	} else if c, ok := s.clients[clientID]; ok {
		targets = append(targets, c)
	}
	s.mu.Unlock()

	if clientID != "" && len(targets) == 0 {
		return fmt.Errorf("%w: %s", transport.ErrUnknownClient, clientID)
	}
	for _, c := range targets {
		c.deliver(payload)
	}
	return nil
}

func (s *memServer) record(data []byte, target string) {
	p, err := codec.UnmarshalPacket(data)
	if err != nil {
		return
	}
	names := make([]string, 0, len(p.Payload))
	for _, e := range p.Payload {
		names = append(names, e.Name)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.sent = append(s.sent, sentPacket{kind: p.Kind, target: target, names: names})
}

func (s *memServer) sentPackets() []sentPacket {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]sentPacket(nil), s.sent...)
}

func (s *memServer) connect(c *memClient) {
	s.mu.Lock()
	h := s.handler
	s.mu.Unlock()
	h.OnClientJoined(c)
}

func (s *memServer) disconnect(c *memClient) {
	id := c.ID()

	s.mu.Lock()
	delete(s.clients, id)
	h := s.handler
	s.mu.Unlock()

	s.inbox.post(func() { h.OnClientLeft(id) })
}

func (s *memServer) fromClient(clientID string, data []byte) {
	s.mu.Lock()
	h := s.handler
	s.mu.Unlock()
	s.inbox.post(func() { h.OnDataReceived(clientID, data) })
}

// memClient is an in-memory client-side communicator and the server's view
// of its connection.
type memClient struct {
	server *memServer
	name   string
	id     atomic.Value

	mu      sync.Mutex
	handler transport.Handler
	inbox   *inbox
}

func newMemClient(server *memServer, name string) *memClient {
	c := &memClient{server: server, name: name, inbox: newInbox()}
	c.id.Store("")
	return c
}

func (c *memClient) ID() string { return c.id.Load().(string) }

func (c *memClient) RemoteAddr() string { return c.name }

func (c *memClient) Close() error { return nil }

func (c *memClient) Start(context.Context, string) (string, error) {
	c.server.connect(c)

	c.mu.Lock()
	h := c.handler
	c.mu.Unlock()
	if h != nil {
		h.OnClientJoined(c)
	}
	return "mem://" + c.name, nil
}

func (c *memClient) Stop() error {
	c.server.disconnect(c)
	c.inbox.close()
	return nil
}

func (c *memClient) Subscribe(_ string, h transport.Handler) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.handler = h
}

func (c *memClient) AddClient(string, transport.Conn) {}

func (c *memClient) Send(data []byte, _ string, _ string) error {
	c.server.fromClient(c.ID(), append([]byte(nil), data...))
	return nil
}

func (c *memClient) deliver(data []byte) {
	c.mu.Lock()
	h := c.handler
	c.mu.Unlock()
	if h == nil {
		return
	}
	c.inbox.post(func() { h.OnDataReceived(transport.ServerID, data) })
}

// recordingNotifier keeps every status message.
type recordingNotifier struct {
	mu       sync.Mutex
	messages []string
}

func (n *recordingNotifier) Notify(message string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.messages = append(n.messages, message)
}

func (n *recordingNotifier) all() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]string(nil), n.messages...)
}

// recordingMetrics keeps every observation.
type recordingMetrics struct {
	mu        sync.Mutex
	outcomes  []string
	transfers map[string]int
	clients   int
	gateWaits int
}

func newRecordingMetrics() *recordingMetrics {
	return &recordingMetrics{transfers: make(map[string]int)}
}

func (m *recordingMetrics) ObserveGateWait(time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.gateWaits++
}

func (m *recordingMetrics) ObserveCycle(outcome string, _ time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.outcomes = append(m.outcomes, outcome)
}

func (m *recordingMetrics) SetConnectedClients(n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.clients = n
}

func (m *recordingMetrics) AddFilesTransferred(direction string, n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.transfers[direction] += n
}

func (m *recordingMetrics) outcomeList() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.outcomes...)
}

func (m *recordingMetrics) transferred(direction string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.transfers[direction]
}

func (m *recordingMetrics) connected() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.clients
}
