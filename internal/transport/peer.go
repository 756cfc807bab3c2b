// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package transport

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// peer owns one WebSocket connection and its outbound queue.
type peer struct {
	conn *websocket.Conn
	opts Options
	send chan []byte

	mu sync.RWMutex
	id string

	done      chan struct{}
	closeOnce sync.Once
}

func newPeer(conn *websocket.Conn, opts Options) *peer {
	return &peer{
		conn: conn,
		opts: opts,
		send: make(chan []byte, opts.SendBuffer),
		done: make(chan struct{}),
	}
}

func (p *peer) RemoteAddr() string {
	return p.conn.RemoteAddr().String()
}

func (p *peer) Close() error {
	p.shutdown()
	return nil
}

func (p *peer) ID() string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.id
}

func (p *peer) bind(id string) {
	p.mu.Lock()
	p.id = id
	p.mu.Unlock()
}

func (p *peer) shutdown() {
	p.closeOnce.Do(func() {
		close(p.done)
		_ = p.conn.Close()
	})
}

func (p *peer) enqueue(frame []byte) error {
	select {
	case <-p.done:
		return ErrConnectionClosed
	default:
	}

	select {
	case p.send <- frame:
		return nil
	case <-p.done:
		return ErrConnectionClosed
	default:
		return ErrSendBufferFull
	}
}

// readPump blocks until the connection fails, passing every frame to onFrame.
func (p *peer) readPump(onFrame func([]byte)) error {
	defer p.shutdown()

	p.conn.SetReadLimit(p.opts.MaxMessageSize)
	_ = p.conn.SetReadDeadline(time.Now().Add(p.opts.PongWait))
	p.conn.SetPongHandler(func(string) error {
		return p.conn.SetReadDeadline(time.Now().Add(p.opts.PongWait))
	})

	for {
		_, message, err := p.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				return err
			}
			return nil
		}
		onFrame(message)
	}
}

// writePump drains the send queue and keeps the connection alive with pings.
func (p *peer) writePump() {
	ticker := time.NewTicker(p.opts.PingPeriod)
	defer func() {
		ticker.Stop()
		p.shutdown()
	}()

	for {
		select {
		case <-p.done:
			return

		case message := <-p.send:
			_ = p.conn.SetWriteDeadline(time.Now().Add(p.opts.WriteWait))
			if err := p.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			_ = p.conn.SetWriteDeadline(time.Now().Add(p.opts.WriteWait))
			if err := p.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
