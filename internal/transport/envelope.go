// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package transport

import (
	"encoding/json"
	"fmt"
	"time"
)

// Envelope is the JSON frame written on the wire. Data is the module's own
// JSON document, embedded as is.
type Envelope struct {
	Module string          `json:"module"`
	Data   json.RawMessage `json:"data"`
}

func marshalEnvelope(module string, data []byte, limit int64) ([]byte, error) {
	frame, err := json.Marshal(Envelope{Module: module, Data: data})
	if err != nil {
		return nil, fmt.Errorf("marshal frame: %w", err)
	}
	if limit > 0 && int64(len(frame)) > limit {
		return nil, fmt.Errorf("%w: %d bytes, limit %d", ErrFrameTooLarge, len(frame), limit)
	}
	return frame, nil
}

func unmarshalEnvelope(frame []byte) (Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(frame, &env); err != nil {
		return Envelope{}, fmt.Errorf("unmarshal frame: %w", err)
	}
	return env, nil
}

// Options tunes connection keep-alive and buffering.
type Options struct {
	WriteWait      time.Duration
	PongWait       time.Duration
	PingPeriod     time.Duration
	MaxMessageSize int64
	SendBuffer     int
}

// DefaultOptions mirror the gorilla/websocket chat example timings. Tool
// archives can be large, so frames up to 64 MiB are accepted.
func DefaultOptions() Options {
	return Options{
		WriteWait:      10 * time.Second,
		PongWait:       60 * time.Second,
		PingPeriod:     54 * time.Second,
		MaxMessageSize: 64 << 20,
		SendBuffer:     256,
	}
}

func (o Options) withDefaults() Options {
	def := DefaultOptions()
	if o.WriteWait <= 0 {
		o.WriteWait = def.WriteWait
	}
	if o.PongWait <= 0 {
		o.PongWait = def.PongWait
	}
	if o.PingPeriod <= 0 || o.PingPeriod >= o.PongWait {
		o.PingPeriod = o.PongWait * 9 / 10
	}
	if o.MaxMessageSize <= 0 {
		o.MaxMessageSize = def.MaxMessageSize
	}
	if o.SendBuffer <= 0 {
		o.SendBuffer = def.SendBuffer
	}
	return o
}
