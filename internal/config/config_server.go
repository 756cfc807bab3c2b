// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package config

import (
	"fmt"
	"os"
	"time"

	"github.com/MKhiriev/go-lab-updater/internal/transport"
)

// TransportConfig is the validated WebSocket section.
type TransportConfig struct {
	WriteWait      time.Duration `validate:"gt=0s"`
	PongWait       time.Duration `validate:"gt=0s"`
	PingPeriod     time.Duration `validate:"gt=0s,ltfield=PongWait"`
	MaxMessageSize int64         `validate:"gt=0"`
	SendBuffer     int           `validate:"gt=0"`
}

// Options converts the section for the hub and the dialer.
func (t TransportConfig) Options() transport.Options {
	return transport.Options{
		WriteWait:      t.WriteWait,
		PongWait:       t.PongWait,
		PingPeriod:     t.PingPeriod,
		MaxMessageSize: t.MaxMessageSize,
		SendBuffer:     t.SendBuffer,
	}
}

// ServerConfig is the configuration of the server binary.
type ServerConfig struct {
	Version         string
	Address         string        `validate:"required,hostname_port"`
	Dir             string        `validate:"required"`
	ReportName      string        `validate:"required,excludesall=/\\"`
	Debounce        time.Duration `validate:"gte=0s"`
	CycleTimeout    time.Duration `validate:"gte=0s"`
	ShutdownTimeout time.Duration `validate:"gt=0s"`
	Transport       TransportConfig
}

// GetServerConfig builds and validates the server config from the process
// environment and arguments.
func GetServerConfig() (*ServerConfig, error) {
	return loadServerConfig(os.Args[1:])
}

func loadServerConfig(args []string) (*ServerConfig, error) {
	cfg, err := GetStructuredConfig(args)
	if err != nil {
		return nil, fmt.Errorf("error get structured config: %w", err)
	}

	serverCfg := &ServerConfig{
		Version:         cfg.App.Version,
		Address:         cfg.Server.Address,
		Dir:             cfg.Storage.Dir,
		ReportName:      cfg.Server.ReportName,
		Debounce:        cfg.Server.Debounce,
		CycleTimeout:    cfg.Server.CycleTimeout,
		ShutdownTimeout: cfg.Server.ShutdownTimeout,
		Transport:       transportConfig(cfg.Transport),
	}

	return serverCfg, serverCfg.validate()
}

func transportConfig(t Transport) TransportConfig {
	return TransportConfig{
		WriteWait:      t.WriteWait,
		PongWait:       t.PongWait,
		PingPeriod:     t.PingPeriod,
		MaxMessageSize: t.MaxMessageSize,
		SendBuffer:     t.SendBuffer,
	}
}
