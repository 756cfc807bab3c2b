// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package config

import (
	"fmt"
	"os"
	"time"
)

// ClientLog holds the rotating log file settings of the client.
type ClientLog struct {
	// File is the log file path. Empty selects the default next to the
	// executable.
	File       string
	MaxSizeMB  int `validate:"gt=0"`
	MaxBackups int `validate:"gte=0"`
	MaxAgeDays int `validate:"gte=0"`
}

// ClientConfig is the configuration of the client binary.
type ClientConfig struct {
	// ServerURL is the base http(s) URL of the sync server.
	ServerURL string `validate:"required,http_url"`
	// Dir is the managed directory.
	Dir string `validate:"required"`
	// RequestTimeout bounds status requests and the WebSocket handshake.
	RequestTimeout time.Duration `validate:"gt=0s"`
	// AnnounceInterval is the re-announce period. Zero disables it.
	AnnounceInterval time.Duration `validate:"gte=0s"`
	// ReportName is the server's difference report file name. A local file
	// with that name is never listed or uploaded.
	ReportName string `validate:"required,excludesall=/\\"`
	// StatusOnly prints the server status and exits.
	StatusOnly bool

	Log       ClientLog
	Transport TransportConfig
}

// GetClientConfig builds and validates the client config from the process
// environment and arguments.
func GetClientConfig() (*ClientConfig, error) {
	return loadClientConfig(os.Args[1:])
}

func loadClientConfig(args []string) (*ClientConfig, error) {
	cfg, err := GetStructuredConfig(args)
	if err != nil {
		return nil, fmt.Errorf("error get structured config: %w", err)
	}

	clientCfg := &ClientConfig{
		ServerURL:        cfg.Adapter.ServerURL,
		Dir:              cfg.Storage.Dir,
		RequestTimeout:   cfg.Adapter.RequestTimeout,
		AnnounceInterval: cfg.Workers.AnnounceInterval,
		ReportName:       cfg.Server.ReportName,
		StatusOnly:       cfg.StatusOnly,
		Log: ClientLog{
			File:       cfg.Log.File,
			MaxSizeMB:  cfg.Log.MaxSizeMB,
			MaxBackups: cfg.Log.MaxBackups,
			MaxAgeDays: cfg.Log.MaxAgeDays,
		},
		Transport: transportConfig(cfg.Transport),
	}

	return clientCfg, clientCfg.validate()
}
