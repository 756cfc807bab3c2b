// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package config

import (
	"time"
)

// StructuredConfig is the top-level configuration container shared by both
// binaries. It is populated by merging values from a .env file, environment
// variables, command-line flags, and an optional JSON file.
//
// Struct tags:
//   - envPrefix : prefix applied to all nested env tag lookups (caarlos0/env).
//   - env       : direct environment variable name for scalar fields.
type StructuredConfig struct {
	// App holds application-level settings.
	App App `envPrefix:"APP_"`

	// Server holds the listening address and sync cycle timings of the
	// server binary.
	Server Server `envPrefix:"SERVER_"`

	// Transport holds WebSocket timings shared by both sides.
	Transport Transport `envPrefix:"WS_"`

	// Adapter holds the client's view of the server.
	Adapter Adapter `envPrefix:"ADAPTER_"`

	// Storage holds the managed directory location.
	Storage Storage `envPrefix:"STORAGE_"`

	// Log holds the client's log file settings.
	Log Log `envPrefix:"LOG_"`

	// Workers holds configuration for background worker processes.
	Workers Workers `envPrefix:"WORKERS_"`

	// JSONFilePath is the optional path to a JSON configuration file.
	// Populated via the CONFIG environment variable or the -c / -config flag.
	JSONFilePath string `env:"CONFIG"`

	// StatusOnly makes the client print the server status and exit.
	// Flag only.
	StatusOnly bool
}

// App holds application-level configuration values.
type App struct {
	// Version is the semantic version string of the running application.
	// Exposed via the /api/version endpoint.
	// Env: APP_VERSION
	Version string `env:"VERSION"`
}

// Server holds network and cycle settings of the sync server.
type Server struct {
	// Address is the TCP address the HTTP server listens on, in
	// "host:port" format (e.g. "0.0.0.0:8080").
	// Env: SERVER_ADDRESS
	Address string `env:"ADDRESS"`

	// ReportName is the file name the difference report is persisted to
	// inside the managed directory.
	// Env: SERVER_REPORT_NAME
	ReportName string `env:"REPORT_NAME"`

	// Debounce is the pause between a broadcast and the gate release.
	// Env: SERVER_DEBOUNCE
	Debounce time.Duration `env:"DEBOUNCE"`

	// CycleTimeout bounds how long one cycle may hold the gate. Zero keeps
	// cycles unbounded.
	// Env: SERVER_CYCLE_TIMEOUT
	CycleTimeout time.Duration `env:"CYCLE_TIMEOUT"`

	// ShutdownTimeout bounds the graceful HTTP shutdown.
	// Env: SERVER_SHUTDOWN_TIMEOUT
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT"`
}

// Transport holds WebSocket connection settings.
type Transport struct {
	// Env: WS_WRITE_WAIT
	WriteWait time.Duration `env:"WRITE_WAIT"`
	// Env: WS_PONG_WAIT
	PongWait time.Duration `env:"PONG_WAIT"`
	// PingPeriod must be shorter than PongWait.
	// Env: WS_PING_PERIOD
	PingPeriod time.Duration `env:"PING_PERIOD"`
	// MaxMessageSize is the largest accepted frame in bytes.
	// Env: WS_MAX_MESSAGE_SIZE
	MaxMessageSize int64 `env:"MAX_MESSAGE_SIZE"`
	// SendBuffer is the number of frames queued per connection.
	// Env: WS_SEND_BUFFER
	SendBuffer int `env:"SEND_BUFFER"`
}

// Adapter holds the client's connection settings.
type Adapter struct {
	// ServerURL is the base URL of the sync server (e.g. "http://lab-srv:8080").
	// Env: ADAPTER_SERVER_URL
	ServerURL string `env:"SERVER_URL"`

	// RequestTimeout is the timeout of outbound HTTP requests and of the
	// WebSocket handshake.
	// Env: ADAPTER_REQUEST_TIMEOUT
	RequestTimeout time.Duration `env:"REQUEST_TIMEOUT"`
}

// Storage holds the managed directory location.
type Storage struct {
	// Dir is the flat directory of tool files kept in sync.
	// Env: STORAGE_DIR
	Dir string `env:"DIR"`
}

// Log holds rotating log file settings.
type Log struct {
	// Env: LOG_FILE
	File string `env:"FILE"`
	// Env: LOG_MAX_SIZE_MB
	MaxSizeMB int `env:"MAX_SIZE_MB"`
	// Env: LOG_MAX_BACKUPS
	MaxBackups int `env:"MAX_BACKUPS"`
	// Env: LOG_MAX_AGE_DAYS
	MaxAgeDays int `env:"MAX_AGE_DAYS"`
}

// Workers holds configuration for background worker processes.
type Workers struct {
	// AnnounceInterval is how often the client re-announces itself so a
	// failed cycle is retried. Zero disables the worker.
	// Env: WORKERS_ANNOUNCE_INTERVAL
	AnnounceInterval time.Duration `env:"ANNOUNCE_INTERVAL"`
}

// defaults fills every field that no source set.
func defaults() *StructuredConfig {
	return &StructuredConfig{
		Server: Server{
			Address:         "0.0.0.0:8080",
			ReportName:      "differences.xml",
			Debounce:        time.Second,
			ShutdownTimeout: 10 * time.Second,
		},
		Transport: Transport{
			WriteWait:      10 * time.Second,
			PongWait:       60 * time.Second,
			PingPeriod:     54 * time.Second,
			MaxMessageSize: 64 << 20,
			SendBuffer:     256,
		},
		Adapter: Adapter{
			ServerURL:      "http://localhost:8080",
			RequestTimeout: 30 * time.Second,
		},
		Storage: Storage{
			Dir: "tools",
		},
		Log: Log{
			MaxSizeMB:  10,
			MaxBackups: 5,
			MaxAgeDays: 30,
		},
		Workers: Workers{
			AnnounceInterval: 5 * time.Minute,
		},
	}
}

// GetStructuredConfig loads and merges the configuration from all available
// sources for the given command-line arguments.
func GetStructuredConfig(args []string) (*StructuredConfig, error) {
	return newConfigBuilder().
		withDotEnv(dotEnvPath()).
		withEnv().
		withFlags(args).
		withJSON().
		build()
}
