// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package config

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"net"
	"strconv"
	"strings"
	"time"
)

// NetAddress holds structured network address data for host and port.
// It implements the flag.Value interface.
type NetAddress struct {
	Host string
	Port int
}

// parseFlags parses the configuration flags in args.
//
// Flags:
//
//	-a server listen address in format [host]:[port]
//	-s server base URL for the client (e.g. http://lab-srv:8080)
//	-d managed directory
//	-report difference report file name
//	-debounce pause between broadcast and gate release (e.g. "1s")
//	-cycle-timeout bound on a gated cycle, 0 disables
//	-shutdown-timeout graceful shutdown bound
//	-request-timeout client request timeout (e.g. "30s")
//	-announce-interval client re-announce period, 0 disables
//	-log-file client log file path
//	-c/-config json file path with configs
//	-status print the server status and exit (client)
func parseFlags(args []string) (*StructuredConfig, error) {
	var address NetAddress
	var serverURL string
	var dir string
	var reportName string
	var debounce time.Duration
	var cycleTimeout time.Duration
	var shutdownTimeout time.Duration
	var requestTimeout time.Duration
	var announceInterval time.Duration
	var logFile string
	var jsonConfigPath string
	var statusOnly bool

	fs := flag.NewFlagSet("updater", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	fs.Var(&address, "a", "Net address host:port")
	fs.StringVar(&serverURL, "s", "", "Server base URL")
	fs.StringVar(&dir, "d", "", "Managed directory")
	fs.StringVar(&reportName, "report", "", "Difference report file name")
	fs.DurationVar(&debounce, "debounce", 0, "Pause before the gate is released (e.g., 1s)")
	fs.DurationVar(&cycleTimeout, "cycle-timeout", 0, "Sync cycle timeout, 0 disables")
	fs.DurationVar(&shutdownTimeout, "shutdown-timeout", 0, "Graceful shutdown timeout")
	fs.DurationVar(&requestTimeout, "request-timeout", 0, "Request timeout (e.g., 30s, 1m)")
	fs.DurationVar(&announceInterval, "announce-interval", 0, "Re-announce interval, 0 disables")
	fs.StringVar(&logFile, "log-file", "", "Log file path")
	fs.StringVar(&jsonConfigPath, "c", "", "JSON config file path")
	fs.StringVar(&jsonConfigPath, "config", "", "JSON config file path (alias)")
	fs.BoolVar(&statusOnly, "status", false, "Print the server status and exit")

	if err := fs.Parse(args); err != nil {
		return nil, fmt.Errorf("error parsing flags: %w", err)
	}

	return &StructuredConfig{
		Server: Server{
			Address:         address.String(),
			ReportName:      reportName,
			Debounce:        debounce,
			CycleTimeout:    cycleTimeout,
			ShutdownTimeout: shutdownTimeout,
		},
		Adapter: Adapter{
			ServerURL:      serverURL,
			RequestTimeout: requestTimeout,
		},
		Storage:      Storage{Dir: dir},
		Log:          Log{File: logFile},
		Workers:      Workers{AnnounceInterval: announceInterval},
		JSONFilePath: jsonConfigPath,
		StatusOnly:   statusOnly,
	}, nil
}

// String returns a canonical host:port string for a NetAddress.
// If neither Host nor Port are set, it returns an empty string.
func (a *NetAddress) String() string {
	if a.Host == "" && a.Port == 0 {
		return ""
	}

	return a.Host + ":" + strconv.Itoa(a.Port)
}

// Set parses the input string of form host:port and populates the NetAddress.
// It validates the port range, checks IP correctness unless host is
// "localhost" or empty, and returns an error if the format or values are
// invalid.
func (a *NetAddress) Set(s string) error {
	hostAndPort := strings.Split(s, ":")
	if len(hostAndPort) != 2 {
		return errors.New("need address in a form `host:port`")
	}

	host := hostAndPort[0]
	port, err := strconv.Atoi(hostAndPort[1])
	if err != nil {
		return err
	}

	if port < 1 || port > 65535 {
		return errors.New("port number must be in range 1-65535")
	}

	if host != "localhost" && host != "" {
		ip := net.ParseIP(host)
		if ip == nil {
			return errors.New("incorrect IP-address provided")
		}
	}

	a.Host = host
	a.Port = port
	return nil
}
