// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package config

import (
	"encoding/json"
	"fmt"
	"os"
	"time"
)

// StructuredJSONConfig is the on-disk layout of the JSON config file.
type StructuredJSONConfig struct {
	App struct {
		Version string `json:"version"`
	} `json:"app,omitempty"`

	Server struct {
		Address         string   `json:"address"`
		ReportName      string   `json:"report_name"`
		Debounce        Duration `json:"debounce"`
		CycleTimeout    Duration `json:"cycle_timeout"`
		ShutdownTimeout Duration `json:"shutdown_timeout"`
	} `json:"server,omitempty"`

	Transport struct {
		WriteWait      Duration `json:"write_wait"`
		PongWait       Duration `json:"pong_wait"`
		PingPeriod     Duration `json:"ping_period"`
		MaxMessageSize int64    `json:"max_message_size"`
		SendBuffer     int      `json:"send_buffer"`
	} `json:"websocket,omitempty"`

	Adapter struct {
		ServerURL      string   `json:"server_url"`
		RequestTimeout Duration `json:"request_timeout"`
	} `json:"adapter,omitempty"`

	Storage struct {
		Dir string `json:"dir"`
	} `json:"storage,omitempty"`

	Log struct {
		File       string `json:"file"`
		MaxSizeMB  int    `json:"max_size_mb"`
		MaxBackups int    `json:"max_backups"`
		MaxAgeDays int    `json:"max_age_days"`
	} `json:"log,omitempty"`

	Workers struct {
		AnnounceInterval Duration `json:"announce_interval"`
	} `json:"workers,omitempty"`
}

func parseJSON(jsonFilePath string) (*StructuredConfig, error) {
	jsonFile, err := os.Open(jsonFilePath)
	if err != nil {
		return nil, fmt.Errorf("error reading a json file: %w", err)
	}
	defer jsonFile.Close()

	var jsonCfg StructuredJSONConfig
	if err := json.NewDecoder(jsonFile).Decode(&jsonCfg); err != nil {
		return nil, fmt.Errorf("error decoding json configs: %w", err)
	}

	cfg := &StructuredConfig{
		App: App{
			Version: jsonCfg.App.Version,
		},
		Server: Server{
			Address:         jsonCfg.Server.Address,
			ReportName:      jsonCfg.Server.ReportName,
			Debounce:        time.Duration(jsonCfg.Server.Debounce),
			CycleTimeout:    time.Duration(jsonCfg.Server.CycleTimeout),
			ShutdownTimeout: time.Duration(jsonCfg.Server.ShutdownTimeout),
		},
		Transport: Transport{
			WriteWait:      time.Duration(jsonCfg.Transport.WriteWait),
			PongWait:       time.Duration(jsonCfg.Transport.PongWait),
			PingPeriod:     time.Duration(jsonCfg.Transport.PingPeriod),
			MaxMessageSize: jsonCfg.Transport.MaxMessageSize,
			SendBuffer:     jsonCfg.Transport.SendBuffer,
		},
		Adapter: Adapter{
			ServerURL:      jsonCfg.Adapter.ServerURL,
			RequestTimeout: time.Duration(jsonCfg.Adapter.RequestTimeout),
		},
		Storage: Storage{
			Dir: jsonCfg.Storage.Dir,
		},
		Log: Log{
			File:       jsonCfg.Log.File,
			MaxSizeMB:  jsonCfg.Log.MaxSizeMB,
			MaxBackups: jsonCfg.Log.MaxBackups,
			MaxAgeDays: jsonCfg.Log.MaxAgeDays,
		},
		Workers: Workers{
			AnnounceInterval: time.Duration(jsonCfg.Workers.AnnounceInterval),
		},
	}

	return cfg, nil
}

// Duration is a wrapper around time.Duration that supports JSON unmarshaling from strings like "1h", "30s"
type Duration time.Duration

func (d *Duration) UnmarshalJSON(b []byte) error {
	var v interface{}
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}

	switch value := v.(type) {
	case float64:
		*d = Duration(time.Duration(value))
		return nil
	case string:
		tmp, err := time.ParseDuration(value)
		if err != nil {
			return err
		}
		*d = Duration(tmp)
		return nil
	default:
		return json.Unmarshal(b, (*time.Duration)(d))
	}
}

func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Duration(d).String())
}
