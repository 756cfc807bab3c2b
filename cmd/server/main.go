// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package main

import (
	"fmt"

	"github.com/MKhiriev/go-lab-updater/internal/config"
	"github.com/MKhiriev/go-lab-updater/internal/coordinator"
	handler "github.com/MKhiriev/go-lab-updater/internal/handler/http"
	"github.com/MKhiriev/go-lab-updater/internal/logger"
	"github.com/MKhiriev/go-lab-updater/internal/metrics"
	"github.com/MKhiriev/go-lab-updater/internal/protocol"
	"github.com/MKhiriev/go-lab-updater/internal/server"
	"github.com/MKhiriev/go-lab-updater/internal/store"
	"github.com/MKhiriev/go-lab-updater/internal/transport"
	"github.com/MKhiriev/go-lab-updater/models"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/afero"
)

var (
	buildVersion string
	buildDate    string
	buildCommit  string
)

func main() {
	buildInfo := models.NewAppBuildInfo(buildVersion, buildDate, buildCommit)
	fmt.Print(buildInfo)

	log := logger.NewLogger("lab-updater-server")
	cfg, err := config.GetServerConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("error getting configs")
	}
	if cfg.Version == "" {
		cfg.Version = buildInfo.BuildVersion()
	}

	log.Debug().Any("config", cfg).Msg("received configs")

	dir, err := store.NewDirectoryStore(afero.NewOsFs(), cfg.Dir)
	if err != nil {
		log.Fatal().Err(err).Msg("error creating directory store")
	}
	if err = dir.EnsureDir(); err != nil {
		log.Fatal().Err(err).Msg("error preparing managed directory")
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	hub := transport.NewHub(cfg.Transport.Options(), log)
	syncServer := protocol.NewServer(hub, coordinator.New(), dir, log,
		protocol.WithReportName(cfg.ReportName),
		protocol.WithDebounce(cfg.Debounce),
		protocol.WithCycleTimeout(cfg.CycleTimeout),
		protocol.WithMetrics(metrics.NewSync(registry)),
		protocol.WithServerNotifier(protocol.NewLogNotifier(log)),
	)

	h, err := handler.NewHandler(syncServer, hub,
		promhttp.HandlerFor(registry, promhttp.HandlerOpts{}), cfg.Version, log)
	if err != nil {
		log.Fatal().Err(err).Msg("error creating handler")
	}

	srv, err := server.NewServer(h.Init(), hub, syncServer, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("error creating server")
	}

	srv.RunServer()
}
