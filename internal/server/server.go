// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package server

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"os/signal"
	"sync"
	"syscall"

	"github.com/MKhiriev/go-lab-updater/internal/config"
	"github.com/MKhiriev/go-lab-updater/internal/logger"
	"golang.org/x/sync/errgroup"
)

type server struct {
	httpServer *httpServer
	hub        Hub
	sync       Syncer
	address    string
	logger     *logger.Logger

	once sync.Once
	done chan struct{}
}

// NewServer assembles the process around handler, which must already route
// the hub's WebSocket path.
func NewServer(handler http.Handler, hub Hub, syncer Syncer, cfg *config.ServerConfig, logger *logger.Logger) (Server, error) {
	if handler == nil || hub == nil || syncer == nil || cfg == nil {
		return nil, errMissingComponent
	}

	logger.Info().Msg("creating new server...")
	return &server{
		httpServer: newHTTPServer(handler, cfg.Address, cfg.ShutdownTimeout, logger),
		hub:        hub,
		sync:       syncer,
		address:    cfg.Address,
		logger:     logger,
		done:       make(chan struct{}),
	}, nil
}

func (s *server) RunServer() {
	ctx, stop := signal.NotifyContext(
		context.Background(),
		syscall.SIGTERM,
		syscall.SIGINT,
		syscall.SIGQUIT,
	)
	defer stop()

	if err := s.Run(ctx); err != nil {
		s.logger.Error().Err(err).Msg("error running server")
	}
}

func (s *server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.address)
	if err != nil {
		return fmt.Errorf("listen %s: %w", s.address, err)
	}

	endpoint, err := s.hub.Start(ctx, ln.Addr().String())
	if err != nil {
		_ = ln.Close()
		return fmt.Errorf("start hub: %w", err)
	}

	s.logger.Info().
		Str("address", ln.Addr().String()).
		Str("endpoint", endpoint).
		Msg("launching HTTP server")

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return s.httpServer.serve(ln)
	})
	g.Go(func() error {
		select {
		case <-gctx.Done():
			s.Shutdown()
		case <-s.done:
		}
		return nil
	})

	if err = g.Wait(); err != nil {
		return err
	}

	s.logger.Info().Msg("server shut down gracefully")
	return nil
}

func (s *server) Shutdown() {
	s.once.Do(func() {
		defer close(s.done)

		// cycles first so that no packet is sent into a closing hub
		s.sync.Shutdown()
		if err := s.hub.Stop(); err != nil {
			s.logger.Err(err).Msg("websocket hub Stop")
		}
		s.httpServer.Shutdown()
	})
}
