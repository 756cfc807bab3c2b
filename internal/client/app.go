// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package client

import (
	"context"
	"fmt"
	"io"

	"github.com/MKhiriev/go-lab-updater/internal/adapter"
	"github.com/MKhiriev/go-lab-updater/internal/config"
	"github.com/MKhiriev/go-lab-updater/internal/logger"
	"github.com/MKhiriev/go-lab-updater/internal/protocol"
	"github.com/MKhiriev/go-lab-updater/internal/store"
	"github.com/MKhiriev/go-lab-updater/internal/transport"
	"github.com/MKhiriev/go-lab-updater/internal/tui"
	"github.com/MKhiriev/go-lab-updater/internal/workers"
	"github.com/spf13/afero"
)

type App struct {
	cfg     *config.ClientConfig
	status  adapter.StatusClient
	conn    Connection
	workers *workers.Workers
	logger  *logger.Logger
}

// NewApp wires the client against the local file system.
func NewApp(cfg *config.ClientConfig, log *logger.Logger) (*App, error) {
	st, err := store.NewDirectoryStore(afero.NewOsFs(), cfg.Dir)
	if err != nil {
		return nil, fmt.Errorf("create directory store: %w", err)
	}
	if err = st.EnsureDir(); err != nil {
		return nil, fmt.Errorf("prepare managed directory: %w", err)
	}

	status, err := adapter.NewHTTPStatusAdapter(cfg.ServerURL, cfg.RequestTimeout, log)
	if err != nil {
		return nil, fmt.Errorf("create status adapter: %w", err)
	}

	dialer := transport.NewDialer(cfg.Transport.Options(), log)
	return newApp(cfg, st, status, dialer, log), nil
}

func newApp(cfg *config.ClientConfig, st store.DirectoryStore, status adapter.StatusClient, conn Connection, log *logger.Logger) *App {
	syncClient := protocol.NewClient(conn, st, log,
		protocol.WithClientNotifier(protocol.NewLogNotifier(log)),
		protocol.WithIgnoredReportName(cfg.ReportName),
	)
	job := workers.NewAnnounceJob(syncClient, cfg.AnnounceInterval, log)

	return &App{
		cfg:     cfg,
		status:  status,
		conn:    conn,
		workers: workers.New(job),
		logger:  log,
	}
}

// Run connects to the server and serves sync requests until ctx is done or
// the server drops the connection.
func (a *App) Run(ctx context.Context) error {
	a.logServerStatus(ctx)

	dialCtx, cancel := context.WithTimeout(ctx, a.cfg.RequestTimeout)
	endpoint, err := a.conn.Start(dialCtx, a.cfg.ServerURL)
	cancel()
	if err != nil {
		return fmt.Errorf("connect to server: %w", err)
	}
	a.logger.Info().Str("endpoint", endpoint).Str("dir", a.cfg.Dir).Msg("client started")

	a.workers.Start(ctx)
	defer func() {
		a.workers.Stop()
		if err := a.conn.Stop(); err != nil {
			a.logger.Err(err).Msg("failed to close connection")
		}
	}()

	select {
	case <-ctx.Done():
		a.logger.Info().Msg("client shutting down")
		return nil
	case <-a.conn.Done():
		return ErrDisconnected
	}
}

// logServerStatus is informational only; a failure does not stop the dial.
func (a *App) logServerStatus(ctx context.Context) {
	status, err := a.status.Status(ctx)
	if err != nil {
		a.logger.Warn().Err(err).Msg("server status unavailable")
		return
	}

	a.logger.Info().
		Str("gate", status.Gate).
		Strs("clients", status.Clients).
		Int("sessions", len(status.Sessions)).
		Str("version", status.Version).
		Msg("server status")
}

// PrintStatus writes the server status page to w.
func (a *App) PrintStatus(ctx context.Context, w io.Writer) error {
	status, err := a.status.Status(ctx)
	if err != nil {
		return fmt.Errorf("get server status: %w", err)
	}

	_, err = fmt.Fprintln(w, tui.RenderStatus(status))
	return err
}
