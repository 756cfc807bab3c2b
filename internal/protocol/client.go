// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package protocol

import (
	"fmt"

	"github.com/MKhiriev/go-lab-updater/internal/codec"
	"github.com/MKhiriev/go-lab-updater/internal/logger"
	"github.com/MKhiriev/go-lab-updater/internal/metadata"
	"github.com/MKhiriev/go-lab-updater/internal/store"
	"github.com/MKhiriev/go-lab-updater/internal/transport"
	"github.com/MKhiriev/go-lab-updater/models"
)

// ClientOption configures a [Client].
type ClientOption func(*Client)

// WithClientNotifier sets the status sink.
func WithClientNotifier(n Notifier) ClientOption {
	return func(c *Client) {
		c.notifier = n
	}
}

// WithIgnoredReportName keeps a local file with the server's report name out
// of the client's listing.
func WithIgnoredReportName(name string) ClientOption {
	return func(c *Client) {
		if name != "" {
			c.reportName = name
		}
	}
}

// Client is the client side of the protocol. It answers the server's
// requests and applies the files the server sends.
type Client struct {
	comm       transport.Communicator
	store      store.DirectoryStore
	scanner    *metadata.Scanner
	logger     *logger.Logger
	notifier   Notifier
	reportName string
}

// NewClient builds the client handler and subscribes it on comm.
func NewClient(comm transport.Communicator, st store.DirectoryStore, log *logger.Logger, opts ...ClientOption) *Client {
	c := &Client{
		comm:       comm,
		store:      st,
		logger:     log,
		notifier:   nopNotifier{},
		reportName: DefaultReportName,
	}
	for _, opt := range opts {
		opt(c)
	}

	c.scanner = metadata.NewScanner(st.Fs(), metadata.WithIgnoreFunc(scannerIgnores(c.reportName)))
	comm.Subscribe(Module, c)
	return c
}

// Announce asks the server for a new sync cycle. Connecting already counts as
// an announce; this is used to retry after a failed cycle.
func (c *Client) Announce() error {
	return send(c.comm, models.NewSyncPacket(models.KindAnnounce), transport.ServerID)
}

func (c *Client) OnClientJoined(transport.Conn) {
	c.notifier.Notify("Successfully connected to server.")
}

func (c *Client) OnClientLeft(string) {
	c.logger.Warn().Msg("disconnected from server")
	c.notifier.Notify("Disconnected from server.")
}

// OnDataReceived dispatches one packet from the server.
func (c *Client) OnDataReceived(_ string, data []byte) {
	defer func() {
		if r := recover(); r != nil {
			c.logger.Error().Interface("panic", r).Msg("recovered from panic in handler")
			c.notifier.Notify(fmt.Sprintf("Internal error: %v", r))
		}
	}()

	if err := c.dispatch(data); err != nil {
		c.logger.Err(err).Msg("sync step failed")
		c.notifier.Notify(fmt.Sprintf("Sync failed: %v", err))
	}
}

func (c *Client) dispatch(data []byte) error {
	packet, err := codec.UnmarshalPacket(data)
	if err != nil {
		return err
	}

	switch packet.Kind {
	case models.KindSyncUp:
		return c.handleSyncUp()
	case models.KindDifferenceReport:
		return c.handleDifferenceReport(packet)
	case models.KindBroadcast:
		return c.handleBroadcast(packet)
	case models.KindAnnounce, models.KindMetadata, models.KindClientUpload:
		return fmt.Errorf("%w: %s is never sent to a client", ErrUnexpectedPacket, packet.Kind)
	default:
		return fmt.Errorf("%w: %q", codec.ErrUnknownPacketKind, packet.Kind)
	}
}

// handleSyncUp sends the local listing to the server.
func (c *Client) handleSyncUp() error {
	c.notifier.Notify("Received SyncUp request from server")

	listing, err := c.scanner.Scan(c.store.Path())
	if err != nil {
		return err
	}

	entry, err := codec.EncodeListing(ListingEntryName, listing)
	if err != nil {
		return err
	}
	if err = send(c.comm, models.NewSyncPacket(models.KindMetadata, entry), transport.ServerID); err != nil {
		return err
	}

	c.logger.Info().Int("files", len(listing)).Msg("metadata sent to server")
	c.notifier.Notify("Metadata sent to server")
	return nil
}

// handleDifferenceReport applies the files the server sent and uploads the
// files only this client has.
func (c *Client) handleDifferenceReport(packet models.SyncPacket) error {
	c.notifier.Notify("Received files from server")

	if len(packet.Payload) == 0 {
		return fmt.Errorf("%w: difference report", ErrEmptyPacket)
	}

	reportEntry := packet.Payload[0]
	report, err := codec.DecodeReport(reportEntry)
	if err != nil {
		return err
	}

	written, err := applyEntries(c.store, packet.Payload[1:], reportEntry.Name)
	if err != nil {
		return err
	}
	c.logger.Info().Int("files", written).Msg("server files applied")

	names := make([]string, 0)
	for _, name := range report.Names(models.KeyClientOnly) {
		if name != reportEntry.Name {
			names = append(names, name)
		}
	}
	c.notifier.Notify(fmt.Sprintf("Received request for %d files from server", len(names)))

	entries, err := readEntries(c.store, names)
	if err != nil {
		return err
	}

	c.notifier.Notify("Sending requested files to server")
	if err = send(c.comm, models.NewSyncPacket(models.KindClientUpload, entries...), transport.ServerID); err != nil {
		return err
	}

	c.logger.Info().Strs("files", names).Msg("client files uploaded")
	return nil
}

// handleBroadcast writes every received file without comparing anything.
func (c *Client) handleBroadcast(packet models.SyncPacket) error {
	c.notifier.Notify("Received broadcast from server")

	written, err := applyEntries(c.store, packet.Payload, "")
	if err != nil {
		return err
	}

	c.logger.Info().Int("files", written).Msg("broadcast applied")
	c.notifier.Notify("Up-to-date with the server")
	return nil
}
