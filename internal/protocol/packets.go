// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package protocol

import (
	"fmt"

	"github.com/MKhiriev/go-lab-updater/internal/codec"
	"github.com/MKhiriev/go-lab-updater/internal/store"
	"github.com/MKhiriev/go-lab-updater/internal/transport"
	"github.com/MKhiriev/go-lab-updater/models"
)

// ListingEntryName names the single entry of a Metadata packet.
const ListingEntryName = "metadata.xml"

// DefaultReportName is the file the server persists the difference report to.
const DefaultReportName = "differences.xml"

func send(comm transport.Communicator, packet models.SyncPacket, clientID string) error {
	data, err := codec.MarshalPacket(packet)
	if err != nil {
		return err
	}
	if err = comm.Send(data, Module, clientID); err != nil {
		return fmt.Errorf("send %s: %w", packet.Kind, err)
	}
	return nil
}

// applyEntries decodes every entry that carries content and writes it into st.
// skip names an entry to leave out; it may be empty.
func applyEntries(st store.DirectoryStore, entries []models.FileEntry, skip string) (int, error) {
	written := 0
	for _, entry := range entries {
		if !entry.HasContent() || (skip != "" && entry.Name == skip) {
			continue
		}

		raw, err := codec.Decode(entry)
		if err != nil {
			return written, err
		}
		if err = st.WriteFile(entry.Name, raw); err != nil {
			return written, err
		}
		written++
	}
	return written, nil
}

// readEntries reads and encodes the named files from st.
func readEntries(st store.DirectoryStore, names []string) ([]models.FileEntry, error) {
	entries := make([]models.FileEntry, 0, len(names))
	for _, name := range names {
		raw, err := st.ReadFile(name)
		if err != nil {
			return nil, err
		}
		entry, err := codec.Encode(name, raw)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

func scannerIgnores(reportName string) func(name string) bool {
	return func(name string) bool {
		return name == reportName || store.IsTempFile(name)
	}
}
