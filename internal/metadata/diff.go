// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package metadata

import (
	"slices"

	"github.com/MKhiriev/go-lab-updater/models"
)

// Result is the outcome of comparing the server listing with a client
// listing. All name slices are sorted and never nil.
type Result struct {
	// Report is the snapshot persisted by the server and sent to the client.
	Report models.DifferenceReport
	// ServerOnly lists files the client is missing.
	ServerOnly []string
	// ClientOnly lists files the server is missing.
	ClientOnly []string
	// Modified lists files present on both sides with different fingerprints.
	// It is informational; nothing is transferred for these.
	Modified []string
}

// Diff compares two listings by name. Fingerprints only decide whether a
// shared name is reported as modified; set membership ignores them.
func Diff(server, client []models.FileMetadata) Result {
	serverIndex := index(server)
	clientIndex := index(client)

	res := Result{
		ServerOnly: make([]string, 0),
		ClientOnly: make([]string, 0),
		Modified:   make([]string, 0),
	}

	for name, sm := range serverIndex {
		cm, onClient := clientIndex[name]
		switch {
		case !onClient:
			res.ServerOnly = append(res.ServerOnly, name)
		case sm.Fingerprint != cm.Fingerprint:
			res.Modified = append(res.Modified, name)
		}
	}
	for name := range clientIndex {
		if _, onServer := serverIndex[name]; !onServer {
			res.ClientOnly = append(res.ClientOnly, name)
		}
	}

	slices.Sort(res.ServerOnly)
	slices.Sort(res.ClientOnly)
	slices.Sort(res.Modified)

	res.Report = models.DifferenceReport{
		{Key: models.KeyClientOnly, Value: details(res.ClientOnly)},
		{Key: models.KeyModified, Value: details(res.Modified)},
		{Key: models.KeyServerOnly, Value: details(res.ServerOnly)},
	}

	return res
}

// index keys a listing by name; the first row wins on duplicates.
func index(listing []models.FileMetadata) map[string]models.FileMetadata {
	idx := make(map[string]models.FileMetadata, len(listing))
	for _, m := range listing {
		if m.Name == "" {
			continue
		}
		if _, dup := idx[m.Name]; dup {
			continue
		}
		idx[m.Name] = m
	}
	return idx
}

func details(names []string) []models.FileDetail {
	out := make([]models.FileDetail, 0, len(names))
	for _, n := range names {
		out = append(out, models.FileDetail{Name: n})
	}
	return out
}
