// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package models

// Difference report keys. Only KeyClientOnly drives the protocol; the other
// keys are recorded in the persisted report for auditing.
const (
	// KeyClientOnly marks files present only on the requesting client.
	KeyClientOnly = "-1"
	// KeyModified marks files present on both sides with different fingerprints.
	KeyModified = "0"
	// KeyServerOnly marks files present only on the server.
	KeyServerOnly = "1"
)

// FileMetadata is one row of a directory snapshot.
type FileMetadata struct {
	// Name is the file name relative to the managed directory.
	Name string `xml:"FileName" json:"name"`
	// Fingerprint is a content-derived hash. It is opaque to everything but
	// the metadata engine.
	Fingerprint string `xml:"FileHash" json:"fingerprint"`
	// Size is informational only.
	Size int64 `xml:"FileSize" json:"size"`
}

// FileDetail names a single file inside a [MetadataDifference].
type FileDetail struct {
	Name string `xml:"FileName" json:"name"`
}

// MetadataDifference is one (key, entries) pair of a [DifferenceReport].
type MetadataDifference struct {
	Key   string       `xml:"Key" json:"key"`
	Value []FileDetail `xml:"Value>FileDetail" json:"value"`
}

// DifferenceReport is an ordered snapshot of the divergence between the
// server and a client directory, computed once per sync cycle.
type DifferenceReport []MetadataDifference

// Names returns the distinct file names listed under key, in report order.
func (r DifferenceReport) Names(key string) []string {
	seen := make(map[string]struct{})
	names := make([]string, 0)
	for _, diff := range r {
		if diff.Key != key {
			continue
		}
		for _, detail := range diff.Value {
			if detail.Name == "" {
				continue
			}
			if _, ok := seen[detail.Name]; ok {
				continue
			}
			seen[detail.Name] = struct{}{}
			names = append(names, detail.Name)
		}
	}
	return names
}
