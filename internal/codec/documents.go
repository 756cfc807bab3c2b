// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package codec

import (
	"encoding/xml"
	"fmt"

	"github.com/MKhiriev/go-lab-updater/models"
)

type listingDocument struct {
	XMLName xml.Name              `xml:"ArrayOfFileMetadata"`
	Files   []models.FileMetadata `xml:"FileMetadata"`
}

type reportDocument struct {
	XMLName     xml.Name                    `xml:"ArrayOfMetadataDifference"`
	Differences []models.MetadataDifference `xml:"MetadataDifference"`
}

// EncodeListing serializes a directory listing into a single entry.
func EncodeListing(name string, listing []models.FileMetadata) (models.FileEntry, error) {
	doc, err := marshalDocument(listingDocument{Files: listing})
	if err != nil {
		return models.FileEntry{}, fmt.Errorf("encode listing: %w", err)
	}

	return models.FileEntry{Name: name, Content: string(doc)}, nil
}

// DecodeListing parses the directory listing carried by entry.
func DecodeListing(entry models.FileEntry) ([]models.FileMetadata, error) {
	doc, err := unwrap(entry.Content)
	if err != nil {
		return nil, fmt.Errorf("decode listing: %w", err)
	}

	var listing listingDocument
	if err = xml.Unmarshal(doc, &listing); err != nil {
		return nil, fmt.Errorf("decode listing: %w: %v", ErrMalformedContent, err)
	}
	if listing.Files == nil {
		return []models.FileMetadata{}, nil
	}

	return listing.Files, nil
}

// MarshalReport renders a difference report as a textual document. The same
// bytes are persisted to disk and sent to the client.
func MarshalReport(report models.DifferenceReport) ([]byte, error) {
	doc, err := marshalDocument(reportDocument{Differences: report})
	if err != nil {
		return nil, fmt.Errorf("marshal report: %w", err)
	}
	return doc, nil
}

// EncodeReport wraps a rendered report document into an entry.
func EncodeReport(name string, doc []byte) models.FileEntry {
	return models.FileEntry{Name: name, Content: string(doc)}
}

// DecodeReport parses the difference report carried by entry.
func DecodeReport(entry models.FileEntry) (models.DifferenceReport, error) {
	doc, err := unwrap(entry.Content)
	if err != nil {
		return nil, fmt.Errorf("decode report: %w", err)
	}

	var report reportDocument
	if err = xml.Unmarshal(doc, &report); err != nil {
		return nil, fmt.Errorf("decode report: %w: %v", ErrMalformedContent, err)
	}

	return report.Differences, nil
}
