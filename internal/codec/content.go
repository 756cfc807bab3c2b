// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package codec

import (
	"bytes"
	"encoding/base64"
	"encoding/xml"
	"fmt"
	"strings"

	"github.com/MKhiriev/go-lab-updater/models"
)

// TextMarker is the leading marker of the textual serialization.
const TextMarker = "<?xml"

const contentEncodingBase64 = "base64"

// contentDocument is the textual form of raw file bytes.
type contentDocument struct {
	XMLName  xml.Name `xml:"FileContent"`
	Encoding string   `xml:"encoding,attr"`
	Data     string   `xml:",chardata"`
}

// Encode produces a directly encoded entry for raw file content.
func Encode(name string, raw []byte) (models.FileEntry, error) {
	doc, err := marshalDocument(contentDocument{
		Encoding: contentEncodingBase64,
		Data:     base64.StdEncoding.EncodeToString(raw),
	})
	if err != nil {
		return models.FileEntry{}, fmt.Errorf("encode %s: %w", name, err)
	}

	return models.FileEntry{Name: name, Content: string(doc)}, nil
}

// Decode returns the raw file content carried by entry. Both the direct and
// the base64-wrapped encodings are accepted.
func Decode(entry models.FileEntry) ([]byte, error) {
	doc, err := unwrap(entry.Content)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", entry.Name, err)
	}

	var content contentDocument
	if err = xml.Unmarshal(doc, &content); err != nil {
		return nil, fmt.Errorf("decode %s: %w: %v", entry.Name, ErrMalformedContent, err)
	}
	if content.Encoding != "" && content.Encoding != contentEncodingBase64 {
		return nil, fmt.Errorf("decode %s: %w: unsupported encoding %q", entry.Name, ErrMalformedContent, content.Encoding)
	}

	raw, err := base64.StdEncoding.DecodeString(strings.TrimSpace(content.Data))
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w: %v", entry.Name, ErrMalformedContent, err)
	}

	return raw, nil
}

// WrapBase64 returns entry in the legacy base64-wrapped form.
func WrapBase64(entry models.FileEntry) models.FileEntry {
	return models.FileEntry{
		Name:    entry.Name,
		Content: base64.StdEncoding.EncodeToString([]byte(entry.Content)),
	}
}

// unwrap returns the textual document behind encoded, base64-decoding it
// first when the marker is missing.
func unwrap(encoded string) ([]byte, error) {
	if encoded == "" {
		return nil, fmt.Errorf("%w: empty content", ErrMalformedContent)
	}

	if hasMarker([]byte(encoded)) {
		return []byte(encoded), nil
	}

	decoded, err := base64.StdEncoding.DecodeString(strings.TrimSpace(encoded))
	if err != nil {
		return nil, fmt.Errorf("%w: neither textual nor base64: %v", ErrMalformedContent, err)
	}
	if !hasMarker(decoded) {
		return nil, fmt.Errorf("%w: base64 payload is not a textual document", ErrMalformedContent)
	}

	return decoded, nil
}

func hasMarker(doc []byte) bool {
	doc = bytes.TrimPrefix(doc, []byte("\xef\xbb\xbf"))
	doc = bytes.TrimLeft(doc, " \t\r\n")
	return bytes.HasPrefix(doc, []byte(TextMarker))
}

func marshalDocument(v any) ([]byte, error) {
	body, err := xml.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSerialization, err)
	}

	doc := make([]byte, 0, len(xml.Header)+len(body))
	doc = append(doc, xml.Header...)
	doc = append(doc, body...)
	return doc, nil
}
