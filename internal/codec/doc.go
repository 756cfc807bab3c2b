// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

// Package codec converts sync packets and their payloads to and from their
// wire representation.
//
// Packets travel as JSON envelopes. Everything inside a packet entry (file
// content, directory listings and difference reports) uses a textual XML
// serialization that always starts with the "<?xml" marker. Receivers also
// accept the legacy form where the XML document is additionally base64
// wrapped, and tell the two apart by looking for the marker.
package codec
