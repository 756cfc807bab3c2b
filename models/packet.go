// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package models

// PacketKind tells the receiver how to interpret the payload of a [SyncPacket].
type PacketKind string

const (
	// KindAnnounce is sent by a client that wants a sync cycle. Connecting to
	// the server is an implicit announce; the explicit packet is used to retry
	// after a failed cycle.
	KindAnnounce PacketKind = "announce"
	// KindSyncUp is a zero-payload control packet from the server telling
	// exactly one client to send its metadata now.
	KindSyncUp PacketKind = "sync_up"
	// KindMetadata carries the client's serialized directory listing.
	KindMetadata PacketKind = "metadata"
	// KindDifferenceReport carries the report as its first entry followed by
	// the files only the server has.
	KindDifferenceReport PacketKind = "difference_report"
	// KindClientUpload carries the files only the client has.
	KindClientUpload PacketKind = "client_upload"
	// KindBroadcast is a re-tagged client upload fanned out to every client.
	KindBroadcast PacketKind = "broadcast"
)

// Known reports whether k is one of the closed set of packet kinds.
func (k PacketKind) Known() bool {
	switch k {
	case KindAnnounce, KindSyncUp, KindMetadata, KindDifferenceReport, KindClientUpload, KindBroadcast:
		return true
	default:
		return false
	}
}

func (k PacketKind) String() string {
	return string(k)
}

// SyncPacket is one message on the wire.
type SyncPacket struct {
	Kind    PacketKind  `json:"kind"`
	Payload []FileEntry `json:"payload"`
}

// NewSyncPacket builds a packet of the given kind.
func NewSyncPacket(kind PacketKind, entries ...FileEntry) SyncPacket {
	if entries == nil {
		entries = []FileEntry{}
	}
	return SyncPacket{Kind: kind, Payload: entries}
}

// FileEntry is the transport unit of a single file.
//
// Content holds the encoded file content. An empty Content means the sender
// had nothing to transmit for this entry and receivers skip it.
type FileEntry struct {
	Name    string `json:"name"`
	Content string `json:"content,omitempty"`
}

// HasContent reports whether the entry carries content to apply.
func (e FileEntry) HasContent() bool {
	return e.Name != "" && e.Content != ""
}
