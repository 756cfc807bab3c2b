// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

// Package protocol drives sync cycles between the server and its clients.
//
// A cycle runs Announce, SyncUp, Metadata, DifferenceReport, ClientUpload and
// Broadcast in that order. The server admits one cycle at a time through the
// coordinator gate; every failure aborts only the current cycle and releases
// the gate. Handlers never let an error or panic escape into the transport's
// dispatch loop.
package protocol
