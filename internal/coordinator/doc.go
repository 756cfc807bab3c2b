// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

// Package coordinator serializes sync cycles on the server.
//
// A [Coordinator] owns the single-holder [Gate], the client ID counter and
// the registry of live sync sessions. Only the session holding the gate may
// read or modify the managed directory or the persisted report.
package coordinator
