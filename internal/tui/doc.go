// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

// Package tui renders terminal views of the client. The client itself runs
// unattended, so the only view is the server status page printed by the
// -status mode.
package tui
