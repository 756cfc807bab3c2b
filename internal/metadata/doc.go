// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

// Package metadata scans a managed directory into a canonical listing and
// computes the divergence between two listings.
package metadata
