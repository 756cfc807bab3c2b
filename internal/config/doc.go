// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

// Package config provides configuration loading, merging, and validation
// for the updater server and client.
//
// Configuration is assembled from multiple sources in the following priority
// order (later sources override earlier non-zero fields):
//  1. .env file (path from ENV_FILE, default ".env"; skipped when absent)
//  2. Environment variables
//  3. Command-line flags
//  4. JSON config file (-c / -config / CONFIG)
//
// Fields left unset by every source take their defaults afterwards.
//
// The main entry points are [GetServerConfig] and [GetClientConfig].
package config
