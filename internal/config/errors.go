// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package config

import "errors"

// Validation errors returned when the merged configuration is incomplete or
// invalid. The validator's field errors are wrapped alongside.
var (
	// ErrInvalidServerConfig indicates invalid server settings
	// (for example, a malformed listen address or report name).
	ErrInvalidServerConfig = errors.New("invalid server configuration")
	// ErrInvalidClientConfig indicates invalid client settings
	// (for example, a non-http server URL or zero request timeout).
	ErrInvalidClientConfig = errors.New("invalid client configuration")
)
