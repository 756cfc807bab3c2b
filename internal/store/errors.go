// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package store

import "errors"

// Sentinel errors returned by [DirectoryStore]. Callers should use
// [errors.Is] to match against these values.
var (
	// ErrInvalidFileName is returned for names that are empty, contain path
	// separators or escape the managed directory.
	ErrInvalidFileName = errors.New("invalid file name")

	// ErrFileNotFound is returned when a file requested for upload or
	// transfer does not exist in the managed directory.
	ErrFileNotFound = errors.New("file not found")

	// ErrIO wraps any other read or write failure on the managed directory.
	ErrIO = errors.New("managed directory i/o failure")
)
