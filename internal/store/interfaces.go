// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

// Package store persists the managed directory of a node: the flat directory
// of tool files that is the object of synchronization, plus the difference
// report the server writes on every reconciliation.
package store

import "github.com/spf13/afero"

//go:generate mockgen -source=interfaces.go -destination=../mock/directory_store_mock.go -package=mock

// DirectoryStore is a flat file store rooted at a single managed directory.
//
// File names are plain base names; anything containing a path separator or
// referring to a parent directory is rejected with [ErrInvalidFileName].
type DirectoryStore interface {
	// Path returns the managed directory the store is rooted at.
	Path() string

	// Fs returns the filesystem the store operates on, so the metadata
	// scanner can enumerate the same directory.
	Fs() afero.Fs

	// EnsureDir creates the managed directory if it does not exist yet.
	EnsureDir() error

	// ReadFile returns the content of name. A missing file yields
	// [ErrFileNotFound].
	ReadFile(name string) ([]byte, error)

	// WriteFile atomically replaces name with data.
	WriteFile(name string, data []byte) error
}
