// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package store

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"
)

const (
	dirPerm  = 0o755
	filePerm = 0o644

	tempPrefix = ".updater-"
	tempSuffix = ".tmp"
)

type directoryStore struct {
	fs  afero.Fs
	dir string
}

// NewDirectoryStore returns a [DirectoryStore] rooted at dir on fs and makes
// sure the directory exists.
func NewDirectoryStore(fs afero.Fs, dir string) (DirectoryStore, error) {
	if strings.TrimSpace(dir) == "" {
		return nil, fmt.Errorf("%w: empty managed directory", ErrIO)
	}

	s := &directoryStore{fs: fs, dir: filepath.Clean(dir)}
	if err := s.EnsureDir(); err != nil {
		return nil, err
	}

	return s, nil
}

func (s *directoryStore) Path() string {
	return s.dir
}

func (s *directoryStore) Fs() afero.Fs {
	return s.fs
}

func (s *directoryStore) EnsureDir() error {
	if err := s.fs.MkdirAll(s.dir, dirPerm); err != nil {
		return fmt.Errorf("%w: create %s: %v", ErrIO, s.dir, err)
	}
	return nil
}

func (s *directoryStore) ReadFile(name string) ([]byte, error) {
	if err := ValidateName(name); err != nil {
		return nil, err
	}

	data, err := afero.ReadFile(s.fs, filepath.Join(s.dir, name))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrFileNotFound, name)
		}
		return nil, fmt.Errorf("%w: read %s: %v", ErrIO, name, err)
	}

	return data, nil
}

// WriteFile writes into a temporary file next to the target and renames it
// into place, so readers never observe a half-written file.
func (s *directoryStore) WriteFile(name string, data []byte) error {
	if err := ValidateName(name); err != nil {
		return err
	}
	if err := s.EnsureDir(); err != nil {
		return err
	}

	tmp, err := afero.TempFile(s.fs, s.dir, tempPrefix+"*"+tempSuffix)
	if err != nil {
		return fmt.Errorf("%w: create temp for %s: %v", ErrIO, name, err)
	}
	tmpName := tmp.Name()

	_, writeErr := tmp.Write(data)
	closeErr := tmp.Close()
	if err = errors.Join(writeErr, closeErr); err != nil {
		_ = s.fs.Remove(tmpName)
		return fmt.Errorf("%w: write %s: %v", ErrIO, name, err)
	}

	if err = s.fs.Chmod(tmpName, filePerm); err != nil {
		_ = s.fs.Remove(tmpName)
		return fmt.Errorf("%w: chmod %s: %v", ErrIO, name, err)
	}

	if err = s.fs.Rename(tmpName, filepath.Join(s.dir, name)); err != nil {
		_ = s.fs.Remove(tmpName)
		return fmt.Errorf("%w: rename %s: %v", ErrIO, name, err)
	}

	return nil
}

// ValidateName rejects names that are not plain file names inside the
// managed directory.
func ValidateName(name string) error {
	switch {
	case name == "", name == ".", name == "..":
		return fmt.Errorf("%w: %q", ErrInvalidFileName, name)
	case strings.ContainsAny(name, `/\`), strings.ContainsRune(name, 0):
		return fmt.Errorf("%w: %q", ErrInvalidFileName, name)
	case filepath.Base(name) != name, filepath.IsAbs(name):
		return fmt.Errorf("%w: %q", ErrInvalidFileName, name)
	}
	return nil
}

// IsTempFile reports whether name is an in-flight temporary file created by
// WriteFile. Directory scans skip these.
func IsTempFile(name string) bool {
	return strings.HasPrefix(name, tempPrefix) && strings.HasSuffix(name, tempSuffix)
}
