// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package metadata

import (
	"encoding/hex"
	"fmt"
	"io"
	"path/filepath"
	"slices"
	"strings"

	"github.com/MKhiriev/go-lab-updater/models"
	"github.com/spf13/afero"
	"github.com/zeebo/blake3"
)

// Scanner produces [models.FileMetadata] listings of a flat directory.
type Scanner struct {
	fs     afero.Fs
	ignore []func(name string) bool
}

// Option configures a [Scanner].
type Option func(*Scanner)

// WithIgnoredNames excludes the given file names from every listing.
func WithIgnoredNames(names ...string) Option {
	set := make(map[string]struct{}, len(names))
	for _, n := range names {
		set[n] = struct{}{}
	}
	return WithIgnoreFunc(func(name string) bool {
		_, ok := set[name]
		return ok
	})
}

// WithIgnoreFunc excludes every file for which fn returns true.
func WithIgnoreFunc(fn func(name string) bool) Option {
	return func(s *Scanner) {
		s.ignore = append(s.ignore, fn)
	}
}

// NewScanner returns a Scanner reading from fs.
func NewScanner(fs afero.Fs, opts ...Option) *Scanner {
	s := &Scanner{fs: fs}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Scan lists the regular files directly under dir, sorted by name, with one
// content fingerprint per file. Subdirectories are not descended into.
func (s *Scanner) Scan(dir string) ([]models.FileMetadata, error) {
	infos, err := afero.ReadDir(s.fs, dir)
	if err != nil {
		return nil, fmt.Errorf("%w: read dir %s: %v", ErrScan, dir, err)
	}

	listing := make([]models.FileMetadata, 0, len(infos))
	for _, info := range infos {
		if !info.Mode().IsRegular() || s.ignored(info.Name()) {
			continue
		}

		fingerprint, err := s.fingerprint(filepath.Join(dir, info.Name()))
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrScan, info.Name(), err)
		}

		listing = append(listing, models.FileMetadata{
			Name:        info.Name(),
			Fingerprint: fingerprint,
			Size:        info.Size(),
		})
	}

	slices.SortFunc(listing, func(a, b models.FileMetadata) int {
		return strings.Compare(a.Name, b.Name)
	})

	return listing, nil
}

func (s *Scanner) ignored(name string) bool {
	for _, fn := range s.ignore {
		if fn(name) {
			return true
		}
	}
	return false
}

func (s *Scanner) fingerprint(path string) (string, error) {
	f, err := s.fs.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h := blake3.New()
	if _, err = io.Copy(h, f); err != nil {
		return "", err
	}

	return hex.EncodeToString(h.Sum(nil)), nil
}
