// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package metadata

import "errors"

// ErrScan is returned when a directory or one of its files cannot be read.
// A scan that fails never returns a partial listing.
var ErrScan = errors.New("directory scan failed")
