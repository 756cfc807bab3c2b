// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package http

import "errors"

// ErrMissingDependency is returned by [NewHandler] when a required
// collaborator is nil.
var ErrMissingDependency = errors.New("missing handler dependency")
