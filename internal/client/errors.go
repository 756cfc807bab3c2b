// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package client

import "errors"

// ErrDisconnected is returned by [App.Run] when the server closes the
// connection.
var ErrDisconnected = errors.New("disconnected from server")
