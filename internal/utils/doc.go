// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

// Package utils holds small helpers shared by the server and the client:
// JSON response writing, the resty client constructor and correlation ID
// generation.
package utils
