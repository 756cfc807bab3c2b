// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

// Package workers provides the client's background jobs and a Workers
// aggregate that starts and stops them together.
package workers

import "context"

// Worker is a background job with an explicit lifecycle.
//
// Start must not block; the job runs until ctx is cancelled or Stop is
// called. Stop blocks until the job has exited and is safe to call on a job
// that never started.
type Worker interface {
	Start(ctx context.Context)
	Stop()
}

// Announcer sends an explicit announce to the sync server.
type Announcer interface {
	Announce() error
}
