// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package workers

import (
	"context"
	"sync"
	"time"

	"github.com/MKhiriev/go-lab-updater/internal/logger"
	"github.com/jonboulle/clockwork"
)

// AnnounceJob re-announces the client to the server on a fixed interval, so
// a client whose last cycle failed gets another one without reconnecting.
type AnnounceJob struct {
	announcer Announcer
	interval  time.Duration
	clock     clockwork.Clock
	logger    *logger.Logger

	mu     sync.Mutex
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// AnnounceOption configures an [AnnounceJob].
type AnnounceOption func(*AnnounceJob)

// WithClock overrides the clock driving the ticker.
func WithClock(clock clockwork.Clock) AnnounceOption {
	return func(j *AnnounceJob) {
		j.clock = clock
	}
}

// NewAnnounceJob creates an idle job. A zero or negative interval disables
// it: Start then does nothing.
func NewAnnounceJob(announcer Announcer, interval time.Duration, log *logger.Logger, opts ...AnnounceOption) *AnnounceJob {
	j := &AnnounceJob{
		announcer: announcer,
		interval:  interval,
		clock:     clockwork.NewRealClock(),
		logger:    log,
	}
	for _, opt := range opts {
		opt(j)
	}
	return j
}

// Start stops any previously running loop, then announces every interval
// until ctx is cancelled or Stop is called.
func (j *AnnounceJob) Start(ctx context.Context) {
	if j.interval <= 0 {
		j.logger.Debug().Msg("announce job disabled")
		return
	}

	j.Stop()

	j.mu.Lock()
	jobCtx, cancel := context.WithCancel(ctx)
	j.cancel = cancel
	j.wg.Add(1)
	j.mu.Unlock()

	go func() {
		defer j.wg.Done()
		t := j.clock.NewTicker(j.interval)
		defer t.Stop()

		for {
			select {
			case <-jobCtx.Done():
				return
			case <-t.Chan():
				if err := j.announcer.Announce(); err != nil {
					j.logger.Warn().Err(err).Msg("re-announce failed")
					continue
				}
				j.logger.Debug().Msg("re-announced to server")
			}
		}
	}()
}

// Stop cancels the loop and blocks until it has exited. Safe to call when the
// job is not running.
func (j *AnnounceJob) Stop() {
	j.mu.Lock()
	cancel := j.cancel
	j.cancel = nil
	j.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	j.wg.Wait()
}
