// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 GramSeva Foundation

package offline

import (
	"context"
	"sync"
	"time"
)

// Job runs the sync manager as a background drainer. The job is idle
// until Start is called; a failed pass is logged and retried on the
// next tick rather than stopping the drainer.
type Job struct {
	manager *Manager

	mu     sync.Mutex
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewJob creates a Job around manager.
func NewJob(manager *Manager) *Job {
	return &Job{manager: manager}
}

// Start stops any previously running job, then launches a background
// goroutine that drains the queue every interval. If interval is zero
// or negative it defaults to 30 seconds. The goroutine exits when ctx
// is cancelled or Stop is called.
func (j *Job) Start(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = 30 * time.Second
	}

	j.Stop()

	j.mu.Lock()
	jobCtx, cancel := context.WithCancel(ctx)
	j.cancel = cancel
	j.wg.Add(1)
	j.mu.Unlock()

	go func() {
		defer j.wg.Done()
		t := time.NewTicker(interval)
		defer t.Stop()

		for {
			select {
			case <-jobCtx.Done():
				return
			case <-t.C:
				if _, err := j.manager.DrainOnce(jobCtx); err != nil {
					j.manager.logger.Err(err).Msg("offline sync pass failed")
				}
			}
		}
	}()
}

// Stop cancels the background goroutine's context and blocks until it
// has fully exited. Safe to call when the job is not running (no-op in
// that case).
func (j *Job) Stop() {
	j.mu.Lock()
	cancel := j.cancel
	j.cancel = nil
	j.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	j.wg.Wait()
}
