package monitor

import (
	"context"
	"sync"
	"time"
)

// Worker runs the monitor as a background consumer. The worker is idle
// until Start is called and survives transient processing errors by
// retrying on the next tick.
type Worker struct {
	monitor *Monitor

	mu     sync.Mutex
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewWorker creates a Worker around monitor.
func NewWorker(monitor *Monitor) *Worker {
	return &Worker{monitor: monitor}
}

// Start stops any previously running worker, then launches a background
// goroutine that processes the journal every interval. If interval is
// zero or negative it defaults to 5 seconds. The goroutine exits when
// ctx is cancelled or Stop is called.
func (w *Worker) Start(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = 5 * time.Second
	}

	w.Stop()

	w.mu.Lock()
	jobCtx, cancel := context.WithCancel(ctx)
	w.cancel = cancel
	w.wg.Add(1)
	w.mu.Unlock()

	go func() {
		defer w.wg.Done()
		t := time.NewTicker(interval)
		defer t.Stop()

		for {
			select {
			case <-jobCtx.Done():
				return
			case <-t.C:
				if _, err := w.monitor.ProcessOnce(jobCtx); err != nil {
					w.monitor.logger.Err(err).Msg("security monitor pass failed")
				}
			}
		}
	}()
}

// Stop cancels the background goroutine's context and blocks until it
// has fully exited. Safe to call when the worker is not running (no-op
// in that case).
func (w *Worker) Stop() {
	w.mu.Lock()
	cancel := w.cancel
	w.cancel = nil
	w.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	w.wg.Wait()
}
