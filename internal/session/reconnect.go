package session

import (
	"context"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// reconnector schedules redial attempts with exponential backoff.
type reconnector struct {
	backoff    *backoff.ExponentialBackOff
	maxRetries int
	retryCount int
	reconnects int
	mu         sync.Mutex
}

func newReconnector(base, maxDelay time.Duration, maxRetries int) *reconnector {
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = base
	bo.MaxInterval = maxDelay
	bo.MaxElapsedTime = 0 // retries are bounded by maxRetries and the boot timeout
	bo.Reset()

	return &reconnector{
		backoff:    bo,
		maxRetries: maxRetries,
	}
}

// next returns the delay before the following attempt, or false once
// maxRetries consecutive attempts have failed.
func (r *reconnector) next() (time.Duration, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.retryCount++
	if r.retryCount > r.maxRetries {
		return 0, false
	}
	return r.backoff.NextBackOff(), true
}

// reset is called once the daemon accepts a connection.
func (r *reconnector) reset() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.backoff.Reset()
	r.retryCount = 0
}

func (r *reconnector) attempts() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.retryCount
}

func (r *reconnector) countReconnect() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.reconnects++
}

func (r *reconnector) reconnectCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.reconnects
}

// wait blocks for delay or until ctx is done.
func wait(ctx context.Context, delay time.Duration) error {
	timer := time.NewTimer(delay)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
