package core

// fetch_limiter.go bounds concurrent gateway refreshes.
//
// Cached reads are cheap and never limited; refreshes and prefetch sweeps
// hit the document gateway and re-parse whole tables, so they go through a
// semaphore. When every slot is occupied a caller waits up to maxWait for
// one to free up, then fails with ErrTooManyRefreshes.
//
// WaitForDrain lets shutdown hold the server open until in-flight
// refreshes finish.

import (
	"context"
	"errors"
	"time"
)

// ErrTooManyRefreshes is returned when all refresh slots stay occupied for
// the full wait window. Callers should retry after a short delay.
var ErrTooManyRefreshes = errors.New("too many concurrent refreshes, please try again later")

// DefaultMaxConcurrentRefreshes caps parallel gateway refreshes.
const DefaultMaxConcurrentRefreshes = 4

// DefaultRefreshMaxWait is how long a refresh waits for a slot before
// giving up.
const DefaultRefreshMaxWait = 15 * time.Second

// FetchLimiter is a semaphore over gateway-bound work. The zero value is
// not usable; construct with NewFetchLimiter.
type FetchLimiter struct {
	slots   chan struct{}
	maxWait time.Duration
}

// NewFetchLimiter creates a limiter allowing at most maxConcurrent
// simultaneous refreshes. Non-positive arguments fall back to the
// defaults.
func NewFetchLimiter(maxConcurrent int, maxWait time.Duration) *FetchLimiter {
	if maxConcurrent <= 0 {
		maxConcurrent = DefaultMaxConcurrentRefreshes
	}
	if maxWait <= 0 {
		maxWait = DefaultRefreshMaxWait
	}
	return &FetchLimiter{
		slots:   make(chan struct{}, maxConcurrent),
		maxWait: maxWait,
	}
}

// Acquire blocks until a slot frees up, the wait window expires, or ctx is
// cancelled. A nil return means the caller holds a slot and must Release
// it exactly once.
func (l *FetchLimiter) Acquire(ctx context.Context) error {
	waitCtx, cancel := context.WithTimeout(ctx, l.maxWait)
	defer cancel()

	select {
	case l.slots <- struct{}{}:
		return nil
	case <-waitCtx.Done():
		// Distinguish caller cancellation from slot starvation.
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return ErrTooManyRefreshes
	}
}

// TryAcquire grabs a slot without waiting. It reports whether the caller
// now holds one.
func (l *FetchLimiter) TryAcquire() bool {
	select {
	case l.slots <- struct{}{}:
		return true
	default:
		return false
	}
}

// Release frees a slot. Call exactly once per successful Acquire or
// TryAcquire.
func (l *FetchLimiter) Release() {
	<-l.slots
}

// Active returns how many slots are currently held.
func (l *FetchLimiter) Active() int {
	return len(l.slots)
}

// Available returns how many slots are free.
func (l *FetchLimiter) Available() int {
	return cap(l.slots) - len(l.slots)
}

// MaxConcurrent returns the slot capacity.
func (l *FetchLimiter) MaxConcurrent() int {
	return cap(l.slots)
}

// WaitForDrain blocks until no slots are held or ctx is cancelled. Used
// at shutdown so in-flight refreshes complete before the process exits.
func (l *FetchLimiter) WaitForDrain(ctx context.Context) error {
	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	for {
		if l.Active() == 0 {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// FetchLimiterStatus is a point-in-time snapshot for health reporting.
type FetchLimiterStatus struct {
	Active        int `json:"active"`
	Available     int `json:"available"`
	MaxConcurrent int `json:"max_concurrent"`
}

// Status snapshots the limiter for the health endpoint.
func (l *FetchLimiter) Status() FetchLimiterStatus {
	held := len(l.slots)
	return FetchLimiterStatus{
		Active:        held,
		Available:     cap(l.slots) - held,
		MaxConcurrent: cap(l.slots),
	}
}
