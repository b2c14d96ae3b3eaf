package core

// submit_limiter.go bounds how many submissions are in flight to the
// ingestion endpoint at once. Script endpoints throttle aggressively, so
// bursts queue here for up to maxWait and then fail fast with
// ErrTooManySubmissions instead of piling up upstream.

import (
	"context"
	"errors"
	"sync/atomic"
	"time"
)

// ErrTooManySubmissions is returned when no slot frees up within the wait time.
var ErrTooManySubmissions = errors.New("too many submissions in progress, please try again later")

// DefaultMaxConcurrentSubmits is the default limit for parallel forwards.
const DefaultMaxConcurrentSubmits = 4

// DefaultSubmitWaitTime is how long to wait for a slot before rejecting.
const DefaultSubmitWaitTime = 10 * time.Second

// SubmitLimiter is a counting semaphore with a bounded wait.
type SubmitLimiter struct {
	slots   chan struct{}
	maxWait time.Duration
	active  atomic.Int64
}

// LimiterStatus is a point-in-time view of a SubmitLimiter.
type LimiterStatus struct {
	Active        int `json:"active"`
	Available     int `json:"available"`
	MaxConcurrent int `json:"max_concurrent"`
}

// NewSubmitLimiter allows at most maxConcurrent forwards; non-positive
// arguments fall back to the defaults.
func NewSubmitLimiter(maxConcurrent int, maxWait time.Duration) *SubmitLimiter {
	if maxConcurrent <= 0 {
		maxConcurrent = DefaultMaxConcurrentSubmits
	}
	if maxWait <= 0 {
		maxWait = DefaultSubmitWaitTime
	}
	return &SubmitLimiter{
		slots:   make(chan struct{}, maxConcurrent),
		maxWait: maxWait,
	}
}

// Acquire takes a slot, waiting up to maxWait. Callers must Release.
// A cancelled ctx returns ctx.Err(); an expired wait returns ErrTooManySubmissions.
func (l *SubmitLimiter) Acquire(ctx context.Context) error {
	timer := time.NewTimer(l.maxWait)
	defer timer.Stop()

	select {
	case l.slots <- struct{}{}:
		l.active.Add(1)
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return ErrTooManySubmissions
	}
}

// Release frees a slot taken by Acquire.
func (l *SubmitLimiter) Release() {
	l.active.Add(-1)
	<-l.slots
}

// Status returns the current limiter state.
func (l *SubmitLimiter) Status() LimiterStatus {
	return LimiterStatus{
		Active:        int(l.active.Load()),
		Available:     cap(l.slots) - len(l.slots),
		MaxConcurrent: cap(l.slots),
	}
}

// WaitForDrain blocks until no submission is in flight or ctx ends.
// Used during shutdown so accepted forms are not dropped mid-request.
func (l *SubmitLimiter) WaitForDrain(ctx context.Context) error {
	ticker := time.NewTicker(50 * time.Millisecond)
	defer ticker.Stop()

	for l.active.Load() > 0 {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
	return nil
}
