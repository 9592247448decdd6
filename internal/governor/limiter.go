package governor

import (
	"context"
	"sync"
	"time"

	"github.com/superalgorithm/superalgorithm/pkg/errors"
)

// Limiter enforces a rolling budget of at most limit calls within any
// trailing window. It keeps the timestamps of the calls inside the window.
// A limit of zero or less disables limiting. Safe for concurrent use.
type Limiter struct {
	mu     sync.Mutex
	limit  int
	window time.Duration
	stamps []time.Time
	now    func() time.Time
}

// NewLimiter creates a limiter allowing limit calls per window.
func NewLimiter(limit int, window time.Duration) *Limiter {
	return &Limiter{
		limit:  limit,
		window: window,
		stamps: make([]time.Time, 0, max(limit, 0)),
		now:    time.Now,
	}
}

// evict drops timestamps that left the window. Must be called with mu held.
func (l *Limiter) evict(now time.Time) {
	cutoff := now.Add(-l.window)
	i := 0

	for i < len(l.stamps) && !l.stamps[i].After(cutoff) {
		i++
	}

	l.stamps = l.stamps[i:]
}

// TryAcquire takes one unit of budget if available. Otherwise it returns
// false and the time until the oldest call leaves the window.
func (l *Limiter) TryAcquire() (bool, time.Duration) {
	if l.limit <= 0 {
		return true, 0
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	l.evict(now)

	if len(l.stamps) < l.limit {
		l.stamps = append(l.stamps, now)

		return true, 0
	}

	return false, l.stamps[0].Add(l.window).Sub(now)
}

// Wait blocks until a unit of budget is available or ctx is done.
func (l *Limiter) Wait(ctx context.Context) error {
	for {
		ok, wait := l.TryAcquire()
		if ok {
			return nil
		}

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()

			return errors.Wrap(errors.ErrCodeRateLimited, "aborted while waiting for rate limit budget", ctx.Err())
		case <-timer.C:
		}
	}
}

// Remaining returns the budget left in the current window.
// It returns -1 when limiting is disabled.
func (l *Limiter) Remaining() int {
	if l.limit <= 0 {
		return -1
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	l.evict(l.now())

	return l.limit - len(l.stamps)
}
