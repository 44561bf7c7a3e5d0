package ratelimit

import (
	"context"
	"sync"
	"time"
)

// Limiter is a token bucket shared by every call to one upstream API
type Limiter struct {
	rate       float64 // tokens per second
	burst      float64
	tokens     float64
	lastRefill time.Time
	now        func() time.Time
	mu         sync.Mutex
}

// New creates a limiter that refills at rps and holds at most burst tokens.
// A non-positive rps falls back to 1; burst is at least 1.
func New(rps float64, burst int) *Limiter {
	if rps <= 0 {
		rps = 1.0
	}
	if burst < 1 {
		burst = 1
	}
	l := &Limiter{
		rate:  rps,
		burst: float64(burst),
		now:   time.Now,
	}
	l.tokens = l.burst
	l.lastRefill = l.now()
	return l
}

// allow takes a token if one is available without waiting
func (l *Limiter) allow() bool {
	_, ok := l.take()
	return ok
}

// Wait blocks until a token is available or ctx is done
func (l *Limiter) Wait(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	for {
		wait, ok := l.take()
		if ok {
			return nil
		}

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}

// take refills the bucket and takes one token. When the bucket is empty it
// reports how long until the next token.
func (l *Limiter) take() (time.Duration, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	l.tokens += now.Sub(l.lastRefill).Seconds() * l.rate
	if l.tokens > l.burst {
		l.tokens = l.burst
	}
	l.lastRefill = now

	if l.tokens >= 1.0 {
		l.tokens -= 1.0
		return 0, true
	}

	missing := 1.0 - l.tokens
	return time.Duration(missing / l.rate * float64(time.Second)), false
}
