// Package ratelimit paces outbound Discogs requests. One Limiter is sized
// per API credential and shared by every run using that credential, so the
// quota stays singular even when multiple owners sync concurrently.
package ratelimit

import (
	"context"
	"time"

	"golang.org/x/time/rate"
)

// Limiter is a token bucket refilled continuously at quota/period.
// It is safe for concurrent use.
type Limiter struct {
	l *rate.Limiter
}

// New builds a Limiter releasing at most quota acquisitions per period.
// burst is clamped to [1, quota]; the default burst of 1 keeps back-to-back
// acquisitions spaced at period/quota instead of front-loading the window.
func New(quota int, period time.Duration, burst int) *Limiter {
	if quota < 1 {
		quota = 1
	}
	if burst < 1 {
		burst = 1
	}
	if burst > quota {
		burst = quota
	}
	interval := period / time.Duration(quota)
	return &Limiter{l: rate.NewLimiter(rate.Every(interval), burst)}
}

// Acquire blocks until one more request may be issued, or until ctx is done,
// in which case the ctx error is returned and no token is consumed.
func (l *Limiter) Acquire(ctx context.Context) error {
	return l.l.Wait(ctx)
}
