package service

import (
	"context"
	"time"

	"github.com/inkpress/content-platform/internal/domain"
	"github.com/inkpress/content-platform/internal/observability"
	"github.com/inkpress/content-platform/internal/repository"
)

// FallbackClientIP stands in when the transport could not determine a client
// address. Unknown callers share one bucket rather than bypassing the limit.
const FallbackClientIP = "unknown"

// RateLimiter is a soft sliding-window limiter. Every call records an event
// first and decides second, so rejected traffic still counts against the
// window. The count-then-decide pair is not atomic across the request
// population; a brief overshoot under heavy concurrency is accepted.
type RateLimiter struct {
	events    repository.EventStore
	window    time.Duration
	retention time.Duration
	threshold int64
	now       Clock
}

func NewRateLimiter(events repository.EventStore, window, retention time.Duration, threshold int64, now Clock) *RateLimiter {
	if retention < window {
		retention = window
	}
	return &RateLimiter{
		events:    events,
		window:    window,
		retention: retention,
		threshold: threshold,
		now:       orSystemClock(now),
	}
}

// Admit reports whether the request may proceed. A storage error is
// propagated so the transport layer can choose its failure mode.
func (l *RateLimiter) Admit(ctx context.Context, ip, resourceKey string) (bool, error) {
	if ip == "" {
		ip = FallbackClientIP
	}
	now := l.now()
	key := ip + "|" + resourceKey
	if err := l.events.Record(ctx, domain.RateEvent{ClientKey: key, Timestamp: now}, l.retention); err != nil {
		observability.RecordRateLimitDecision(ctx, resourceKey, "backend_error")
		return false, err
	}
	count, err := l.events.CountSince(ctx, key, now.Add(-l.window))
	if err != nil {
		observability.RecordRateLimitDecision(ctx, resourceKey, "backend_error")
		return false, err
	}
	if count > l.threshold {
		observability.RecordRateLimitDecision(ctx, resourceKey, "deny")
		return false, nil
	}
	observability.RecordRateLimitDecision(ctx, resourceKey, "allow")
	return true, nil
}

// Window is exposed for Retry-After hints.
func (l *RateLimiter) Window() time.Duration { return l.window }

// Threshold is exposed for X-RateLimit headers.
func (l *RateLimiter) Threshold() int64 { return l.threshold }
