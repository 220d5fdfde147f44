package ratelimit

import (
	"context"
	"time"

	"golang.org/x/time/rate"
)

// IdentifyLimiter spaces identify handshakes across every shard that
// shares a token. The gateway rejects sessions identified faster than
// one per interval, so all shards in a fleet wait on the same limiter
// before sending identify.
type IdentifyLimiter struct {
	limiter *rate.Limiter
}

// NewIdentifyLimiter allows one identify per interval, with the first
// permitted immediately.
func NewIdentifyLimiter(interval time.Duration) *IdentifyLimiter {
	return &IdentifyLimiter{
		limiter: rate.NewLimiter(rate.Every(interval), 1),
	}
}

// Wait blocks until an identify slot is available or ctx is done.
func (l *IdentifyLimiter) Wait(ctx context.Context) error {
	return l.limiter.Wait(ctx)
}
