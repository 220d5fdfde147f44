// Package ratelimit implements the outbound send quotas imposed by the
// gateway.
//
// Two mechanisms live here:
//   - Bucket: a FIFO admission queue releasing at most capacity
//     operations per window. Each shard owns a global bucket (120/60s)
//     and a presence bucket (5/60s).
//   - IdentifyLimiter: a fleet-wide throttle spacing identify
//     handshakes, since the server allows only one new session per
//     token in a short interval.
package ratelimit
