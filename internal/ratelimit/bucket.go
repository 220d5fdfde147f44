package ratelimit

import (
	"log/slog"
	"sync"
	"time"
)

// Bucket is a fixed-window admission queue. Queue never blocks the
// caller and never drops an operation; backpressure is expressed as
// queuing delay. A single drain goroutine releases operations in FIFO
// order, at most capacity per window.
type Bucket struct {
	name     string
	capacity int
	window   time.Duration
	logger   *slog.Logger

	mu      sync.Mutex
	pending []func()
	stopped bool

	wake chan struct{}
	done chan struct{}

	stopOnce sync.Once
}

// NewBucket creates a bucket and starts its drain goroutine.
func NewBucket(name string, capacity int, window time.Duration, logger *slog.Logger) *Bucket {
	if logger == nil {
		logger = slog.Default()
	}

	b := &Bucket{
		name:     name,
		capacity: capacity,
		window:   window,
		logger:   logger,
		wake:     make(chan struct{}, 1),
		done:     make(chan struct{}),
	}

	go b.drain()

	return b
}

// Queue appends op to the pending queue and returns immediately. After
// Stop the operation is discarded.
func (b *Bucket) Queue(op func()) {
	b.mu.Lock()
	if b.stopped {
		b.mu.Unlock()
		return
	}
	b.pending = append(b.pending, op)
	b.mu.Unlock()

	select {
	case b.wake <- struct{}{}:
	default:
	}
}

// Pending returns the number of operations awaiting admission.
func (b *Bucket) Pending() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.pending)
}

// Stop terminates the drain goroutine. Pending operations are
// discarded; queued sends are best-effort by contract. Idempotent.
func (b *Bucket) Stop() {
	b.stopOnce.Do(func() {
		b.mu.Lock()
		b.stopped = true
		b.pending = nil
		b.mu.Unlock()
		close(b.done)
	})
}

// drain releases pending operations, replenishing the full token count
// once per window. When tokens run out it sleeps until the window
// rolls over, which is what keeps any window's releases at or below
// capacity.
func (b *Bucket) drain() {
	tokens := b.capacity
	windowStart := time.Now()

	for {
		op, ok := b.next()
		if !ok {
			return
		}

		if time.Since(windowStart) >= b.window {
			tokens = b.capacity
			windowStart = time.Now()
		}

		if tokens == 0 {
			wait := b.window - time.Since(windowStart)
			b.logger.Debug("bucket exhausted, delaying send",
				"bucket", b.name,
				"wait", wait,
			)
			select {
			case <-time.After(wait):
			case <-b.done:
				return
			}
			tokens = b.capacity
			windowStart = time.Now()
		}

		tokens--
		op()
	}
}

// next pops the queue head, parking until an operation arrives or the
// bucket stops.
func (b *Bucket) next() (func(), bool) {
	for {
		b.mu.Lock()
		if len(b.pending) > 0 {
			op := b.pending[0]
			b.pending = b.pending[1:]
			b.mu.Unlock()
			return op, true
		}
		b.mu.Unlock()

		select {
		case <-b.wake:
		case <-b.done:
			return nil, false
		}
	}
}
