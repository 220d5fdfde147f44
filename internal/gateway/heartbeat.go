package gateway

import (
	"sync"
	"time"
)

// monitor is the heartbeat monitor for one connection. It ticks on its
// own goroutine at the server-provided interval and hands each tick to
// the shard, which decides whether to probe or force a reconnect.
//
// cancel is race-free: a tick already in flight re-checks that it still
// belongs to the shard's current connection before doing anything.
type monitor struct {
	shard    *Shard
	interval time.Duration

	stop     chan struct{}
	stopOnce sync.Once
}

func newMonitor(s *Shard, interval time.Duration) *monitor {
	m := &monitor{
		shard:    s,
		interval: interval,
		stop:     make(chan struct{}),
	}
	go m.run()
	return m
}

func (m *monitor) run() {
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-m.stop:
			return
		case <-ticker.C:
			m.shard.beat(m)
		}
	}
}

// cancel stops the ticker. Idempotent.
func (m *monitor) cancel() {
	m.stopOnce.Do(func() { close(m.stop) })
}
