// Package clock provides a cached, low-overhead source of nanosecond
// timestamps for the hot message-building path, plus the overflow-checked
// and external-timestamp-parsing helpers that feed it.
//
// The design avoids a syscall per message: a single background goroutine
// samples real wall time on a ticker and stores it into an atomic.Uint64;
// every other caller just reads that value.
package clock

import (
	"sync"
	"sync/atomic"
	"time"
)

// DefaultUpdateInterval balances cached-time accuracy against update
// overhead. A consumer that needs tighter accuracy can build its own
// CachedClock with a shorter interval.
const DefaultUpdateInterval = time.Millisecond

// CachedClock periodically samples wall-clock time into an atomic so hot
// paths never pay for a time.Now() syscall.
type CachedClock struct {
	currentNs atomic.Uint64
	done      chan struct{}
}

// NewCachedClock creates a clock seeded with the current time and starts its
// background updater goroutine. Callers that want to stop the updater
// (tests, short-lived processes) should call Stop.
func NewCachedClock(updateInterval time.Duration) *CachedClock {
	c := &CachedClock{done: make(chan struct{})}
	c.currentNs.Store(fetchRealTimeNs())
	go c.runUpdater(updateInterval)
	return c
}

func (c *CachedClock) runUpdater(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			c.currentNs.Store(fetchRealTimeNs())
		case <-c.done:
			return
		}
	}
}

// NowNanos returns the cached timestamp: a single atomic load, no syscall.
func (c *CachedClock) NowNanos() uint64 {
	return c.currentNs.Load()
}

// Stop terminates the background updater goroutine. After Stop, NowNanos
// keeps returning the last sampled value.
func (c *CachedClock) Stop() {
	close(c.done)
}

func fetchRealTimeNs() uint64 {
	return SafeDurationToNanos(time.Since(time.Unix(0, 0)))
}

var (
	globalClock     *CachedClock
	globalClockOnce sync.Once
)

// InitGlobal starts the package-level global clock with DefaultUpdateInterval.
// Safe to call more than once; only the first call takes effect.
func InitGlobal() {
	globalClockOnce.Do(func() {
		globalClock = NewCachedClock(DefaultUpdateInterval)
	})
}

// FastTimestampNanos returns the global clock's cached timestamp,
// initializing the global clock on first use. This is the primary interface
// for high-frequency message timestamping.
func FastTimestampNanos() uint64 {
	InitGlobal()
	return globalClock.NowNanos()
}

// PreciseTimestampNanos always takes the syscall path. Reserve it for
// operations that need perfect accuracy over speed -- compliance records,
// health checks -- not the per-message hot path.
func PreciseTimestampNanos() uint64 {
	return fetchRealTimeNs()
}
