package transport

import (
	"context"
	"log"
	"sync/atomic"
	"time"
)

// LocalSink delivers payloads through an in-process channel: the fast path
// for actors bundled in the same relay process. It never serializes
// anything -- payload is handed to the channel as-is, so metrics credit it
// with the bytes a TLV encode would otherwise have cost.
type LocalSink struct {
	ch      chan []byte
	metrics *Metrics
	closed  atomic.Bool
}

// NewLocalSink creates a LocalSink backed by a channel of the given
// capacity. capacity should match the consumer's bounded-channel size
// (SPEC_FULL.md's per-consumer backpressure policy).
func NewLocalSink(capacity int, metrics *Metrics) *LocalSink {
	if metrics == nil {
		metrics = NewMetrics()
	}
	return &LocalSink{ch: make(chan []byte, capacity), metrics: metrics}
}

// Receive returns the channel a local consumer reads from.
func (l *LocalSink) Receive() <-chan []byte {
	return l.ch
}

// Send delivers payload, trying a non-blocking send first (the hot path
// target) and falling back to a context-respecting blocking send only if
// the channel is momentarily full.
func (l *LocalSink) Send(ctx context.Context, priority Priority, payload []byte) error {
	start := time.Now()
	l.metrics.recordPriority(priority)

	select {
	case l.ch <- payload:
		l.metrics.recordLocal(time.Since(start), len(payload))
		return nil
	default:
	}

	log.Printf("[transport:local] channel full, falling back to blocking send (%d bytes)", len(payload))

	select {
	case l.ch <- payload:
		l.metrics.recordLocal(time.Since(start), len(payload))
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close closes the underlying channel. Callers must not call Send after
// Close.
func (l *LocalSink) Close() error {
	l.closed.Store(true)
	close(l.ch)
	return nil
}

// Health reports Healthy while the channel hasn't been closed yet, and
// Unhealthy once Close has been called.
func (l *LocalSink) Health() Health {
	if l.closed.Load() {
		return HealthUnhealthy
	}
	return HealthHealthy
}
