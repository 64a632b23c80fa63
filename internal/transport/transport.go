// Package transport implements Torq's actor transport abstraction: a
// uniform Sink interface backed by three concrete mechanisms -- an
// in-process channel for bundled actors, a Unix domain socket for
// same-node cross-process delivery, and a pluggable network transport
// (NATS) for cross-node delivery.
package transport

import (
	"context"
	"errors"
	"sync/atomic"
	"time"
)

// Priority classifies a send for metrics and, on non-local transports, for
// future queue-ordering use. Local sends always take the fast path
// regardless of priority.
type Priority uint8

const (
	PriorityLow Priority = iota
	PriorityNormal
	PriorityHigh
	PriorityCritical
)

// Sink is the uniform interface every transport mechanism implements.
type Sink interface {
	// Send delivers payload, respecting ctx cancellation where the
	// underlying mechanism can block (Unix socket write, network send).
	Send(ctx context.Context, priority Priority, payload []byte) error
	// Close releases any resources the sink holds (connections, channels).
	Close() error
	// Health reports the sink's current operational status. Unlike a plain
	// bool, Unknown lets a caller distinguish "confirmed unhealthy" from
	// "never checked" or "status not meaningful right now" instead of
	// defaulting one of those cases to a false positive or negative.
	Health() Health
}

// Health is a sink's tri-state operational status.
type Health uint8

const (
	HealthUnknown Health = iota
	HealthHealthy
	HealthUnhealthy
)

func (h Health) String() string {
	switch h {
	case HealthHealthy:
		return "healthy"
	case HealthUnhealthy:
		return "unhealthy"
	default:
		return "unknown"
	}
}

// NetworkTransport is the pluggable cross-node delivery mechanism. The NATS
// implementation lives in nats.go; tests can substitute a fake.
type NetworkTransport interface {
	Send(payload []byte) error
	IsHealthy() bool
}

// BatchResult is the per-item outcome of a batch send: len(Errors) always
// equals the number of payloads submitted, with a nil entry at index i
// meaning that item succeeded.
type BatchResult struct {
	Errors []error
}

// AllSucceeded reports whether every item in the batch succeeded.
func (r BatchResult) AllSucceeded() bool {
	for _, err := range r.Errors {
		if err != nil {
			return false
		}
	}
	return true
}

// Failures returns how many items in the batch failed.
func (r BatchResult) Failures() int {
	n := 0
	for _, err := range r.Errors {
		if err != nil {
			n++
		}
	}
	return n
}

// BatchSink is implemented by sinks that can send a batch of payloads as a
// unit rather than one Send call at a time -- the circuit breaker wraps
// this to fail an entire batch fast with one check instead of one per item.
type BatchSink interface {
	SendBatch(ctx context.Context, priority Priority, payloads [][]byte) BatchResult
}

// SendBatch sends payloads through sink, using sink's own SendBatch if it
// implements BatchSink, or falling back to one Send call per payload
// (continuing past a failed item so one bad payload doesn't block the
// rest of the batch) if it doesn't.
func SendBatch(ctx context.Context, sink Sink, priority Priority, payloads [][]byte) BatchResult {
	if bs, ok := sink.(BatchSink); ok {
		return bs.SendBatch(ctx, priority, payloads)
	}
	result := BatchResult{Errors: make([]error, len(payloads))}
	for i, p := range payloads {
		result.Errors[i] = sink.Send(ctx, priority, p)
	}
	return result
}

var (
	// ErrLocalChannelClosed names the state of a LocalSink whose channel
	// has been closed. LocalSink.Send does not return it: Send after Close
	// is not allowed (see LocalSink.Close).
	ErrLocalChannelClosed = errors.New("transport: local channel closed")
	// ErrNotConnected is returned by UnixSink.Send when no connection is
	// currently established.
	ErrNotConnected = errors.New("transport: not connected")
)

// Metrics accumulates per-transport send counters, mirroring the
// teacher's TransportMetrics: per-mechanism counts and latency totals, a
// "serialization eliminated" byte estimate for the local fast path (bytes
// that would have been TLV-encoded had the message gone over a socket
// instead of an Arc/pointer hand-off), and a per-priority breakdown.
type Metrics struct {
	LocalSends   atomic.Uint64
	UnixSends    atomic.Uint64
	NetworkSends atomic.Uint64

	LocalLatencyTotalNs   atomic.Uint64
	UnixLatencyTotalNs    atomic.Uint64
	NetworkLatencyTotalNs atomic.Uint64

	SerializationEliminatedBytes atomic.Uint64

	CriticalSends atomic.Uint64
	HighSends     atomic.Uint64
	NormalSends   atomic.Uint64
	LowSends      atomic.Uint64
}

// NewMetrics returns a zeroed Metrics block.
func NewMetrics() *Metrics {
	return &Metrics{}
}

func (m *Metrics) recordPriority(p Priority) {
	switch p {
	case PriorityCritical:
		m.CriticalSends.Add(1)
	case PriorityHigh:
		m.HighSends.Add(1)
	case PriorityNormal:
		m.NormalSends.Add(1)
	case PriorityLow:
		m.LowSends.Add(1)
	}
}

func (m *Metrics) recordLocal(d time.Duration, messageSize int) {
	m.LocalSends.Add(1)
	m.LocalLatencyTotalNs.Add(uint64(d.Nanoseconds()))
	m.SerializationEliminatedBytes.Add(uint64(messageSize))
}

func (m *Metrics) recordUnix(d time.Duration) {
	m.UnixSends.Add(1)
	m.UnixLatencyTotalNs.Add(uint64(d.Nanoseconds()))
}

func (m *Metrics) recordNetwork(d time.Duration) {
	m.NetworkSends.Add(1)
	m.NetworkLatencyTotalNs.Add(uint64(d.Nanoseconds()))
}

// AvgLocalLatencyNs returns the average local-send latency in nanoseconds,
// or 0 if no local sends have been recorded.
func (m *Metrics) AvgLocalLatencyNs() float64 {
	sends := m.LocalSends.Load()
	if sends == 0 {
		return 0
	}
	return float64(m.LocalLatencyTotalNs.Load()) / float64(sends)
}

// SerializationEliminatedMB returns how many megabytes of TLV encoding the
// local fast path has avoided by passing messages as in-memory values.
func (m *Metrics) SerializationEliminatedMB() float64 {
	return float64(m.SerializationEliminatedBytes.Load()) / (1 << 20)
}
