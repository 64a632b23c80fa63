package circuitbreaker

import (
	"context"

	"github.com/torq-systems/torq-core/internal/transport"
)

// Sink wraps a transport.Sink with a Breaker, failing calls fast while the
// wrapped sink is unhealthy instead of piling up blocked sends against it.
type Sink struct {
	inner   transport.Sink
	breaker *Breaker
}

// NewSink wraps inner with a Breaker configured by cfg.
func NewSink(inner transport.Sink, cfg Config) *Sink {
	return &Sink{inner: inner, breaker: New(cfg)}
}

// Breaker returns the sink's underlying Breaker, for callers that want to
// inspect Stats or force a state transition in tests.
func (s *Sink) Breaker() *Breaker {
	return s.breaker
}

// Send forwards payload to the wrapped sink if the breaker currently admits
// calls, recording the outcome. It fails fast with ErrCircuitOpen without
// touching the wrapped sink when the breaker is refusing calls.
func (s *Sink) Send(ctx context.Context, priority transport.Priority, payload []byte) error {
	if !s.breaker.Allow() {
		return ErrCircuitOpen
	}
	err := s.inner.Send(ctx, priority, payload)
	s.breaker.RecordResult(err == nil)
	return err
}

// SendBatch sends payloads as a unit: on Open it synthetically fails every
// item with ErrCircuitOpen without forwarding any of them to the wrapped
// sink, mirroring send_batch/send_batch_prioritized's direct state read
// rather than Allow's per-call recovery check. In any other state the whole
// batch is forwarded and exactly one aggregate result -- success only if
// every item succeeded -- is recorded against the breaker.
func (s *Sink) SendBatch(ctx context.Context, priority transport.Priority, payloads [][]byte) transport.BatchResult {
	if s.breaker.State() == Open {
		result := transport.BatchResult{Errors: make([]error, len(payloads))}
		for i := range payloads {
			result.Errors[i] = ErrCircuitOpen
		}
		return result
	}

	result := transport.SendBatch(ctx, s.inner, priority, payloads)
	s.breaker.RecordResult(result.AllSucceeded())
	return result
}

// Close delegates to the wrapped sink.
func (s *Sink) Close() error {
	return s.inner.Close()
}

// Health delegates to the wrapped sink's Health. The circuit breaker's open
// state reflects call failures, not connectivity, so it doesn't affect the
// sink's reported health.
func (s *Sink) Health() transport.Health {
	return s.inner.Health()
}
