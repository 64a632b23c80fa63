package transport

import (
	"context"
	"time"

	"github.com/klauspost/compress/s2"
	"github.com/nats-io/nats.go"
)

// compressionThreshold is the payload size above which NATSTransport
// applies S2 compression before publishing. Small framed TLV messages
// (the common case) skip compression entirely -- the per-message overhead
// of the S2 frame header isn't worth it below this size.
const compressionThreshold = 4096

// NATSTransport is the cross-node NetworkTransport implementation,
// publishing framed messages to a fixed NATS subject.
type NATSTransport struct {
	conn    *nats.Conn
	subject string
	metrics *Metrics
}

// NewNATSTransport connects to a NATS server at url and binds publishes to
// subject (conventionally one subject per relay domain, e.g.
// "torq.market_data").
func NewNATSTransport(url, subject string, metrics *Metrics) (*NATSTransport, error) {
	conn, err := nats.Connect(url, nats.Name("torq-core"))
	if err != nil {
		return nil, err
	}
	if metrics == nil {
		metrics = NewMetrics()
	}
	return &NATSTransport{conn: conn, subject: subject, metrics: metrics}, nil
}

// Send publishes payload to the transport's subject, transparently
// compressing it with S2 first when it exceeds compressionThreshold.
func (n *NATSTransport) Send(payload []byte) error {
	start := time.Now()
	out := payload
	if len(payload) > compressionThreshold {
		out = s2.Encode(nil, payload)
	}
	if err := n.conn.Publish(n.subject, out); err != nil {
		return err
	}
	n.metrics.recordNetwork(time.Since(start))
	return nil
}

// IsHealthy reports whether the underlying NATS connection is currently
// connected.
func (n *NATSTransport) IsHealthy() bool {
	return n.conn != nil && n.conn.IsConnected()
}

// NetworkSink adapts a NetworkTransport to the Sink interface used by the
// rest of the actor transport layer.
type NetworkSink struct {
	transport NetworkTransport
	metrics   *Metrics
}

// NewNetworkSink wraps transport for use as a Sink.
func NewNetworkSink(transport NetworkTransport, metrics *Metrics) *NetworkSink {
	if metrics == nil {
		metrics = NewMetrics()
	}
	return &NetworkSink{transport: transport, metrics: metrics}
}

// Send publishes payload over the wrapped NetworkTransport. priority is
// recorded in metrics only; payloads reach the underlying transport in call
// order whatever their priority.
func (n *NetworkSink) Send(ctx context.Context, priority Priority, payload []byte) error {
	n.metrics.recordPriority(priority)
	return n.transport.Send(payload)
}

// Close is a no-op for NetworkSink; the underlying NetworkTransport's
// connection lifecycle is managed by its constructor/owner.
func (n *NetworkSink) Close() error {
	return nil
}

// Health reports Healthy or Unhealthy from the wrapped NetworkTransport's
// IsHealthy check.
func (n *NetworkSink) Health() Health {
	if n.transport.IsHealthy() {
		return HealthHealthy
	}
	return HealthUnhealthy
}
