// Package relay implements one relay process's connection handling,
// fan-out, and domain-specific forwarding policy: the piece that accepts
// producer and consumer connections on a domain's Unix socket and forwards
// every valid framed message to every other connected peer (market data,
// execution, system) or to the subset the topic registry selects (signal).
package relay

import (
	"github.com/torq-systems/torq-core/internal/codec"
	"github.com/torq-systems/torq-core/internal/topic"
)

// DomainPolicy is the small per-domain specialization point the generic
// Engine delegates to: which domain it serves, where its socket lives, and
// whether a given inbound header should be forwarded at all. Topic-level
// routing for the signal domain happens one layer up, in the fan-out step,
// since a message can pass ShouldForward yet still route to zero, one, or
// many consumers.
type DomainPolicy interface {
	Domain() codec.RelayDomain
	SocketPath() string
	ShouldForward(h codec.Header) bool
}

// basePolicy implements the default ShouldForward shared by every concrete
// policy: accept iff the header's domain matches this relay's domain.
type basePolicy struct {
	domain     codec.RelayDomain
	socketPath string
}

func (p basePolicy) Domain() codec.RelayDomain { return p.domain }
func (p basePolicy) SocketPath() string        { return p.socketPath }
func (p basePolicy) ShouldForward(h codec.Header) bool {
	return h.RelayDomain == p.domain
}

// pathOrDefault returns path unless it is empty, in which case it returns
// fallback -- lets every NewXPolicy accept a config-file override while
// still working with no arguments during tests.
func pathOrDefault(path, fallback string) string {
	if path == "" {
		return fallback
	}
	return path
}

// MarketDataPolicy forwards every valid market-data message with no topic
// routing.
type MarketDataPolicy struct{ basePolicy }

// NewMarketDataPolicy returns the market-data relay policy bound to path, or
// the protocol's well-known default socket path if path is empty.
func NewMarketDataPolicy(path string) MarketDataPolicy {
	return MarketDataPolicy{basePolicy{domain: codec.DomainMarketData, socketPath: pathOrDefault(path, "/tmp/torq/market_data.sock")}}
}

// ExecutionPolicy forwards every valid execution message with no topic
// routing.
type ExecutionPolicy struct{ basePolicy }

// NewExecutionPolicy returns the execution relay policy bound to path, or
// the default socket path if path is empty.
func NewExecutionPolicy(path string) ExecutionPolicy {
	return ExecutionPolicy{basePolicy{domain: codec.DomainExecution, socketPath: pathOrDefault(path, "/tmp/torq/execution.sock")}}
}

// SystemPolicy forwards every valid system message with no topic routing.
type SystemPolicy struct{ basePolicy }

// NewSystemPolicy returns the system relay policy bound to path, or the
// default socket path if path is empty.
func NewSystemPolicy(path string) SystemPolicy {
	return SystemPolicy{basePolicy{domain: codec.DomainSystem, socketPath: pathOrDefault(path, "/tmp/torq/system.sock")}}
}

// SignalPolicy forwards valid signal messages; per-consumer topic
// filtering happens separately in the Engine's fan-out step via a
// topic.Registry, since ShouldForward only answers "does this message
// belong on this relay at all," not "which consumers want it." SignalPolicy
// also implements ConsumerFilter and ConsumerRegistrar, so the Engine
// consults its registry for both subscription bookkeeping and per-message
// routing decisions.
type SignalPolicy struct {
	basePolicy
	registry *topic.Registry
}

// NewSignalPolicy returns the signal relay policy bound to path (or the
// default socket path if path is empty), routing through registry for
// topic subscription and matching.
func NewSignalPolicy(path string, registry *topic.Registry) SignalPolicy {
	return SignalPolicy{
		basePolicy: basePolicy{domain: codec.DomainSignal, socketPath: pathOrDefault(path, "/tmp/torq/signals.sock")},
		registry:   registry,
	}
}

// RegisterConsumer records consumerID's topic subscriptions, invoked by the
// Engine when it receives a ConsumerRegistrationTLV handshake. It fails if
// auto-discovery is disabled and any requested pattern isn't in the
// registry's configured available set.
func (p SignalPolicy) RegisterConsumer(consumerID string, topics []string) error {
	return p.registry.Subscribe(consumerID, topics)
}

// UnregisterConsumer clears consumerID's subscriptions, invoked by the
// Engine when that consumer's connection closes.
func (p SignalPolicy) UnregisterConsumer(consumerID string) {
	p.registry.Unsubscribe(consumerID)
}

// AllowConsumer reports whether consumerID's subscriptions match the topic
// derived from this signal message. Topic derivation itself never fails: a
// message the registry's configured strategy can't extract a topic from
// routes to the default topic, so it still reaches default-topic
// subscribers instead of bypassing filtering entirely.
func (p SignalPolicy) AllowConsumer(consumerID string, h codec.Header, payload []byte) bool {
	topicStr := p.registry.ExtractTopic(h, payload)
	for _, id := range p.registry.Match(topicStr) {
		if id == consumerID {
			return true
		}
	}
	return false
}
