// Package topic implements the signal relay's subscription registry:
// consumers subscribe to topic patterns (exact, prefix-wildcard, or global),
// and the registry resolves which consumers a given message topic should
// fan out to. It also derives the topic string itself for the signal domain,
// where the topic is computed from a message's header and payload rather
// than carried explicitly on the wire.
//
// Unlike the single filter map the original relay kept (which made
// unsubscribe an O(n) scan and offered no reverse index from topic to
// consumer), this registry keeps symmetric topic->consumers and
// consumer->topics maps so subscribe and unsubscribe touch only the
// affected entries, and match does an O(1) exact lookup plus one pass over
// the registered patterns, never a pass over every consumer.
package topic

import (
	"container/list"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"unicode/utf8"

	"github.com/torq-systems/torq-core/internal/codec"
)

// ErrTopicNotFound is returned by Subscribe when auto-discovery is disabled
// and a pattern isn't in the configured available set.
var ErrTopicNotFound = errors.New("topic: not found in configured available set")

// MatchKind classifies how a registered pattern matches candidate topics.
type MatchKind uint8

const (
	MatchExact MatchKind = iota
	MatchPrefix
	MatchGlobal
)

// classify determines a pattern's MatchKind, mirroring the teacher's
// topic_matches: "*" is global, a trailing "*" is a prefix match, anything
// else is exact.
func classify(pattern string) (MatchKind, string) {
	if pattern == "*" {
		return MatchGlobal, ""
	}
	if strings.HasSuffix(pattern, "*") {
		return MatchPrefix, pattern[:len(pattern)-1]
	}
	return MatchExact, pattern
}

// matches reports whether topic satisfies pattern.
func matches(pattern, topicStr string) bool {
	kind, prefix := classify(pattern)
	switch kind {
	case MatchGlobal:
		return true
	case MatchPrefix:
		return strings.HasPrefix(topicStr, prefix)
	default:
		return pattern == topicStr
	}
}

// ExtractionStrategy determines how a message's topic string is derived
// from its header and payload, for domains (like signals) where the topic
// is computed rather than explicit. Exactly one strategy is active per
// deployed registry; it is a configuration choice, not a per-message
// dispatch across the four kinds.
type ExtractionStrategy uint8

const (
	// ExtractSourceType builds the topic from the message header's source
	// byte via a fixed lookup table.
	ExtractSourceType ExtractionStrategy = iota
	// ExtractInstrumentVenue builds the topic from the embedded
	// instrument's venue tag, the most common case and the one the LRU
	// cache exists for.
	ExtractInstrumentVenue
	// ExtractCustomField reads a specific TLV type's raw payload, trimmed
	// and validated as UTF-8, and uses it directly as the topic.
	ExtractCustomField
	// ExtractFixed always returns the same configured topic string.
	ExtractFixed
)

// ExtractionKey is the input to instrument/venue topic extraction.
type ExtractionKey struct {
	Venue      uint16
	Instrument uint64 // InstrumentId.ToU64()
}

// ExtractionConfig selects and parameterizes one of the four extraction
// strategies for a deployed registry.
type ExtractionConfig struct {
	Strategy ExtractionStrategy

	// SourceTable maps a header source byte to its topic, for
	// ExtractSourceType.
	SourceTable map[uint8]string

	// CustomFieldType names the TLV type whose raw payload is the topic,
	// for ExtractCustomField.
	CustomFieldType codec.TLVType

	// FixedTopic is the constant topic returned by ExtractFixed.
	FixedTopic string

	// DefaultTopic is where a message routes when extraction fails under
	// any strategy: unknown source byte, absent custom field, malformed
	// TLV, or an instrument type extraction doesn't recognize.
	DefaultTopic string
}

// DefaultExtractionConfig matches the registry's pre-existing behavior:
// resolve topics from the embedded instrument's venue.
func DefaultExtractionConfig() ExtractionConfig {
	return ExtractionConfig{
		Strategy:     ExtractInstrumentVenue,
		DefaultTopic: "signals.default",
	}
}

// Registry holds consumer subscriptions and resolves which consumers a
// topic should reach.
type Registry struct {
	mu sync.RWMutex

	topicToConsumers map[string]map[string]struct{}
	consumerToTopics map[string]map[string]struct{}

	cache    *venueCache
	cacheCap int

	extraction         ExtractionConfig
	available          map[string]struct{} // ignored when autoDiscover is true
	autoDiscover       bool
	extractionFailures atomic.Uint64
}

// NewRegistry creates an empty Registry with the default InstrumentVenue
// extraction strategy and auto-discovery enabled (any pattern may be
// subscribed to). cacheCap bounds the InstrumentVenue topic-string
// resolution cache (0 disables caching).
func NewRegistry(cacheCap int) *Registry {
	return NewRegistryWithConfig(cacheCap, DefaultExtractionConfig(), nil, true)
}

// NewRegistryWithConfig creates a Registry using extraction to derive topic
// strings and, when autoDiscover is false, rejecting Subscribe calls for any
// pattern not literally present in available (the default topic is always
// implicitly available, mirroring the original registry's behavior of
// pre-seeding its known-topics set from its own default).
func NewRegistryWithConfig(cacheCap int, extraction ExtractionConfig, available []string, autoDiscover bool) *Registry {
	known := make(map[string]struct{}, len(available)+1)
	for _, t := range available {
		known[t] = struct{}{}
	}
	if extraction.DefaultTopic != "" {
		known[extraction.DefaultTopic] = struct{}{}
	}
	return &Registry{
		topicToConsumers: make(map[string]map[string]struct{}),
		consumerToTopics: make(map[string]map[string]struct{}),
		cache:            newVenueCache(cacheCap),
		cacheCap:         cacheCap,
		extraction:       extraction,
		available:        known,
		autoDiscover:     autoDiscover,
	}
}

// Subscribe registers consumerID's interest in every pattern in patterns.
// When auto-discovery is disabled, every pattern must already be in the
// configured available set (checked as a literal string, same as a
// wildcard pattern like "arbitrage.*" is checked verbatim, not expanded);
// Subscribe rejects the whole call with ErrTopicNotFound otherwise, before
// registering any of the patterns.
func (r *Registry) Subscribe(consumerID string, patterns []string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.autoDiscover {
		for _, p := range patterns {
			if _, ok := r.available[p]; !ok {
				return fmt.Errorf("%w: %q", ErrTopicNotFound, p)
			}
		}
	}

	topics, ok := r.consumerToTopics[consumerID]
	if !ok {
		topics = make(map[string]struct{})
		r.consumerToTopics[consumerID] = topics
	}
	for _, p := range patterns {
		topics[p] = struct{}{}
		consumers, ok := r.topicToConsumers[p]
		if !ok {
			consumers = make(map[string]struct{})
			r.topicToConsumers[p] = consumers
		}
		consumers[consumerID] = struct{}{}
	}
	return nil
}

// Unsubscribe removes consumerID entirely, in O(len(its own topic set))
// rather than scanning every registered consumer.
func (r *Registry) Unsubscribe(consumerID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	topics, ok := r.consumerToTopics[consumerID]
	if !ok {
		return
	}
	for p := range topics {
		if consumers, ok := r.topicToConsumers[p]; ok {
			delete(consumers, consumerID)
			if len(consumers) == 0 {
				delete(r.topicToConsumers, p)
			}
		}
	}
	delete(r.consumerToTopics, consumerID)
}

// Match returns every consumer ID subscribed to a pattern that matches
// topicStr. Exact-pattern lookups are O(1); prefix and global patterns are
// checked individually, matching the teacher's linear scan but only over
// the non-exact pattern subset.
func (r *Registry) Match(topicStr string) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	seen := make(map[string]struct{})
	var out []string

	if consumers, ok := r.topicToConsumers[topicStr]; ok {
		for c := range consumers {
			if _, dup := seen[c]; !dup {
				seen[c] = struct{}{}
				out = append(out, c)
			}
		}
	}

	for pattern, consumers := range r.topicToConsumers {
		if pattern == topicStr {
			continue // already handled via the O(1) exact lookup above
		}
		kind, _ := classify(pattern)
		if kind == MatchExact {
			continue
		}
		if !matches(pattern, topicStr) {
			continue
		}
		for c := range consumers {
			if _, dup := seen[c]; !dup {
				seen[c] = struct{}{}
				out = append(out, c)
			}
		}
	}

	return out
}

// ConsumerCount reports how many consumers are currently registered.
func (r *Registry) ConsumerCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.consumerToTopics)
}

// ExtractionFailures reports how many ExtractTopic calls have fallen back to
// the configured default topic.
func (r *Registry) ExtractionFailures() uint64 {
	return r.extractionFailures.Load()
}

// ExtractTopic derives the routing topic string for a signal-domain message
// according to the registry's configured strategy. Extraction never fails
// the message outright: when the configured strategy can't produce a topic
// (unknown source byte, absent custom field, an instrument type the
// InstrumentVenue strategy doesn't recognize), the message routes to the
// configured default topic and the extraction-failure counter is
// incremented, so it still reaches default-topic subscribers instead of
// being dropped or broadcast unfiltered.
func (r *Registry) ExtractTopic(h codec.Header, payload []byte) string {
	if topicStr, ok := r.tryExtract(h, payload); ok {
		return topicStr
	}
	r.extractionFailures.Add(1)
	return r.extraction.DefaultTopic
}

func (r *Registry) tryExtract(h codec.Header, payload []byte) (string, bool) {
	switch r.extraction.Strategy {
	case ExtractSourceType:
		name, ok := r.extraction.SourceTable[h.Source]
		return name, ok

	case ExtractCustomField:
		views, err := codec.ParseTLVExtensions(payload)
		if err != nil {
			return "", false
		}
		for _, v := range views {
			if v.Type != r.extraction.CustomFieldType {
				continue
			}
			s := strings.TrimSpace(string(v.Payload))
			if s == "" || !utf8.ValidString(s) {
				return "", false
			}
			return s, true
		}
		return "", false

	case ExtractFixed:
		if r.extraction.FixedTopic == "" {
			return "", false
		}
		return r.extraction.FixedTopic, true

	default: // ExtractInstrumentVenue
		views, err := codec.ParseTLVExtensions(payload)
		if err != nil || len(views) == 0 {
			return "", false
		}
		inst, ok := instrumentFromView(views[0])
		if !ok {
			return "", false
		}
		key := ExtractionKey{Venue: inst.Venue, Instrument: inst.ToU64()}
		return r.ResolveInstrumentVenueTopic(key, buildVenueTopic), true
	}
}

// instrumentFromView extracts the embedded InstrumentId from whichever
// signal TLV type v carries, for the InstrumentVenue extraction strategy.
// Arbitrage signals carry two instruments; the source instrument is used,
// since that's the venue the opportunity originates on.
func instrumentFromView(v codec.TLVView) (codec.InstrumentId, bool) {
	switch v.Type {
	case codec.TLVMomentumSignal:
		m, err := codec.DecodeMomentumSignal(v.Payload)
		if err != nil {
			return codec.InstrumentId{}, false
		}
		return m.Instrument, true
	case codec.TLVLiquidationSignal:
		l, err := codec.DecodeLiquidationSignal(v.Payload)
		if err != nil {
			return codec.InstrumentId{}, false
		}
		return l.Instrument, true
	case codec.TLVArbitrageSignal:
		a, err := codec.DecodeArbitrageSignal(v.Payload)
		if err != nil {
			return codec.InstrumentId{}, false
		}
		return a.SourceInstrument, true
	case codec.TLVRiskAlert:
		r, err := codec.DecodeRiskAlert(v.Payload)
		if err != nil {
			return codec.InstrumentId{}, false
		}
		return r.Instrument, true
	default:
		return codec.InstrumentId{}, false
	}
}

// buildVenueTopic is the InstrumentVenue strategy's topic-string formatter:
// the canonical venue name, per the codec's venue enumeration.
func buildVenueTopic(k ExtractionKey) string {
	return "venue_" + codec.VenueName(k.Venue)
}

// ResolveInstrumentVenueTopic builds (and caches) the topic string for an
// InstrumentVenue-strategy extraction, avoiding repeated string formatting
// for the same (venue, instrument) pair on every message.
func (r *Registry) ResolveInstrumentVenueTopic(key ExtractionKey, build func(ExtractionKey) string) string {
	if r.cacheCap <= 0 {
		return build(key)
	}
	if v, ok := r.cache.get(key); ok {
		return v
	}
	v := build(key)
	r.cache.put(key, v)
	return v
}

// venueCache is a bounded LRU cache mapping ExtractionKey to a resolved
// topic string.
type venueCache struct {
	mu       sync.Mutex
	capacity int
	ll       *list.List
	items    map[ExtractionKey]*list.Element
}

type venueCacheEntry struct {
	key   ExtractionKey
	value string
}

func newVenueCache(capacity int) *venueCache {
	return &venueCache{
		capacity: capacity,
		ll:       list.New(),
		items:    make(map[ExtractionKey]*list.Element),
	}
}

func (c *venueCache) get(key ExtractionKey) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	el, ok := c.items[key]
	if !ok {
		return "", false
	}
	c.ll.MoveToFront(el)
	return el.Value.(*venueCacheEntry).value, true
}

func (c *venueCache) put(key ExtractionKey, value string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if el, ok := c.items[key]; ok {
		el.Value.(*venueCacheEntry).value = value
		c.ll.MoveToFront(el)
		return
	}
	el := c.ll.PushFront(&venueCacheEntry{key: key, value: value})
	c.items[key] = el
	if c.ll.Len() > c.capacity {
		oldest := c.ll.Back()
		if oldest != nil {
			c.ll.Remove(oldest)
			delete(c.items, oldest.Value.(*venueCacheEntry).key)
		}
	}
}
