package topic

import (
	"errors"
	"fmt"
	"sort"
	"testing"

	"github.com/torq-systems/torq-core/internal/codec"
)

func sortedStrings(s []string) []string {
	out := append([]string(nil), s...)
	sort.Strings(out)
	return out
}

// TestExactMatch confirms an exact-pattern subscription only matches its
// own topic string.
func TestExactMatch(t *testing.T) {
	r := NewRegistry(0)
	r.Subscribe("c1", []string{"momentum.btc-usd"})

	if got := r.Match("momentum.btc-usd"); len(got) != 1 || got[0] != "c1" {
		t.Fatalf("got %v, want [c1]", got)
	}
	if got := r.Match("momentum.eth-usd"); len(got) != 0 {
		t.Fatalf("got %v, want []", got)
	}
}

// TestPrefixMatch confirms a trailing-* pattern matches any topic sharing
// its prefix.
func TestPrefixMatch(t *testing.T) {
	r := NewRegistry(0)
	r.Subscribe("c1", []string{"arbitrage.*"})

	for _, topicStr := range []string{"arbitrage.btc-usd", "arbitrage.eth-usd"} {
		if got := r.Match(topicStr); len(got) != 1 || got[0] != "c1" {
			t.Fatalf("Match(%q) = %v, want [c1]", topicStr, got)
		}
	}
	if got := r.Match("momentum.btc-usd"); len(got) != 0 {
		t.Fatalf("got %v, want []", got)
	}
}

// TestGlobalMatch confirms a bare "*" subscription matches every topic.
func TestGlobalMatch(t *testing.T) {
	r := NewRegistry(0)
	r.Subscribe("everything", []string{"*"})

	for _, topicStr := range []string{"momentum.btc-usd", "arbitrage.eth-usd", "whatever"} {
		got := r.Match(topicStr)
		if len(got) != 1 || got[0] != "everything" {
			t.Fatalf("Match(%q) = %v, want [everything]", topicStr, got)
		}
	}
}

// TestMultipleConsumersOverlappingPatterns confirms a topic can fan out to
// several consumers whose patterns all match it, with no duplicates even
// when a consumer subscribes via more than one matching pattern.
func TestMultipleConsumersOverlappingPatterns(t *testing.T) {
	r := NewRegistry(0)
	r.Subscribe("c1", []string{"arbitrage.*"})
	r.Subscribe("c2", []string{"arbitrage.btc-usd"})
	r.Subscribe("c3", []string{"*"})
	r.Subscribe("c1", []string{"arbitrage.btc-usd"}) // overlaps with its own prefix sub

	got := sortedStrings(r.Match("arbitrage.btc-usd"))
	want := []string{"c1", "c2", "c3"}
	if fmt.Sprint(got) != fmt.Sprint(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
}

// TestUnsubscribeRemovesConsumerFromEveryTopic confirms Unsubscribe clears
// a consumer out of the reverse index entirely, including freeing now-empty
// topic entries.
func TestUnsubscribeRemovesConsumerFromEveryTopic(t *testing.T) {
	r := NewRegistry(0)
	r.Subscribe("c1", []string{"momentum.btc-usd", "arbitrage.*"})
	r.Unsubscribe("c1")

	if got := r.Match("momentum.btc-usd"); len(got) != 0 {
		t.Fatalf("got %v, want [] after unsubscribe", got)
	}
	if got := r.Match("arbitrage.eth-usd"); len(got) != 0 {
		t.Fatalf("got %v, want [] after unsubscribe", got)
	}
	if r.ConsumerCount() != 0 {
		t.Fatalf("ConsumerCount = %d, want 0", r.ConsumerCount())
	}
}

// TestResolveInstrumentVenueTopicCaches confirms repeated resolution of the
// same key reuses the cached string rather than calling build again.
func TestResolveInstrumentVenueTopicCaches(t *testing.T) {
	r := NewRegistry(8)
	calls := 0
	build := func(k ExtractionKey) string {
		calls++
		return fmt.Sprintf("md.%d.%d", k.Venue, k.Instrument)
	}

	key := ExtractionKey{Venue: 1, Instrument: 42}
	first := r.ResolveInstrumentVenueTopic(key, build)
	second := r.ResolveInstrumentVenueTopic(key, build)

	if first != second {
		t.Fatalf("first=%q second=%q, want equal", first, second)
	}
	if calls != 1 {
		t.Fatalf("build called %d times, want 1", calls)
	}
}

// TestVenueCacheEvictsLeastRecentlyUsed confirms the cache is bounded and
// evicts the least-recently-used entry once capacity is exceeded.
func TestVenueCacheEvictsLeastRecentlyUsed(t *testing.T) {
	r := NewRegistry(2)
	build := func(k ExtractionKey) string { return fmt.Sprintf("topic-%d", k.Venue) }

	r.ResolveInstrumentVenueTopic(ExtractionKey{Venue: 1}, build)
	r.ResolveInstrumentVenueTopic(ExtractionKey{Venue: 2}, build)
	r.ResolveInstrumentVenueTopic(ExtractionKey{Venue: 1}, build) // refreshes venue 1
	r.ResolveInstrumentVenueTopic(ExtractionKey{Venue: 3}, build) // should evict venue 2, not venue 1

	calls := 0
	counting := func(k ExtractionKey) string {
		calls++
		return fmt.Sprintf("topic-%d", k.Venue)
	}
	r.ResolveInstrumentVenueTopic(ExtractionKey{Venue: 1}, counting)
	if calls != 0 {
		t.Fatal("venue 1 should still be cached (recently used)")
	}
	r.ResolveInstrumentVenueTopic(ExtractionKey{Venue: 2}, counting)
	if calls != 1 {
		t.Fatal("venue 2 should have been evicted")
	}
}

// rawTLV builds a single Standard-TLV record (1-byte type, 1-byte length,
// value), the minimal payload ParseTLVExtensions needs -- independent of any
// specific payload struct's schema.
func rawTLV(t codec.TLVType, value []byte) []byte {
	buf := make([]byte, 2+len(value))
	buf[0] = byte(t)
	buf[1] = byte(len(value))
	copy(buf[2:], value)
	return buf
}

// TestExtractTopicSourceType confirms the SourceType strategy looks up the
// header's source byte in the configured table, matching the original
// relay's fixed source-to-topic table (e.g. polygon market data).
func TestExtractTopicSourceType(t *testing.T) {
	r := NewRegistryWithConfig(0, ExtractionConfig{
		Strategy:     ExtractSourceType,
		SourceTable:  map[uint8]string{4: "market_data_polygon"},
		DefaultTopic: "signals.default",
	}, nil, true)

	h := codec.Header{Source: 4}
	if got := r.ExtractTopic(h, nil); got != "market_data_polygon" {
		t.Fatalf("ExtractTopic = %q, want market_data_polygon", got)
	}

	h.Source = 250 // not in the table
	if got := r.ExtractTopic(h, nil); got != "signals.default" {
		t.Fatalf("ExtractTopic for unknown source = %q, want default topic", got)
	}
	if r.ExtractionFailures() != 1 {
		t.Fatalf("ExtractionFailures = %d, want 1", r.ExtractionFailures())
	}
}

// TestExtractTopicFixed confirms the Fixed strategy always returns the same
// configured topic regardless of header or payload.
func TestExtractTopicFixed(t *testing.T) {
	r := NewRegistryWithConfig(0, ExtractionConfig{
		Strategy:     ExtractFixed,
		FixedTopic:   "fixed",
		DefaultTopic: "signals.default",
	}, nil, true)

	if got := r.ExtractTopic(codec.Header{}, nil); got != "fixed" {
		t.Fatalf("ExtractTopic = %q, want fixed", got)
	}
}

// TestExtractTopicCustomField confirms the CustomField strategy returns the
// named TLV type's trimmed raw payload, and falls back to the default topic
// (incrementing the failure counter) when that type is absent.
func TestExtractTopicCustomField(t *testing.T) {
	r := NewRegistryWithConfig(0, ExtractionConfig{
		Strategy:        ExtractCustomField,
		CustomFieldType: codec.TLVRiskAlert,
		DefaultTopic:    "signals.default",
	}, nil, true)

	payload := rawTLV(codec.TLVRiskAlert, []byte("risk_updates"))
	if got := r.ExtractTopic(codec.Header{}, payload); got != "risk_updates" {
		t.Fatalf("ExtractTopic = %q, want risk_updates", got)
	}

	missing := rawTLV(codec.TLVMomentumSignal, []byte("irrelevant"))
	if got := r.ExtractTopic(codec.Header{}, missing); got != "signals.default" {
		t.Fatalf("ExtractTopic for absent field = %q, want default topic", got)
	}
	if r.ExtractionFailures() != 1 {
		t.Fatalf("ExtractionFailures = %d, want 1", r.ExtractionFailures())
	}
}

// TestExtractTopicInstrumentVenue confirms the InstrumentVenue strategy
// derives "venue_<name>" from the embedded instrument's venue tag.
func TestExtractTopicInstrumentVenue(t *testing.T) {
	r := NewRegistry(8)
	instrument := codec.InstrumentId{Venue: 4, Asset: codec.AssetCEXPair, AssetID: 1}
	sig := codec.MomentumSignalTLV{StrategyType: 1, Instrument: instrument, Direction: 1, StrengthBp: 10, TimestampNs: 1}
	payload := rawTLV(codec.TLVMomentumSignal, sig.Encode())

	want := "venue_" + codec.VenueName(instrument.Venue)
	if got := r.ExtractTopic(codec.Header{}, payload); got != want {
		t.Fatalf("ExtractTopic = %q, want %q", got, want)
	}
}

// TestSubscribeRejectsUnknownTopicWithoutAutoDiscover confirms Subscribe
// returns ErrTopicNotFound for a pattern outside the configured available
// set when auto-discovery is disabled, and accepts one that is in it.
func TestSubscribeRejectsUnknownTopicWithoutAutoDiscover(t *testing.T) {
	r := NewRegistryWithConfig(0, ExtractionConfig{DefaultTopic: "signals.default"}, []string{"arbitrage.*"}, false)

	if err := r.Subscribe("c1", []string{"unknown.topic"}); !errors.Is(err, ErrTopicNotFound) {
		t.Fatalf("Subscribe unknown pattern: got err=%v, want ErrTopicNotFound", err)
	}
	if err := r.Subscribe("c1", []string{"arbitrage.*"}); err != nil {
		t.Fatalf("Subscribe configured pattern: unexpected error %v", err)
	}
	if err := r.Subscribe("c2", []string{"signals.default"}); err != nil {
		t.Fatalf("Subscribe default topic: unexpected error %v", err)
	}
}
