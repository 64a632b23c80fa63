package config

import (
	"fmt"
	"strconv"

	"github.com/torq-systems/torq-core/internal/circuitbreaker"
	"github.com/torq-systems/torq-core/internal/codec"
	"github.com/torq-systems/torq-core/internal/relay"
	"github.com/torq-systems/torq-core/internal/topic"
)

// ParsedDomain parses the configured relay domain name into its
// codec.RelayDomain value.
func (c RelayConfig) ParsedDomain() (codec.RelayDomain, error) {
	switch c.Domain {
	case "market_data":
		return codec.DomainMarketData, nil
	case "signal":
		return codec.DomainSignal, nil
	case "execution":
		return codec.DomainExecution, nil
	case "system":
		return codec.DomainSystem, nil
	default:
		return 0, fmt.Errorf("config: unknown relay domain %q", c.Domain)
	}
}

// EngineConfig converts the YAML-facing relay settings into relay.Config.
func (c RelayConfig) EngineConfig() relay.Config {
	return relay.Config{
		ConsumerQueueSize: c.ConsumerQueueSize,
		DropThreshold:     c.DropThreshold,
		DropWindow:        c.DropWindow,
		SendTimeout:       c.SendTimeout,
	}
}

// ExtractionConfig converts the YAML-facing topic settings into
// topic.ExtractionConfig. Unrecognized source_table keys (non-numeric, or
// out of uint8 range) are skipped rather than rejected, since config.Load
// already validated Strategy itself.
func (t TopicConfig) ExtractionConfig() topic.ExtractionConfig {
	sourceTable := make(map[uint8]string, len(t.SourceTable))
	for k, v := range t.SourceTable {
		n, err := strconv.ParseUint(k, 10, 8)
		if err != nil {
			continue
		}
		sourceTable[uint8(n)] = v
	}

	cfg := topic.ExtractionConfig{
		SourceTable:     sourceTable,
		CustomFieldType: codec.TLVType(t.CustomFieldType),
		FixedTopic:      t.FixedTopic,
		DefaultTopic:    t.DefaultTopic,
	}
	switch t.Strategy {
	case "source_type":
		cfg.Strategy = topic.ExtractSourceType
	case "custom_field":
		cfg.Strategy = topic.ExtractCustomField
	case "fixed":
		cfg.Strategy = topic.ExtractFixed
	default:
		cfg.Strategy = topic.ExtractInstrumentVenue
	}
	return cfg
}

// TopicRegistry builds the signal domain's topic.Registry from the relay's
// configured topic-extraction and subscription-discovery settings.
func (c RelayConfig) TopicRegistry() *topic.Registry {
	return topic.NewRegistryWithConfig(c.TopicCacheSize, c.Topic.ExtractionConfig(), c.Topic.Available, c.Topic.AutoDiscover)
}

// Resolve turns a named preset plus any non-zero overrides into a
// circuitbreaker.Config. Overrides are applied field-by-field so a config
// file can tune a single knob without restating the whole preset.
func (c CircuitBreakerConfig) Resolve() circuitbreaker.Config {
	var base circuitbreaker.Config
	switch c.Preset {
	case "fast_recovery":
		base = circuitbreaker.FastRecovery()
	case "conservative":
		base = circuitbreaker.Conservative()
	default:
		base = circuitbreaker.Default()
	}

	if c.FailureThreshold != 0 {
		base.FailureThreshold = c.FailureThreshold
	}
	if c.RecoveryTimeout != 0 {
		base.RecoveryTimeout = c.RecoveryTimeout
	}
	if c.SuccessThreshold != 0 {
		base.SuccessThreshold = c.SuccessThreshold
	}
	if c.HalfOpenMaxCalls != 0 {
		base.HalfOpenMaxCalls = c.HalfOpenMaxCalls
	}
	if c.MeasurementWindow != 0 {
		base.MeasurementWindow = c.MeasurementWindow
	}
	if c.MinimumCalls != 0 {
		base.MinimumCalls = c.MinimumCalls
	}
	return base
}
