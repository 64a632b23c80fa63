// Package config loads the YAML configuration file a relay or client binary
// starts from: which domains to run, where their sockets live, transport
// and circuit-breaker tuning, and clock update cadence.
package config

import (
	"bytes"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the top-level configuration for a torq binary.
type Config struct {
	Relay          RelayConfig          `yaml:"relay"`
	Transport      TransportConfig      `yaml:"transport"`
	CircuitBreaker CircuitBreakerConfig `yaml:"circuit_breaker"`
	Clock          ClockConfig          `yaml:"clock"`
}

// RelayConfig holds per-domain relay tuning.
type RelayConfig struct {
	Domain            string        `yaml:"domain"` // market_data | signal | execution | system
	SocketPath        string        `yaml:"socket_path"`
	ConsumerQueueSize int           `yaml:"consumer_queue_size"`
	DropThreshold     int           `yaml:"drop_threshold"`
	DropWindow        time.Duration `yaml:"drop_window"`
	SendTimeout       time.Duration `yaml:"send_timeout"`
	TopicCacheSize    int           `yaml:"topic_cache_size"` // signal domain only
	Topic             TopicConfig   `yaml:"topic"`            // signal domain only
}

// TopicConfig selects and parameterizes the signal domain's topic
// extraction strategy, plus its subscription discovery policy.
type TopicConfig struct {
	// Strategy is one of source_type | instrument_venue | custom_field |
	// fixed. Defaults to instrument_venue.
	Strategy string `yaml:"strategy"`
	// SourceTable maps a header source byte (as a decimal string key,
	// since YAML maps require string keys) to its topic, for
	// strategy=source_type.
	SourceTable map[string]string `yaml:"source_table"`
	// CustomFieldType names the TLV type number whose raw payload becomes
	// the topic, for strategy=custom_field.
	CustomFieldType uint8 `yaml:"custom_field_type"`
	// FixedTopic is the constant topic for strategy=fixed.
	FixedTopic string `yaml:"fixed_topic"`
	// DefaultTopic is where a message routes when extraction fails.
	DefaultTopic string `yaml:"default_topic"`
	// Available lists every subscribable pattern; ignored when
	// AutoDiscover is true.
	Available []string `yaml:"available"`
	// AutoDiscover, when true, allows subscribing to any pattern. When
	// false, Subscribe rejects a pattern not in Available.
	AutoDiscover bool `yaml:"auto_discover"`
}

// TransportConfig holds actor-transport tuning.
type TransportConfig struct {
	LocalChannelCapacity int    `yaml:"local_channel_capacity"`
	NATSURL              string `yaml:"nats_url"`
	NATSSubjectPrefix    string `yaml:"nats_subject_prefix"`
	CompressionThreshold int    `yaml:"compression_threshold"`
}

// CircuitBreakerConfig holds a preset name plus optional overrides; Resolve
// applies overrides on top of the named preset so a config file only needs
// to specify what it wants to change.
type CircuitBreakerConfig struct {
	Preset            string        `yaml:"preset"` // default | fast_recovery | conservative
	FailureThreshold  int           `yaml:"failure_threshold"`
	RecoveryTimeout   time.Duration `yaml:"recovery_timeout"`
	SuccessThreshold  int           `yaml:"success_threshold"`
	HalfOpenMaxCalls  int           `yaml:"half_open_max_calls"`
	MeasurementWindow time.Duration `yaml:"measurement_window"`
	MinimumCalls      int           `yaml:"minimum_calls"`
}

// ClockConfig holds the cached clock's background update cadence.
type ClockConfig struct {
	UpdateInterval time.Duration `yaml:"update_interval"`
}

// Load reads a YAML config file and returns a validated Config.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var cfg Config
	if err := dec.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}
	cfg.applyDefaults()

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config: validate: %w", err)
	}

	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Relay.ConsumerQueueSize == 0 {
		c.Relay.ConsumerQueueSize = 1024
	}
	if c.Relay.DropThreshold == 0 {
		c.Relay.DropThreshold = 50
	}
	if c.Relay.DropWindow == 0 {
		c.Relay.DropWindow = time.Second
	}
	if c.Relay.SendTimeout == 0 {
		c.Relay.SendTimeout = time.Second
	}
	if c.Relay.Topic.Strategy == "" {
		c.Relay.Topic.Strategy = "instrument_venue"
	}
	if c.Relay.Topic.DefaultTopic == "" {
		c.Relay.Topic.DefaultTopic = "signals.default"
	}
	if len(c.Relay.Topic.Available) == 0 {
		// An empty allowlist with auto-discovery off would reject every
		// subscription; treat "no allowlist configured" as auto-discover.
		c.Relay.Topic.AutoDiscover = true
	}
	if c.Transport.LocalChannelCapacity == 0 {
		c.Transport.LocalChannelCapacity = 1024
	}
	if c.Transport.CompressionThreshold == 0 {
		c.Transport.CompressionThreshold = 4096
	}
	if c.CircuitBreaker.Preset == "" {
		c.CircuitBreaker.Preset = "default"
	}
	if c.Clock.UpdateInterval == 0 {
		c.Clock.UpdateInterval = time.Millisecond
	}
}

func (c *Config) validate() error {
	switch c.Relay.Domain {
	case "market_data", "signal", "execution", "system":
	default:
		return fmt.Errorf("relay.domain must be one of market_data|signal|execution|system, got %q", c.Relay.Domain)
	}
	if c.Relay.SocketPath == "" {
		return fmt.Errorf("relay.socket_path is required")
	}
	switch c.CircuitBreaker.Preset {
	case "default", "fast_recovery", "conservative":
	default:
		return fmt.Errorf("circuit_breaker.preset must be one of default|fast_recovery|conservative, got %q", c.CircuitBreaker.Preset)
	}
	switch c.Relay.Topic.Strategy {
	case "source_type", "instrument_venue", "custom_field", "fixed":
	default:
		return fmt.Errorf("relay.topic.strategy must be one of source_type|instrument_venue|custom_field|fixed, got %q", c.Relay.Topic.Strategy)
	}
	return nil
}
