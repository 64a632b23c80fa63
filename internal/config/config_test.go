package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadMinimalConfig(t *testing.T) {
	content := `
relay:
  domain: signal
  socket_path: /tmp/torq/signals.sock
transport:
  nats_url: nats://localhost:4222
  nats_subject_prefix: torq
circuit_breaker:
  preset: fast_recovery
clock:
  update_interval: 2ms
`
	path := writeTempConfig(t, content)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}

	if cfg.Relay.Domain != "signal" {
		t.Errorf("Relay.Domain = %q, want signal", cfg.Relay.Domain)
	}
	if cfg.Relay.ConsumerQueueSize != 1024 {
		t.Errorf("Relay.ConsumerQueueSize default = %d, want 1024", cfg.Relay.ConsumerQueueSize)
	}
	if cfg.Relay.DropThreshold != 50 {
		t.Errorf("Relay.DropThreshold default = %d, want 50", cfg.Relay.DropThreshold)
	}
	if cfg.Transport.NATSURL != "nats://localhost:4222" {
		t.Errorf("Transport.NATSURL = %q", cfg.Transport.NATSURL)
	}
	if cfg.Transport.CompressionThreshold != 4096 {
		t.Errorf("Transport.CompressionThreshold default = %d, want 4096", cfg.Transport.CompressionThreshold)
	}
	if cfg.Clock.UpdateInterval != 2*time.Millisecond {
		t.Errorf("Clock.UpdateInterval = %s, want 2ms", cfg.Clock.UpdateInterval)
	}
	if cfg.Relay.Topic.Strategy != "instrument_venue" {
		t.Errorf("Relay.Topic.Strategy default = %q, want instrument_venue", cfg.Relay.Topic.Strategy)
	}
	if cfg.Relay.Topic.DefaultTopic != "signals.default" {
		t.Errorf("Relay.Topic.DefaultTopic default = %q, want signals.default", cfg.Relay.Topic.DefaultTopic)
	}
	if !cfg.Relay.Topic.AutoDiscover {
		t.Error("Relay.Topic.AutoDiscover default should be true when no allowlist is configured")
	}
}

func TestLoadRejectsUnknownTopicStrategy(t *testing.T) {
	content := `
relay:
  domain: signal
  socket_path: /tmp/torq/signals.sock
  topic:
    strategy: not_a_real_strategy
`
	path := writeTempConfig(t, content)

	if _, err := Load(path); err == nil {
		t.Error("expected validation error for unknown topic strategy")
	}
}

func TestLoadHonorsExplicitTopicAllowlist(t *testing.T) {
	content := `
relay:
  domain: signal
  socket_path: /tmp/torq/signals.sock
  topic:
    strategy: fixed
    fixed_topic: signals.all
    available: ["signals.all"]
    auto_discover: false
`
	path := writeTempConfig(t, content)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if cfg.Relay.Topic.AutoDiscover {
		t.Error("explicit auto_discover=false with a non-empty allowlist should be preserved")
	}
	registry := cfg.Relay.TopicRegistry()
	if err := registry.Subscribe("c1", []string{"signals.all"}); err != nil {
		t.Fatalf("Subscribe allowed pattern: unexpected error %v", err)
	}
	if err := registry.Subscribe("c2", []string{"not_allowed"}); err == nil {
		t.Error("expected Subscribe to reject a pattern outside the configured allowlist")
	}
}

func TestLoadRejectsUnknownDomain(t *testing.T) {
	content := `
relay:
  domain: not_a_real_domain
  socket_path: /tmp/torq/x.sock
`
	path := writeTempConfig(t, content)

	if _, err := Load(path); err == nil {
		t.Error("expected validation error for unknown relay domain")
	}
}

func TestLoadRejectsMissingSocketPath(t *testing.T) {
	content := `
relay:
  domain: market_data
`
	path := writeTempConfig(t, content)

	if _, err := Load(path); err == nil {
		t.Error("expected validation error for missing socket_path")
	}
}

func TestLoadRejectsUnknownFields(t *testing.T) {
	content := `
relay:
  domain: market_data
  socket_path: /tmp/torq/market_data.sock
  not_a_real_field: 1
`
	path := writeTempConfig(t, content)

	if _, err := Load(path); err == nil {
		t.Error("expected an error for an unrecognized config key")
	}
}

func TestCircuitBreakerConfigResolveAppliesOverridesOntoPreset(t *testing.T) {
	cbc := CircuitBreakerConfig{Preset: "conservative", FailureThreshold: 42}
	resolved := cbc.Resolve()

	if resolved.FailureThreshold != 42 {
		t.Errorf("FailureThreshold = %d, want override 42", resolved.FailureThreshold)
	}
	if resolved.RecoveryTimeout != 60*time.Second {
		t.Errorf("RecoveryTimeout = %s, want conservative preset's 60s left untouched", resolved.RecoveryTimeout)
	}
}

func writeTempConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "torq.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}
