package relay

import (
	"context"
	"errors"
	"io"
	"net"
	"path/filepath"
	"testing"
	"time"

	"github.com/torq-systems/torq-core/internal/codec"
)

type testPolicy struct {
	domain codec.RelayDomain
	path   string
}

func (p testPolicy) Domain() codec.RelayDomain        { return p.domain }
func (p testPolicy) SocketPath() string               { return p.path }
func (p testPolicy) ShouldForward(h codec.Header) bool { return h.RelayDomain == p.domain }

func startTestEngine(t *testing.T, policy DomainPolicy, cfg Config) (*Engine, func()) {
	t.Helper()
	e := NewEngine(policy, cfg)
	ctx, cancel := context.WithCancel(context.Background())

	errCh := make(chan error, 1)
	go func() { errCh <- e.ListenAndServe(ctx) }()

	// Give the listener a moment to bind before tests start dialing.
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if conn, err := net.Dial("unix", policy.SocketPath()); err == nil {
			conn.Close()
			break
		}
		time.Sleep(5 * time.Millisecond)
	}

	return e, func() {
		cancel()
		e.Shutdown()
	}
}

func buildSampleMessage(t *testing.T, domain codec.RelayDomain) []byte {
	t.Helper()
	trade := codec.TradeTLV{
		Venue:       1,
		Instrument:  codec.InstrumentId{Venue: 1, Asset: codec.AssetCEXPair, AssetID: 7},
		Price:       100_000_000,
		Volume:      50_000_000,
		Side:        codec.TradeSideBuy,
		TimestampNs: 1,
	}
	msg, err := codec.BuildMessage(domain, 1, codec.TLVTrade, 1, 1, &trade)
	if err != nil {
		t.Fatalf("BuildMessage: %v", err)
	}
	return msg
}

// TestEngineForwardsToOtherConsumers confirms a message sent by one
// connected peer is forwarded, byte-for-byte, to every other connected peer
// but not echoed back to the sender.
func TestEngineForwardsToOtherConsumers(t *testing.T) {
	sockPath := filepath.Join(t.TempDir(), "market_data.sock")
	policy := testPolicy{domain: codec.DomainMarketData, path: sockPath}
	cfg := DefaultConfig()
	_, stop := startTestEngine(t, policy, cfg)
	defer stop()

	sender, err := net.Dial("unix", sockPath)
	if err != nil {
		t.Fatalf("dial sender: %v", err)
	}
	defer sender.Close()

	receiver, err := net.Dial("unix", sockPath)
	if err != nil {
		t.Fatalf("dial receiver: %v", err)
	}
	defer receiver.Close()

	time.Sleep(20 * time.Millisecond) // let both connections register

	msg := buildSampleMessage(t, codec.DomainMarketData)
	if _, err := sender.Write(msg); err != nil {
		t.Fatalf("sender write: %v", err)
	}

	receiver.SetReadDeadline(time.Now().Add(2 * time.Second))
	buf := make([]byte, len(msg))
	if _, err := readFull(receiver, buf); err != nil {
		t.Fatalf("receiver read: %v", err)
	}
	for i := range msg {
		if buf[i] != msg[i] {
			t.Fatalf("forwarded message differs at byte %d: got %d want %d", i, buf[i], msg[i])
		}
	}

	// The sender should not receive its own message back.
	sender.SetReadDeadline(time.Now().Add(100 * time.Millisecond))
	small := make([]byte, 1)
	if _, err := sender.Read(small); err == nil {
		t.Fatal("sender unexpectedly received a forwarded copy of its own message")
	}
}

// TestEngineRejectsDomainMismatch confirms a message whose header domain
// does not match the relay's configured domain is rejected and not
// forwarded anywhere.
func TestEngineRejectsDomainMismatch(t *testing.T) {
	sockPath := filepath.Join(t.TempDir(), "execution.sock")
	policy := testPolicy{domain: codec.DomainExecution, path: sockPath}
	e, stop := startTestEngine(t, policy, DefaultConfig())
	defer stop()

	sender, err := net.Dial("unix", sockPath)
	if err != nil {
		t.Fatalf("dial sender: %v", err)
	}
	defer sender.Close()
	receiver, err := net.Dial("unix", sockPath)
	if err != nil {
		t.Fatalf("dial receiver: %v", err)
	}
	defer receiver.Close()

	time.Sleep(20 * time.Millisecond)

	wrongDomainMsg := buildSampleMessage(t, codec.DomainMarketData)
	if _, err := sender.Write(wrongDomainMsg); err != nil {
		t.Fatalf("sender write: %v", err)
	}

	time.Sleep(50 * time.Millisecond)
	if e.Metrics().MessagesRejected.Load() != 1 {
		t.Fatalf("MessagesRejected = %d, want 1", e.Metrics().MessagesRejected.Load())
	}
	if e.Metrics().MessagesForwarded.Load() != 0 {
		t.Fatalf("MessagesForwarded = %d, want 0", e.Metrics().MessagesForwarded.Load())
	}
}

// TestEngineDisconnectsSlowConsumerAfterThreshold confirms a consumer whose
// queue stays full for DropThreshold consecutive sends within DropWindow
// gets disconnected, instead of backpressuring the whole relay forever.
func TestEngineDisconnectsSlowConsumerAfterThreshold(t *testing.T) {
	sockPath := filepath.Join(t.TempDir(), "market_data.sock")
	policy := testPolicy{domain: codec.DomainMarketData, path: sockPath}
	cfg := Config{ConsumerQueueSize: 1, DropThreshold: 3, DropWindow: time.Minute, SendTimeout: time.Second}
	_, stop := startTestEngine(t, policy, cfg)
	defer stop()

	sender, err := net.Dial("unix", sockPath)
	if err != nil {
		t.Fatalf("dial sender: %v", err)
	}
	defer sender.Close()

	slow, err := net.Dial("unix", sockPath)
	if err != nil {
		t.Fatalf("dial slow consumer: %v", err)
	}
	defer slow.Close()

	time.Sleep(20 * time.Millisecond)

	msg := buildSampleMessage(t, codec.DomainMarketData)
	// Never read from `slow` while sending. The engine's writer first drains
	// the queue into the socket's kernel buffer, so enough messages are sent
	// to fill that buffer; after that the writer blocks, the queue stays full,
	// and every further forward drops until the disconnect threshold trips.
	for i := 0; i < 20000; i++ {
		if _, err := sender.Write(msg); err != nil {
			t.Fatalf("sender write %d: %v", i, err)
		}
	}

	// What reached the socket before the disconnect is still readable; the
	// connection must then end with EOF, not a read timeout.
	slow.SetReadDeadline(time.Now().Add(5 * time.Second))
	buf := make([]byte, 64*1024)
	var readErr error
	for readErr == nil {
		_, readErr = slow.Read(buf)
	}
	if !errors.Is(readErr, io.EOF) {
		t.Fatalf("expected slow consumer's connection to have been closed by the relay, got %v", readErr)
	}
}
